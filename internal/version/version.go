// Package version pins the client version and checks server compatibility.
package version

import (
	"fmt"
	"strings"
)

const (
	// Version of this client library.
	Version = "1.0.0"
	// MinServerVersion the client is known to work against.
	MinServerVersion = "1.0.0"
	// APIVersion is the wire format the client speaks.
	APIVersion = "v1"
)

// MismatchError reports an incompatible client/server version pair.
type MismatchError struct {
	Client string
	Server string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("version mismatch: client=%s, server=%s, please update the client", e.Client, e.Server)
}

// CheckCompatibility requires matching major versions.
func CheckCompatibility(client, server string) error {
	if major(client) != major(server) {
		return &MismatchError{Client: client, Server: server}
	}
	return nil
}

func major(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}
