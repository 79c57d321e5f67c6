package httpserver

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// Register adds /healthz to the default mux. The Telegram webhook handler
// registers itself on the default mux too, so both share one listener.
// db may be nil.
func Register(db *sql.DB) {
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})
}
