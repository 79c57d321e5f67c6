package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"go.uber.org/zap"

	"receipt-recognizer/internal/receipt"
	"receipt-recognizer/internal/recognize"
	"receipt-recognizer/internal/recognize/api"
	"receipt-recognizer/internal/recognize/gemini"
	"receipt-recognizer/internal/recognize/yandex"
	"receipt-recognizer/internal/version"
)

func main() {
	rootFlags := ff.NewFlagSet("receipt-cli")
	showVersion := rootFlags.BoolLong("version", "Show client version")

	recognizeFlags := ff.NewFlagSet("recognize").SetParent(rootFlags)
	output := recognizeFlags.StringLong("output", "", "Write result JSON to a file instead of stdout")
	pretty := recognizeFlags.BoolLong("pretty", "Indent the output JSON")
	engineName := recognizeFlags.StringLong("engine", "api", "Recognition engine: api | yandex | gemini")

	root := &ff.Command{
		Name:  "receipt-cli",
		Usage: "receipt-cli [--version] <command> ...",
		Flags: rootFlags,
		Exec: func(ctx context.Context, args []string) error {
			if *showVersion {
				fmt.Println("receipt-recognizer-client v" + version.Version)
				return nil
			}
			return errors.New("command required")
		},
		Subcommands: []*ff.Command{
			{
				Name:  "recognize",
				Usage: "receipt-cli recognize [flags] <image-or-pdf>",
				Flags: recognizeFlags,
				Exec: func(ctx context.Context, args []string) error {
					if len(args) != 1 {
						return errors.New("expected exactly one file argument")
					}
					return runRecognize(ctx, *engineName, args[0], *output, *pretty)
				},
			},
			{
				Name:  "validate",
				Usage: "receipt-cli validate <result.json>",
				Flags: ff.NewFlagSet("validate").SetParent(rootFlags),
				Exec: func(ctx context.Context, args []string) error {
					if len(args) != 1 {
						return errors.New("expected exactly one file argument")
					}
					return runValidate(args[0])
				},
			},
			{
				Name:  "check-version",
				Usage: "receipt-cli check-version <server-version>",
				Flags: ff.NewFlagSet("check-version").SetParent(rootFlags),
				Exec: func(ctx context.Context, args []string) error {
					if len(args) != 1 {
						return errors.New("expected a server version argument, e.g. 1.2.0")
					}
					if err := version.CheckCompatibility(version.Version, args[0]); err != nil {
						return err
					}
					fmt.Printf("client v%s is compatible with server v%s\n", version.Version, args[0])
					return nil
				},
			},
		},
	}

	if err := root.ParseAndRun(context.Background(), os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_RECOGNIZER"),
	); err != nil {
		if errors.Is(err, ff.ErrHelp) {
			fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root))
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runRecognize(ctx context.Context, engineName, path, output string, pretty bool) error {
	log := zap.NewNop()

	var engine recognize.Engine
	switch engineName {
	case "api":
		c, err := api.New(
			os.Getenv("RECEIPT_RECOGNIZER_API_URL"),
			os.Getenv("RECEIPT_RECOGNIZER_CLIENT_TOKEN"),
			log,
		)
		if err != nil {
			return err
		}
		fields, err := c.RecognizeFile(ctx, path)
		if err != nil {
			return err
		}
		return writeResult(typedResult(receipt.Normalize(fields)), output, pretty)
	case "yandex":
		engine = yandex.New(os.Getenv("YC_OAUTH_TOKEN"), os.Getenv("YC_FOLDER_ID"))
	case "gemini":
		engine = gemini.New(os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"))
	default:
		return fmt.Errorf("unknown engine %q", engineName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, recognize.ErrNotFound)
		}
		return err
	}
	fields, err := engine.Recognize(ctx, data, "")
	if err != nil {
		return err
	}
	return writeResult(typedResult(receipt.Normalize(fields)), output, pretty)
}

// typedResult returns the strongly typed receipt when the mapping is complete
// and parseable, otherwise the raw mapping so partial results stay visible.
func typedResult(fields receipt.Fields) any {
	if rec, err := receipt.FromFields(fields); err == nil {
		return rec
	}
	return fields
}

func runValidate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fields receipt.Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("invalid result json: %w", err)
	}
	fields = receipt.Normalize(fields)
	if !receipt.Valid(fields) {
		return fmt.Errorf("invalid result: missing %v", receipt.Missing(fields))
	}
	if _, err := receipt.FromFields(fields); err != nil {
		return fmt.Errorf("invalid result: %w", err)
	}
	fmt.Println("ok")
	return nil
}

func writeResult(result any, output string, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if output != "" {
		return os.WriteFile(output, data, 0o644)
	}
	_, err = os.Stdout.Write(data)
	return err
}
