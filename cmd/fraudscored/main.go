// Command fraudscored runs the key-indicator fraud scoring service.
//
// Usage:
//
//	fraudscored [serve]                 run the gRPC/HTTP service (default)
//	fraudscored score -input txns.jsonl  score a file and print the results
//	fraudscored migrate up|down          apply or roll back the schema
//	fraudscored import-profiles -profiles profiles.csv
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve(ctx)
	case "score":
		err = runScore(ctx, args, os.Stdout, os.Stderr)
	case "migrate":
		err = runMigrate(args)
	case "import-profiles":
		err = runImportProfiles(ctx, args)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	cancel()

	if err != nil {
		slog.Error("fraudscored failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}
