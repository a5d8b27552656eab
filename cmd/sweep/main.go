// cmd/sweep/main.go runs a single accrual sweep and prints its summary as JSON.
// It is meant for external schedulers that replace the in-process cron.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	app "rewardvault/internal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.NewApplication()
	if err := application.Initialize(ctx); err != nil {
		os.Stderr.WriteString("Failed to initialize application: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = application.Shutdown(context.Background()) }()

	summary, ran, err := application.Scheduler.RunOnce(ctx)
	if !ran {
		application.Logger.Info("Sweep skipped, another replica holds the lease")
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if summary != nil {
		_ = enc.Encode(summary)
	}
	if err != nil {
		application.Logger.Error("Sweep failed", "error", err)
		_ = application.Shutdown(context.Background())
		os.Exit(1)
	}
}
