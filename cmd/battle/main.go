// Command battle races the quantum-inspired annealer against the
// comparator solver family on a request loaded from a JSON file and
// prints the ranked results.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edudyne/scheduler/internal/engine"
	"github.com/edudyne/scheduler/pkg/battle"
)

var (
	requestPath string
	timeout     time.Duration
	seed        int64
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "battle",
		Short: "Race the scheduling solvers against one request",
		RunE:  runBattle,
	}
	root.Flags().StringVarP(&requestPath, "request", "r", "", "path to a JSON-encoded engine.Request (required)")
	root.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "per-entrant time budget")
	root.Flags().Int64VarP(&seed, "seed", "s", 1, "rng seed for the annealer and comparator solvers")
	_ = root.MarkFlagRequired("request")
	return root
}

func runBattle(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(requestPath)
	if err != nil {
		return fmt.Errorf("reading request file: %w", err)
	}

	var req engine.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	if errs := engine.Validate(req); errs.HasErrors() {
		return fmt.Errorf("invalid request: %w", errs)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	entrants := battle.DefaultEntrants(seed)
	report := battle.Run(ctx, req, entrants, logger)

	fmt.Printf("battle completed in %s\n", report.Elapsed)
	for _, r := range report.Rankings {
		fmt.Printf("%d. %-15s scheduled=%d/%d cost=%.2f status=%-10s time=%s\n",
			r.Rank, r.Result.Algorithm, r.Result.ScheduledCount, r.Result.TotalSections,
			r.Result.Cost, r.Result.Status, r.Result.SolveTime)
	}
	if len(report.Rankings) == 0 || report.Rankings[0].Result.ScheduledCount == 0 {
		return fmt.Errorf("no entrant produced a schedule")
	}
	return nil
}
