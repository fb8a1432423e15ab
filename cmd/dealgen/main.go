package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/battlegrounds/internal/dealgen"
	"github.com/okian/battlegrounds/pkg/logger"
	"github.com/spf13/cobra"
)

// Default configuration constants.
const (
	defaultNumDeals     = 500
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultApproveRatio = 0.6
	defaultTimeout      = 30 * time.Second
	defaultSettleWait   = 30 * time.Second
	defaultPollInterval = 250 * time.Millisecond
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &dealgen.Config{}
	var logLevel string

	cmd := &cobra.Command{
		Use:   "dealgen",
		Short: "Submit random deals to a Battle Grounds service and verify its leaderboard",
		Long: `dealgen submits random deals for one contest, waits for the service to
apply them, approves a share of them and checks that the contest leaderboard
matches the approved totals.`,
		Example: `  dealgen --deals 2000 --workers 16
  dealgen --url http://localhost:8080 --contest 2 --approve 0.3`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			if err := logger.SetLevelString(logLevel); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultRunTimeout)
			defer cancel()

			_, err := dealgen.Run(ctx, cfg)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	f.StringVar(&cfg.ContestID, "contest", "", "contest id; the current contest when empty")
	f.IntVar(&cfg.NumDeals, "deals", defaultNumDeals, "number of deals to submit")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "number of concurrent requests")
	f.Float64Var(&cfg.ApproveRatio, "approve", defaultApproveRatio, "share of deals to approve, 0..1")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.SettleWait, "settle", defaultSettleWait, "how long to wait for submissions to apply")
	f.DurationVar(&cfg.PollInterval, "poll", defaultPollInterval, "delay between settle checks")
	f.StringVar(&cfg.OutputFile, "output", "", "write the generated deals to this JSON file")
	f.Uint64Var(&cfg.Seed, "seed", 0, "random seed; 0 uses the clock")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log failed requests")
	f.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	return cmd
}
