package dealgen

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	percentMultiplier   = 100
)

// Run executes a complete generator pass against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("dealgen")
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting deal generator",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("deals", cfg.NumDeals),
		logger.Int("workers", cfg.Workers),
		logger.Float64("approveRatio", cfg.ApproveRatio))

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Resolve the contest and its participants
	contestID, err := resolveContest(ctx, client, cfg.ContestID)
	if err != nil {
		return nil, err
	}
	baseline, err := client.Leaderboard(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("baseline leaderboard: %w", err)
	}
	if !baseline.Found || len(baseline.Entries) == 0 {
		return nil, fmt.Errorf("%w: contest %s has no participants", ErrNoContest, contestID)
	}
	agentIDs := make([]string, len(baseline.Entries))
	for i, e := range baseline.Entries {
		agentIDs[i] = e.Agent.ID
	}

	// Step 3: Generate deals
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	deals := Generate(rand.New(rand.NewPCG(seed, seed>>1)), contestID, agentIDs, cfg.NumDeals, cfg.ApproveRatio)
	stats.DealsGenerated = len(deals)
	log.Info(ctx, "generated deals", logger.Int("count", len(deals)), logger.String("contest", contestID))

	// Step 4: Submit concurrently
	if err := submitDeals(ctx, cfg, client, deals, stats); err != nil {
		return stats, fmt.Errorf("deal submission failed: %w", err)
	}

	// Step 5: Wait for the queue to apply them
	if err := waitApplied(ctx, cfg, client, contestID, deals); err != nil {
		return stats, fmt.Errorf("waiting for deals: %w", err)
	}

	// Step 6: Approve the selected share
	if err := approveDeals(ctx, cfg, client, deals, stats); err != nil {
		return stats, fmt.Errorf("deal approval failed: %w", err)
	}

	// Step 7: Verify the leaderboard
	after, err := client.Leaderboard(ctx, contestID)
	if err != nil {
		return stats, fmt.Errorf("final leaderboard: %w", err)
	}
	stats.Entries = len(after.Entries)
	if err := Verify(baseline, after, deals); err != nil {
		return stats, err
	}
	if len(after.Entries) > 0 {
		top := after.Entries[0]
		log.Info(ctx, "leaderboard verified",
			logger.String("leader", top.Agent.Name),
			logger.String("total", model.FormatUSD(top.TotalPremium)))
	}

	// Step 8: Save deals to file
	if cfg.OutputFile != "" {
		if err := saveDeals(cfg.OutputFile, deals); err != nil {
			log.Warn(ctx, "failed to save deals to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

func resolveContest(ctx context.Context, client *Client, contestID string) (string, error) {
	if contestID != "" {
		return contestID, nil
	}
	current, err := client.CurrentContest(ctx)
	if err != nil {
		return "", fmt.Errorf("current contest: %w", err)
	}
	if current == nil {
		return "", ErrNoContest
	}
	return current.ID, nil
}

func submitDeals(ctx context.Context, cfg *Config, client *Client, deals []Deal, stats *Stats) error {
	var accepted, duplicate, failed atomic.Int64
	log := logger.Get().Named("dealgen")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, d := range deals {
		g.Go(func() error {
			outcome, err := client.Submit(gctx, d)
			switch {
			case err != nil:
				failed.Add(1)
				if cfg.Verbose {
					log.Warn(gctx, "submit failed", logger.String("id", d.ID), logger.Error(err))
				}
			case outcome == outcomeDuplicate:
				duplicate.Add(1)
			default:
				accepted.Add(1)
			}
			return gctx.Err()
		})
	}
	err := g.Wait()

	stats.DealsAccepted = int(accepted.Load())
	stats.DealsDuplicate = int(duplicate.Load())
	stats.DealsFailed = int(failed.Load())
	if err != nil {
		return err
	}
	if stats.DealsFailed > 0 {
		return fmt.Errorf("%d of %d submissions failed", stats.DealsFailed, len(deals))
	}
	return nil
}

// waitApplied polls every agent's deal list until all generated ids are
// visible or cfg.SettleWait elapses.
func waitApplied(ctx context.Context, cfg *Config, client *Client, contestID string, deals []Deal) error {
	byAgent := make(map[string][]string)
	for _, d := range deals {
		byAgent[d.AgentID] = append(byAgent[d.AgentID], d.ID)
	}

	deadline := time.Now().Add(cfg.SettleWait)
	for {
		missing, err := countMissing(ctx, cfg, client, contestID, byAgent)
		if err != nil {
			return err
		}
		if missing == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%d deals not applied after %s", missing, cfg.SettleWait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.PollInterval):
		}
	}
}

func countMissing(ctx context.Context, cfg *Config, client *Client, contestID string, byAgent map[string][]string) (int, error) {
	var missing atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for agentID, ids := range byAgent {
		g.Go(func() error {
			got, err := client.AgentDeals(gctx, contestID, agentID)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if !slices.ContainsFunc(got, func(d model.Deal) bool { return d.ID == id }) {
					missing.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(missing.Load()), nil
}

func approveDeals(ctx context.Context, cfg *Config, client *Client, deals []Deal, stats *Stats) error {
	var approved atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, d := range deals {
		if !d.Approve {
			continue
		}
		g.Go(func() error {
			ok, err := client.Approve(gctx, d.ID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("deal %s unknown to the service", d.ID)
			}
			approved.Add(1)
			return nil
		})
	}
	err := g.Wait()

	stats.DealsApproved = int(approved.Load())
	stats.ApprovedTotal = decimal.Zero
	for _, d := range deals {
		if d.Approve {
			stats.ApprovedTotal = stats.ApprovedTotal.Add(d.Premium)
		}
	}
	return err
}

// saveDeals writes deals to filename as a JSON array.
func saveDeals(filename string, deals []Deal) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(deals, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal deals: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// displayFinalStats logs the run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var acceptRate, dealsPerSecond float64
	if stats.DealsGenerated > 0 {
		acceptRate = float64(stats.DealsAccepted) / float64(stats.DealsGenerated) * percentMultiplier
	}
	if stats.Duration > 0 {
		dealsPerSecond = float64(stats.DealsGenerated) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.String("dealsGenerated", humanize.Comma(int64(stats.DealsGenerated))),
		logger.Int("dealsAccepted", stats.DealsAccepted),
		logger.Int("dealsDuplicate", stats.DealsDuplicate),
		logger.Int("dealsFailed", stats.DealsFailed),
		logger.Int("dealsApproved", stats.DealsApproved),
		logger.String("approvedTotal", model.FormatUSD(stats.ApprovedTotal)),
		logger.Int("leaderboardEntries", stats.Entries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("dealsPerSecond", dealsPerSecond))
}
