package dealgen_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/battlegrounds/internal/adapters/http/api"
	service "github.com/okian/battlegrounds/internal/app"
	"github.com/okian/battlegrounds/internal/dealgen"
	"github.com/okian/battlegrounds/internal/domain/leaderboard"
	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/internal/domain/types"
	"github.com/okian/battlegrounds/internal/seed"
	"github.com/okian/battlegrounds/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func usd(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestGenerate(t *testing.T) {
	convey.Convey("Given a seeded generator", t, func() {
		rng := rand.New(rand.NewPCG(7, 11))
		deals := dealgen.Generate(rng, "c1", []string{"a1", "a2"}, 40, 0.25)

		convey.So(deals, convey.ShouldHaveLength, 40)

		approved := 0
		seen := map[string]bool{}
		for _, d := range deals {
			convey.So(d.ContestID, convey.ShouldEqual, "c1")
			convey.So([]string{"a1", "a2"}, convey.ShouldContain, d.AgentID)
			convey.So(d.Premium.GreaterThanOrEqual(usd(500)), convey.ShouldBeTrue)
			convey.So(d.Premium.LessThanOrEqual(usd(15000)), convey.ShouldBeTrue)
			convey.So(d.LinesOfBusiness, convey.ShouldNotBeEmpty)
			convey.So(seen[d.ID], convey.ShouldBeFalse)
			seen[d.ID] = true
			if d.Approve {
				approved++
			}
		}
		convey.So(approved, convey.ShouldEqual, 10)

		convey.Convey("No agents yields no deals", func() {
			convey.So(dealgen.Generate(rng, "c1", nil, 5, 1), convey.ShouldBeEmpty)
		})
	})
}

func TestVerify(t *testing.T) {
	convey.Convey("Given a baseline leaderboard", t, func() {
		entry := func(rank int, id string, total int64, count int, badges ...string) types.Entry {
			e := types.Entry{Rank: rank, Agent: model.Agent{ID: id}, TotalPremium: usd(total), DealCount: count}
			for _, b := range badges {
				e.Badges = append(e.Badges, types.Badge{ID: b})
			}
			return e
		}
		baseline := types.Board{Standings: types.Standings{Found: true, Entries: []types.Entry{
			entry(1, "a1", 20000, 2),
			entry(2, "a2", 10000, 1),
		}}}
		deals := []dealgen.Deal{
			{ID: "d1", AgentID: "a2", Premium: usd(16000), Approve: true},
			{ID: "d2", AgentID: "a1", Premium: usd(9000)},
		}

		convey.Convey("A matching result passes", func() {
			after := types.Board{Standings: types.Standings{Found: true, Entries: []types.Entry{
				entry(1, "a2", 26000, 2, leaderboard.Badge25K),
				entry(2, "a1", 20000, 2),
			}}}
			convey.So(dealgen.Verify(baseline, after, deals), convey.ShouldBeNil)
		})

		convey.Convey("A wrong total is reported", func() {
			after := types.Board{Standings: types.Standings{Found: true, Entries: []types.Entry{
				entry(1, "a1", 29000, 3, leaderboard.Badge25K),
				entry(2, "a2", 26000, 2, leaderboard.Badge25K),
			}}}
			err := dealgen.Verify(baseline, after, deals)
			convey.So(errors.Is(err, dealgen.ErrMismatch), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "agent a1 total $29,000, want $20,000")
		})

		convey.Convey("Misordered ranks and missing badges are reported", func() {
			after := types.Board{Standings: types.Standings{Found: true, Entries: []types.Entry{
				entry(1, "a1", 20000, 2),
				entry(2, "a2", 26000, 2),
			}}}
			err := dealgen.Verify(baseline, after, deals)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "exceeds rank 1")
			convey.So(err.Error(), convey.ShouldContainSubstring, "25k badge")
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given generator configs", t, func() {
		valid := dealgen.Config{BaseURL: "http://x", NumDeals: 1, Workers: 1, ApproveRatio: 0.5}
		convey.So(valid.Validate(), convey.ShouldBeNil)

		for _, mutate := range []func(*dealgen.Config){
			func(c *dealgen.Config) { c.BaseURL = "" },
			func(c *dealgen.Config) { c.NumDeals = 0 },
			func(c *dealgen.Config) { c.Workers = 0 },
			func(c *dealgen.Config) { c.ApproveRatio = 1.5 },
		} {
			c := valid
			mutate(&c)
			convey.So(errors.Is(c.Validate(), dealgen.ErrInvalidConfig), convey.ShouldBeTrue)
		}
	})
}

func TestRunAgainstService(t *testing.T) {
	convey.Convey("Given a running service with the demo dataset", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(1000))
		svc.Load(ctx, seed.Demo())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, 100).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		out := filepath.Join(t.TempDir(), "deals.json")
		cfg := &dealgen.Config{
			BaseURL:      srv.URL,
			NumDeals:     60,
			Workers:      4,
			ApproveRatio: 0.5,
			Timeout:      5 * time.Second,
			SettleWait:   10 * time.Second,
			PollInterval: 20 * time.Millisecond,
			OutputFile:   out,
			Seed:         42,
		}

		convey.Convey("When the generator runs against the current contest", func() {
			stats, err := dealgen.Run(ctx, cfg)

			convey.Convey("Then every deal is accepted and the leaderboard verifies", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.DealsAccepted, convey.ShouldEqual, 60)
				convey.So(stats.DealsFailed, convey.ShouldEqual, 0)
				convey.So(stats.DealsApproved, convey.ShouldEqual, 30)
				convey.So(stats.Entries, convey.ShouldEqual, 4)

				_, statErr := os.Stat(out)
				convey.So(statErr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the contest does not exist", func() {
			cfg.ContestID = "missing"
			_, err := dealgen.Run(ctx, cfg)
			convey.So(errors.Is(err, dealgen.ErrNoContest), convey.ShouldBeTrue)
		})
	})
}
