package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	service "github.com/okian/battlegrounds/internal/app"
	"github.com/okian/battlegrounds/internal/domain/leaderboard"
	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/internal/domain/tv"
	"github.com/okian/battlegrounds/internal/domain/types"
	"github.com/okian/battlegrounds/internal/export"
	"github.com/okian/battlegrounds/internal/seed"
	"github.com/okian/battlegrounds/pkg/logger"
	"github.com/okian/battlegrounds/pkg/metrics"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// february is inside the demo contest, after the demo battles ended.
var february = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func demoService(now time.Time, opts ...service.Option) *service.Service {
	opts = append(opts, service.WithClock(func() time.Time { return now }))
	svc := service.New(opts...)
	svc.Load(context.Background(), seed.Demo())
	return svc
}

func notificationsOf(svc *service.Service, typ model.NotificationType) []model.Notification {
	var out []model.Notification
	for _, n := range svc.Notifications(context.Background(), false) {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// currentContestGauge reads the current-contest gauge from the metrics
// registry, or -1 when it is missing.
func currentContestGauge() float64 {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		return -1
	}
	for _, mf := range families {
		if strings.HasSuffix(mf.GetName(), "current_contest_selected") && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return -1
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Started(), ShouldBeFalse)
			So(svc.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithNotificationLimit(10),
			service.WithRules(leaderboard.DefaultRules()),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 50_000)
			So(stats["dedupeSize"], ShouldEqual, 25_000)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["workers"], ShouldEqual, 2)
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stopping marks it stopped", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Started(), ShouldBeFalse)
			})
		})

		Convey("When stopping a service that never started", func() {
			svc.Stop()

			Convey("Then nothing happens", func() {
				So(svc.Started(), ShouldBeFalse)
			})
		})
	})
}

func TestService_Load(t *testing.T) {
	Convey("Given the demo dataset", t, func() {
		svc := demoService(february)
		ctx := context.Background()

		Convey("Then every collection is loaded", func() {
			stats := svc.GetStats()
			So(stats["agents"], ShouldEqual, 4)
			So(stats["contests"], ShouldEqual, 1)
			So(stats["deals"], ShouldEqual, 3)
			So(stats["battles"], ShouldEqual, 3)
			So(stats["currentContestID"], ShouldEqual, "1")
		})

		Convey("Then the current contest is selected", func() {
			c, ok := svc.CurrentContest(ctx)
			So(ok, ShouldBeTrue)
			So(c.Name, ShouldEqual, "Q1 2024 Sales Blitz")
		})

		Convey("When loading a dataset whose current contest is unknown", func() {
			ds := seed.Demo()
			ds.CurrentContest = "missing"
			svc.Load(ctx, ds)

			Convey("Then no contest is selected", func() {
				_, ok := svc.CurrentContest(ctx)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestService_Leaderboard(t *testing.T) {
	Convey("Given the demo dataset", t, func() {
		svc := demoService(february)
		ctx := context.Background()

		Convey("When reading the contest leaderboard", func() {
			board := svc.Leaderboard(ctx, "1", 0)

			Convey("Then agents are ranked by approved premium", func() {
				So(board.Found, ShouldBeTrue)
				So(board.Entries, ShouldHaveLength, 4)
				So(board.Entries[0].Agent.Name, ShouldEqual, "Lisa Rodriguez")
				So(board.Entries[0].GoalPercentage, ShouldEqual, 3.6)
				So(board.Entries[1].Agent.Name, ShouldEqual, "Sarah Johnson")
				So(board.Entries[2].Agent.Name, ShouldEqual, "Mike Chen")
				So(board.Entries[3].Agent.Name, ShouldEqual, "David Kim")
				So(board.Entries[3].DealCount, ShouldEqual, 0)
			})

			Convey("Then no prize is unlocked yet", func() {
				So(board.Prizes, ShouldHaveLength, 2)
				for _, p := range board.Prizes {
					So(p.IsUnlocked, ShouldBeFalse)
				}
			})
		})

		Convey("When a limit is given", func() {
			board := svc.Leaderboard(ctx, "1", 2)

			Convey("Then only the top entries are returned", func() {
				So(board.Entries, ShouldHaveLength, 2)
				So(board.Entries[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When the contest is unknown", func() {
			board := svc.Leaderboard(ctx, "nope", 10)

			Convey("Then the board is empty and not found", func() {
				So(board.Found, ShouldBeFalse)
				So(board.Entries, ShouldBeEmpty)
				So(board.Prizes, ShouldBeEmpty)
			})
		})
	})
}

func TestService_UpdateDeal(t *testing.T) {
	Convey("Given the demo dataset with a pending deal for Sarah", t, func() {
		svc := demoService(february)
		ctx := context.Background()
		So(svc.ApplySubmission(ctx, model.Submission{
			ID:              "4",
			AgentID:         "1",
			ContestID:       "1",
			Premium:         decimal.NewFromInt(12000),
			LinesOfBusiness: []string{"Life"},
		}), ShouldBeNil)

		Convey("Then the pending deal does not count", func() {
			board := svc.Leaderboard(ctx, "1", 0)
			So(board.Entries[1].Agent.ID, ShouldEqual, "1")
			So(board.Entries[1].TotalPremium.Equal(decimal.NewFromInt(15000)), ShouldBeTrue)
			So(notificationsOf(svc, model.NotificationDeal), ShouldHaveLength, 1)
		})

		Convey("When the deal is approved", func() {
			ok := svc.UpdateDealStatus(ctx, "4", model.DealApproved)

			Convey("Then Sarah leads with the 25K Club badge", func() {
				So(ok, ShouldBeTrue)
				board := svc.Leaderboard(ctx, "1", 0)
				So(board.Entries[0].Agent.ID, ShouldEqual, "1")
				So(board.Entries[0].TotalPremium.Equal(decimal.NewFromInt(27000)), ShouldBeTrue)
				So(board.Entries[0].HasBadge(leaderboard.Badge25K), ShouldBeTrue)
			})

			Convey("Then the milestone prize unlocks", func() {
				board := svc.Leaderboard(ctx, "1", 0)
				So(board.Prizes[1].Type, ShouldEqual, model.PrizeMilestone)
				So(board.Prizes[1].IsUnlocked, ShouldBeTrue)
				So(board.Prizes[0].IsUnlocked, ShouldBeFalse)
			})

			Convey("Then exactly one milestone notification is added", func() {
				milestones := notificationsOf(svc, model.NotificationMilestone)
				So(milestones, ShouldHaveLength, 1)
				So(milestones[0].AgentID, ShouldEqual, "1")
				So(milestones[0].Message, ShouldContainSubstring, "25K Club milestone reached!")
			})

			Convey("And approving it again adds no further milestone", func() {
				svc.UpdateDealStatus(ctx, "4", model.DealApproved)
				So(notificationsOf(svc, model.NotificationMilestone), ShouldHaveLength, 1)
			})

			Convey("And rejecting then re-approving it does not repeat the milestone", func() {
				So(svc.UpdateDealStatus(ctx, "4", model.DealRejected), ShouldBeTrue)
				So(svc.Leaderboard(ctx, "1", 0).Entries[0].Agent.ID, ShouldNotEqual, "1")
				So(svc.UpdateDealStatus(ctx, "4", model.DealApproved), ShouldBeTrue)

				So(svc.Leaderboard(ctx, "1", 0).Entries[0].HasBadge(leaderboard.Badge25K), ShouldBeTrue)
				So(notificationsOf(svc, model.NotificationMilestone), ShouldHaveLength, 1)
			})

			Convey("And reloading the dataset forgets what was announced", func() {
				svc.Load(ctx, seed.Demo())
				So(svc.ApplySubmission(ctx, model.Submission{
					ID: "5", AgentID: "1", ContestID: "1",
					Premium: decimal.NewFromInt(12000), LinesOfBusiness: []string{"Life"},
				}), ShouldBeNil)
				So(svc.UpdateDealStatus(ctx, "5", model.DealApproved), ShouldBeTrue)
				So(notificationsOf(svc, model.NotificationMilestone), ShouldHaveLength, 2)
			})
		})

		Convey("When an unknown deal is updated", func() {
			before := svc.Store().Snapshot().Version()
			ok := svc.UpdateDealStatus(ctx, "missing", model.DealApproved)

			Convey("Then it is a silent no-op", func() {
				So(ok, ShouldBeFalse)
				So(svc.Store().Snapshot().Version(), ShouldEqual, before)
			})
		})
	})
}

func TestService_Queries(t *testing.T) {
	Convey("Given the demo dataset", t, func() {
		svc := demoService(february)
		ctx := context.Background()

		Convey("Then agent deals are scoped to the contest", func() {
			So(svc.AgentDeals(ctx, "1", "1"), ShouldHaveLength, 1)
			So(svc.AgentDeals(ctx, "1", "4"), ShouldBeEmpty)
			So(svc.AgentDeals(ctx, "2", "1"), ShouldBeEmpty)
		})

		Convey("Then active battles carry progress", func() {
			battles := svc.ActiveBattles(ctx, "1")
			So(battles, ShouldHaveLength, 2)
			So(battles[0].Agent1Name, ShouldEqual, "Sarah Johnson")
			So(battles[0].Agent1Percentage+battles[0].Agent2Percentage, ShouldAlmostEqual, 100)
		})

		Convey("Then the countdown runs to the contest end", func() {
			cd, ok := svc.Countdown(ctx, "1")
			So(ok, ShouldBeTrue)
			So(cd.Ended, ShouldBeFalse)
			So(cd.Days, ShouldEqual, 59)

			_, ok = svc.Countdown(ctx, "missing")
			So(ok, ShouldBeFalse)
		})

		Convey("Then the current contest can be cleared and reselected", func() {
			So(currentContestGauge(), ShouldEqual, 1)

			svc.ClearContest(ctx)
			_, ok := svc.CurrentContest(ctx)
			So(ok, ShouldBeFalse)
			So(currentContestGauge(), ShouldEqual, 0)

			So(svc.SelectContest(ctx, "missing"), ShouldBeFalse)
			So(currentContestGauge(), ShouldEqual, 0)
			So(svc.SelectContest(ctx, "1"), ShouldBeTrue)
			c, ok := svc.CurrentContest(ctx)
			So(ok, ShouldBeTrue)
			So(c.ID, ShouldEqual, "1")
			So(currentContestGauge(), ShouldEqual, 1)
		})

		Convey("Then contests and agents are listed", func() {
			So(svc.Contests(ctx), ShouldHaveLength, 1)
			So(svc.Agents(ctx), ShouldHaveLength, 4)
		})
	})
}

func TestService_Notifications(t *testing.T) {
	Convey("Given a service with one submitted deal", t, func() {
		svc := demoService(february)
		ctx := context.Background()
		So(svc.ApplySubmission(ctx, model.Submission{
			ID: "n-1", AgentID: "2", ContestID: "1",
			Premium: decimal.NewFromInt(15000), LinesOfBusiness: []string{"Auto"},
		}), ShouldBeNil)

		Convey("Then it is announced in the feed", func() {
			unread := svc.Notifications(ctx, true)
			So(unread, ShouldHaveLength, 1)
			So(unread[0].Title, ShouldEqual, "New Deal Submitted")
			So(unread[0].Message, ShouldEqual, "$15,000 deal submitted by Mike Chen")
		})

		Convey("When it is marked read", func() {
			id := svc.Notifications(ctx, true)[0].ID
			So(svc.MarkNotificationRead(ctx, id), ShouldBeTrue)

			Convey("Then no unread notifications remain", func() {
				So(svc.Notifications(ctx, true), ShouldBeEmpty)
				So(svc.Notifications(ctx, false), ShouldHaveLength, 1)
			})
		})

		Convey("When an unknown notification is marked read", func() {
			Convey("Then it is reported as missing", func() {
				So(svc.MarkNotificationRead(ctx, "missing"), ShouldBeFalse)
			})
		})
	})
}

func TestService_SettleBattles(t *testing.T) {
	Convey("Given the demo battles after their end date", t, func() {
		svc := demoService(february)
		ctx := context.Background()

		Convey("When the battles are settled", func() {
			n := svc.SettleBattles(ctx)

			Convey("Then both active battles complete with a winner", func() {
				So(n, ShouldEqual, 2)
				So(svc.ActiveBattles(ctx, "1"), ShouldBeEmpty)
				b, ok := svc.Store().Snapshot().Battle("1")
				So(ok, ShouldBeTrue)
				So(b.Status, ShouldEqual, model.BattleCompleted)
				So(b.WinnerID, ShouldEqual, "1")
			})

			Convey("Then each result is announced", func() {
				announced := notificationsOf(svc, model.NotificationBattle)
				So(announced, ShouldHaveLength, 2)
				So(announced[0].Message, ShouldEqual, "Sarah Johnson beat Mike Chen $45,000 to $38,000")
			})

			Convey("And a second sweep settles nothing", func() {
				So(svc.SettleBattles(ctx), ShouldEqual, 0)
			})
		})
	})

	Convey("Given battles still running", t, func() {
		svc := demoService(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))

		Convey("Then nothing is settled", func() {
			So(svc.SettleBattles(context.Background()), ShouldEqual, 0)
			So(svc.ActiveBattles(context.Background(), "1"), ShouldHaveLength, 2)
		})
	})
}

func TestService_CloseContests(t *testing.T) {
	Convey("Given the demo contest after its end date", t, func() {
		svc := demoService(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))
		ctx := context.Background()

		Convey("When contests are swept", func() {
			n := svc.CloseContests(ctx)

			Convey("Then the contest is deactivated", func() {
				So(n, ShouldEqual, 1)
				c, _ := svc.CurrentContest(ctx)
				So(c.IsActive, ShouldBeFalse)
			})

			Convey("Then the leader is announced", func() {
				winners := notificationsOf(svc, model.NotificationWinner)
				So(winners, ShouldHaveLength, 1)
				So(winners[0].AgentID, ShouldEqual, "3")
				So(winners[0].Message, ShouldEqual, "Lisa Rodriguez won Q1 2024 Sales Blitz with $18,000")
			})

			Convey("And the leaderboard is still readable", func() {
				So(svc.Leaderboard(ctx, "1", 0).Entries, ShouldHaveLength, 4)
			})

			Convey("And a second sweep closes nothing", func() {
				So(svc.CloseContests(ctx), ShouldEqual, 0)
			})
		})
	})

	Convey("Given an ended contest without approved premium", t, func() {
		svc := demoService(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))
		ctx := context.Background()
		svc.Store().ReplaceDeals(ctx, nil)

		Convey("Then it closes without a winner", func() {
			So(svc.CloseContests(ctx), ShouldEqual, 1)
			So(notificationsOf(svc, model.NotificationWinner), ShouldBeEmpty)
		})
	})
}

func TestService_TV(t *testing.T) {
	Convey("Given the demo dataset", t, func() {
		svc := demoService(february)
		ctx := context.Background()

		Convey("Then the display starts on the leaderboard", func() {
			state := svc.TV(ctx)
			So(state.View, ShouldEqual, tv.ViewLeaderboard)
			So(state.ContestID, ShouldEqual, "1")
			board, ok := state.Payload.(types.Board)
			So(ok, ShouldBeTrue)
			So(board.Entries, ShouldHaveLength, 4)
		})

		Convey("When the display rotates through every view", func() {
			So(svc.RotateTV(ctx), ShouldEqual, tv.ViewBattles)
			So(svc.TV(ctx).Payload, ShouldHaveLength, 2)
			So(svc.RotateTV(ctx), ShouldEqual, tv.ViewCountdown)
			cd, ok := svc.TV(ctx).Payload.(tv.Countdown)
			So(ok, ShouldBeTrue)
			So(cd.Days, ShouldEqual, 59)
			So(svc.RotateTV(ctx), ShouldEqual, tv.ViewFeed)
			So(svc.TV(ctx).Payload, ShouldBeEmpty)

			Convey("Then it wraps around to the leaderboard", func() {
				So(svc.RotateTV(ctx), ShouldEqual, tv.ViewLeaderboard)
			})
		})

		Convey("When no contest is selected", func() {
			svc.ClearContest(ctx)

			Convey("Then contest views carry no payload", func() {
				state := svc.TV(ctx)
				So(state.ContestID, ShouldBeEmpty)
				So(state.Payload, ShouldBeNil)
			})
		})
	})
}

func TestService_Export(t *testing.T) {
	Convey("Given the demo dataset", t, func() {
		svc := demoService(february)
		ctx := context.Background()

		Convey("When exporting deals", func() {
			var buf bytes.Buffer
			err := svc.Export(ctx, export.KindDeals, "1", &buf)

			Convey("Then every deal is a row with the agent name", func() {
				So(err, ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
				So(lines, ShouldHaveLength, 4)
				So(buf.String(), ShouldContainSubstring, "Sarah Johnson")
			})
		})

		Convey("When exporting the leaderboard", func() {
			var buf bytes.Buffer
			err := svc.Export(ctx, export.KindLeaderboard, "1", &buf)

			Convey("Then rows follow the ranking", func() {
				So(err, ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
				So(lines, ShouldHaveLength, 5)
				So(lines[1], ShouldStartWith, "1,Lisa Rodriguez")
			})
		})

		Convey("When exporting agents", func() {
			var buf bytes.Buffer
			So(svc.Export(ctx, export.KindAgents, "", &buf), ShouldBeNil)
			So(strings.Count(buf.String(), "\n"), ShouldEqual, 5)
		})

		Convey("When exporting an unknown kind", func() {
			err := svc.Export(ctx, export.Kind("battles"), "", &bytes.Buffer{})

			Convey("Then the kind is rejected", func() {
				So(errors.Is(err, export.ErrUnknownKind), ShouldBeTrue)
			})
		})
	})
}
