package leaderboard_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/battlegrounds/internal/domain/leaderboard"
	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/internal/domain/types"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func usd(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func deal(id, agentID string, premium int64, status model.DealStatus) model.Deal {
	return model.Deal{ID: id, AgentID: agentID, ContestID: "c1", Premium: usd(premium), Status: status}
}

func fixture() (model.Contest, []model.Agent, []model.Deal) {
	contest := model.Contest{ID: "c1", Goal: usd(500000), Participants: []string{"a1", "a2", "a3"}}
	agents := []model.Agent{
		{ID: "a1", Name: "Sarah Johnson"},
		{ID: "a2", Name: "Mike Chen"},
		{ID: "a3", Name: "Lisa Rodriguez"},
	}
	deals := []model.Deal{
		deal("d1", "a1", 15000, model.DealApproved),
		deal("d2", "a2", 12000, model.DealApproved),
		deal("d3", "a3", 18000, model.DealApproved),
		deal("d4", "a1", 50000, model.DealPending),
	}
	return contest, agents, deals
}

func badgeIDs(e types.Entry) []string {
	ids := make([]string, 0, len(e.Badges))
	for _, b := range e.Badges {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestComputeScenarios(t *testing.T) {
	Convey("Given a $500,000 contest with three participants", t, func() {
		contest, agents, deals := fixture()
		rules := leaderboard.DefaultRules()

		Convey("When the leaderboard is computed", func() {
			entries := leaderboard.Compute(contest, agents, deals, rules)

			Convey("Then agents are ranked by approved premium only", func() {
				So(entries, ShouldHaveLength, 3)
				So(entries[0].Agent.ID, ShouldEqual, "a3")
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].TotalPremium.Equal(usd(18000)), ShouldBeTrue)
				So(entries[0].GoalPercentage, ShouldEqual, 3.6)

				So(entries[1].Agent.ID, ShouldEqual, "a1")
				So(entries[1].Rank, ShouldEqual, 2)
				So(entries[1].TotalPremium.Equal(usd(15000)), ShouldBeTrue)
				So(entries[1].DealCount, ShouldEqual, 1)
				So(entries[1].GoalPercentage, ShouldEqual, 3.0)

				So(entries[2].Agent.ID, ShouldEqual, "a2")
				So(entries[2].Rank, ShouldEqual, 3)
				So(entries[2].GoalPercentage, ShouldEqual, 2.4)
			})

			Convey("Then no badges are awarded", func() {
				for _, e := range entries {
					So(e.Badges, ShouldBeEmpty)
				}
			})
		})

		Convey("When a1 gets another approved $12,000 deal", func() {
			before := leaderboard.Compute(contest, agents, deals, rules)
			deals = append(deals, deal("d5", "a1", 12000, model.DealApproved))
			after := leaderboard.Compute(contest, agents, deals, rules)

			Convey("Then a1 moves to rank 1 with the 25K Club badge", func() {
				So(after[0].Agent.ID, ShouldEqual, "a1")
				So(after[0].TotalPremium.Equal(usd(27000)), ShouldBeTrue)
				So(after[0].DealCount, ShouldEqual, 2)
				So(badgeIDs(after[0]), ShouldResemble, []string{leaderboard.Badge25K})
			})

			Convey("Then the others shift down with unchanged badges", func() {
				So(after[1].Agent.ID, ShouldEqual, "a3")
				So(after[1].Rank, ShouldEqual, 2)
				So(after[1].Badges, ShouldBeEmpty)
				So(after[2].Agent.ID, ShouldEqual, "a2")
				So(after[2].Rank, ShouldEqual, 3)
				So(after[2].Badges, ShouldBeEmpty)
			})

			Convey("Then the new badge is reported as newly earned", func() {
				awards := leaderboard.NewlyEarned(before, after)
				So(awards, ShouldHaveLength, 1)
				So(awards[0].Agent.ID, ShouldEqual, "a1")
				So(awards[0].Badge.Name, ShouldEqual, "25K Club")
			})
		})
	})
}

func TestApprovedOnlyAggregation(t *testing.T) {
	Convey("Given deals in every status and another contest", t, func() {
		contest, agents, _ := fixture()
		deals := []model.Deal{
			deal("d1", "a1", 1000, model.DealApproved),
			deal("d2", "a1", 2000, model.DealApproved),
			deal("d3", "a1", 4000, model.DealPending),
			deal("d4", "a1", 8000, model.DealRejected),
			{ID: "d5", AgentID: "a1", ContestID: "other", Premium: usd(16000), Status: model.DealApproved},
		}

		entries := leaderboard.Compute(contest, agents, deals, leaderboard.DefaultRules())

		Convey("Then only approved deals of the contest are summed and counted", func() {
			So(entries[0].Agent.ID, ShouldEqual, "a1")
			So(entries[0].TotalPremium.Equal(usd(3000)), ShouldBeTrue)
			So(entries[0].DealCount, ShouldEqual, 2)
		})
	})
}

func TestEligibility(t *testing.T) {
	Convey("Given an agent who is not a participant but has deals", t, func() {
		contest, agents, deals := fixture()
		agents = append(agents, model.Agent{ID: "a4", Name: "David Kim"})
		deals = append(deals, deal("d9", "a4", 90000, model.DealApproved))

		entries := leaderboard.Compute(contest, agents, deals, leaderboard.DefaultRules())

		Convey("Then the agent never appears", func() {
			So(entries, ShouldHaveLength, 3)
			for _, e := range entries {
				So(e.Agent.ID, ShouldNotEqual, "a4")
			}
		})
	})

	Convey("Given a participant id with no matching agent", t, func() {
		contest, agents, deals := fixture()
		contest.Participants = append(contest.Participants, "ghost")

		Convey("Then it produces no entry", func() {
			So(leaderboard.Compute(contest, agents, deals, nil), ShouldHaveLength, 3)
		})
	})

	Convey("Given a participant with no deals", t, func() {
		contest, agents, _ := fixture()
		entries := leaderboard.Compute(contest, agents, nil, leaderboard.DefaultRules())

		Convey("Then every participant appears with zero activity", func() {
			So(entries, ShouldHaveLength, 3)
			for _, e := range entries {
				So(e.TotalPremium.IsZero(), ShouldBeTrue)
				So(e.DealCount, ShouldEqual, 0)
				So(e.GoalPercentage, ShouldEqual, 0)
				So(e.Badges, ShouldNotBeNil)
			}
		})
	})
}

func TestTiesAndDeterminism(t *testing.T) {
	Convey("Given two agents with identical totals", t, func() {
		contest, agents, _ := fixture()
		deals := []model.Deal{
			deal("d1", "a2", 5000, model.DealApproved),
			deal("d2", "a1", 5000, model.DealApproved),
		}

		first := leaderboard.Compute(contest, agents, deals, leaderboard.DefaultRules())
		second := leaderboard.Compute(contest, agents, deals, leaderboard.DefaultRules())

		Convey("Then ranks are distinct and follow agent order", func() {
			So(first[0].Agent.ID, ShouldEqual, "a1")
			So(first[0].Rank, ShouldEqual, 1)
			So(first[1].Agent.ID, ShouldEqual, "a2")
			So(first[1].Rank, ShouldEqual, 2)
			So(first[2].Rank, ShouldEqual, 3)
		})

		Convey("Then repeated calls produce identical output", func() {
			So(cmp.Diff(first, second), ShouldBeEmpty)
		})
	})
}

func TestBadgeRules(t *testing.T) {
	cases := []struct {
		name  string
		total int64
		goal  int64
		want  []string
		pct   float64
	}{
		{"below every tier", 24999, 500000, []string{}, 4.9998},
		{"exactly 25k", 25000, 500000, []string{leaderboard.Badge25K}, 5},
		{"31k against 40k goal", 31000, 40000, []string{leaderboard.Badge25K, leaderboard.Badge30K}, 77.5},
		{"goal reached below 25k", 20000, 20000, []string{leaderboard.BadgeGoal}, 100},
		{"every badge", 40000, 40000, []string{leaderboard.Badge25K, leaderboard.Badge30K, leaderboard.BadgeGoal}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			contest := model.Contest{ID: "c1", Goal: usd(tc.goal), Participants: []string{"a1"}}
			entries := leaderboard.Compute(contest, []model.Agent{{ID: "a1"}},
				[]model.Deal{deal("d1", "a1", tc.total, model.DealApproved)}, leaderboard.DefaultRules())
			if diff := cmp.Diff(tc.want, badgeIDs(entries[0])); diff != "" {
				t.Errorf("badges mismatch (-want +got):\n%s", diff)
			}
			if math.Abs(entries[0].GoalPercentage-tc.pct) > 1e-9 {
				t.Errorf("goal percentage = %v, want %v", entries[0].GoalPercentage, tc.pct)
			}
		})
	}
}

func TestGoalZeroSafety(t *testing.T) {
	Convey("Given contests with zero and negative goals", t, func() {
		_, agents, deals := fixture()
		for _, goal := range []int64{0, -100} {
			contest := model.Contest{ID: "c1", Goal: usd(goal), Participants: []string{"a1", "a2", "a3"}}
			entries := leaderboard.Compute(contest, agents, deals, leaderboard.DefaultRules())

			for _, e := range entries {
				So(e.GoalPercentage, ShouldEqual, 0)
				So(math.IsNaN(e.GoalPercentage), ShouldBeFalse)
				So(e.HasBadge(leaderboard.BadgeGoal), ShouldBeFalse)
			}
		}
	})
}

func TestInputsAreNotMutated(t *testing.T) {
	Convey("Given inputs and a copy of them", t, func() {
		contest, agents, deals := fixture()
		agentsCopy := append([]model.Agent(nil), agents...)
		dealsCopy := append([]model.Deal(nil), deals...)

		entries := leaderboard.Compute(contest, agents, deals, leaderboard.DefaultRules())
		entries[0].Agent.Name = "changed"

		So(cmp.Diff(agentsCopy, agents), ShouldBeEmpty)
		So(cmp.Diff(dealsCopy, deals), ShouldBeEmpty)
	})
}

func TestForContest(t *testing.T) {
	Convey("Given a contest collection", t, func() {
		contest, agents, deals := fixture()
		empty := model.Contest{ID: "c2", Goal: usd(1000)}
		contests := []model.Contest{contest, empty}

		Convey("When the contest is unknown", func() {
			s := leaderboard.ForContest("nope", contests, agents, deals, leaderboard.DefaultRules())
			So(s.Found, ShouldBeFalse)
			So(s.Entries, ShouldBeEmpty)
		})

		Convey("When the contest has no participants", func() {
			s := leaderboard.ForContest("c2", contests, agents, deals, leaderboard.DefaultRules())
			So(s.Found, ShouldBeTrue)
			So(s.Entries, ShouldBeEmpty)
		})

		Convey("When the contest exists", func() {
			s := leaderboard.ForContest("c1", contests, agents, deals, leaderboard.DefaultRules())
			So(s.Found, ShouldBeTrue)
			So(s.ContestID, ShouldEqual, "c1")
			So(s.Entries, ShouldHaveLength, 3)
		})
	})
}
