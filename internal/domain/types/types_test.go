package types_test

import (
	"testing"

	"github.com/okian/battlegrounds/internal/domain/model"
	types "github.com/okian/battlegrounds/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given an Entry with badges", t, func() {
		entry := types.Entry{
			Rank:   1,
			Agent:  model.Agent{ID: "3", Name: "Lisa Rodriguez"},
			Badges: []types.Badge{{ID: "25k", Name: "25K Club"}},
		}

		Convey("Then HasBadge matches by id", func() {
			So(entry.HasBadge("25k"), ShouldBeTrue)
			So(entry.HasBadge("goal"), ShouldBeFalse)
		})

		Convey("When the entry has no badges", func() {
			So(types.Entry{}.HasBadge("25k"), ShouldBeFalse)
		})
	})
}

func TestStandingsTop(t *testing.T) {
	Convey("Given standings with three entries", t, func() {
		s := types.Standings{ContestID: "1", Found: true, Entries: []types.Entry{{Rank: 1}, {Rank: 2}, {Rank: 3}}}

		Convey("When limiting to two", func() {
			So(len(s.Top(2)), ShouldEqual, 2)
			So(s.Top(2)[1].Rank, ShouldEqual, 2)
		})

		Convey("When the limit is zero or too large", func() {
			So(len(s.Top(0)), ShouldEqual, 3)
			So(len(s.Top(10)), ShouldEqual, 3)
		})

		Convey("When standings are empty", func() {
			So(types.Standings{}.Top(5), ShouldBeEmpty)
		})
	})
}
