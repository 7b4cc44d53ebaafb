package tally_test

import (
	"testing"

	"github.com/okian/eventops/internal/domain/tally"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAllows(t *testing.T) {
	Convey("Given a set filter", t, func() {
		Convey("When the set is empty", func() {
			So(tally.Allows[string](nil, "anything"), ShouldBeTrue)
			So(tally.Allows([]string{}, "anything"), ShouldBeTrue)
		})

		Convey("When the set has members", func() {
			set := []string{"high", "urgent"}
			So(tally.Allows(set, "high"), ShouldBeTrue)
			So(tally.Allows(set, "low"), ShouldBeFalse)
		})
	})
}

func TestSelectAndCount(t *testing.T) {
	Convey("Given a slice of numbers", t, func() {
		nums := []int{5, 1, 4, 2, 3}
		even := func(n int) bool { return n%2 == 0 }

		Convey("Then Select keeps matching items in order", func() {
			So(tally.Select(nums, even), ShouldResemble, []int{4, 2})
		})

		Convey("Then Select returns an empty, non-nil slice when nothing matches", func() {
			out := tally.Select(nums, func(int) bool { return false })
			So(out, ShouldNotBeNil)
			So(out, ShouldBeEmpty)
		})

		Convey("Then Count agrees with Select", func() {
			So(tally.Count(nums, even), ShouldEqual, 2)
		})
	})
}

func TestCountBy(t *testing.T) {
	Convey("Given items keyed by a closed set", t, func() {
		items := []string{"a", "b", "a", "z"}
		keys := []string{"a", "b", "c"}

		counts := tally.CountBy(items, keys, func(s string) string { return s })

		Convey("Then every key is present and unknown keys are ignored", func() {
			So(counts, ShouldResemble, map[string]int{"a": 2, "b": 1, "c": 0})
		})
	})
}
