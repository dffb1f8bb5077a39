package util

import (
	"regexp"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "chapter", "chapters"), ShouldEqual, "1 chapter")
		So(Quantify(2, "chapter", "chapters"), ShouldEqual, "2 chapters")
	})
}

func TestReGroups(t *testing.T) {
	Convey("ReGroups", t, func() {
		re := regexp.MustCompile(`(?P<height>\d+)(?P<suffix>p)`)
		groups := ReGroups(re, "1080p")
		So(groups["height"], ShouldEqual, "1080")
		So(groups["suffix"], ShouldEqual, "p")

		Convey("Should return empty map on no match", func() {
			So(ReGroups(re, "auto"), ShouldBeEmpty)
		})
	})
}

func TestMaxMin(t *testing.T) {
	Convey("Max/Min", t, func() {
		So(Max(1, 5, 2), ShouldEqual, 5)
		So(Min(1, 5, 2), ShouldEqual, 1)
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(5.0, 0.0, 10.0), ShouldEqual, 5.0)
		So(Clamp(-1.0, 0.0, 10.0), ShouldEqual, 0.0)
		So(Clamp(11.0, 0.0, 10.0), ShouldEqual, 10.0)
	})
}

func TestStack(t *testing.T) {
	Convey("Stack", t, func() {
		var s Stack[int]
		s.Push(1)
		s.Push(2)
		So(s.Len(), ShouldEqual, 2)
		So(s.Peek(), ShouldEqual, 2)
		item := s.Pop()
		So(item, ShouldEqual, 2)
		item = s.Pop()
		So(item, ShouldEqual, 1)
		item = s.Pop()
		So(item, ShouldEqual, 0)
	})
}
