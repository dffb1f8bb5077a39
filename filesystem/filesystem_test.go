package filesystem

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBackends(t *testing.T) {
	Convey("Filesystem backends", t, func() {
		Convey("SetMemMapFs should install an in-memory backend", func() {
			SetMemMapFs()
			So(API().Name(), ShouldEqual, "MemMapFS")

			err := API().WriteFile("/probe.txt", []byte("ok"), 0644)
			So(err, ShouldBeNil)

			data, err := API().ReadFile("/probe.txt")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "ok")
		})

		Convey("SetOsFs should restore the OS backend", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
			SetMemMapFs()
		})
	})
}
