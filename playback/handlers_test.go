package playback

import (
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/miru-player/miru/filesystem"
	"github.com/miru-player/miru/key"
	"github.com/miru-player/miru/media"
	"github.com/miru-player/miru/player"
	"github.com/miru-player/miru/pref"
)

// rejectingEngine simulates a browser autoplay policy: unmuted play is
// denied, muted play goes through.
type rejectingEngine struct {
	*player.Headless

	attempts      int
	mutedAttempts int
}

func (e *rejectingEngine) Play() error {
	e.attempts++
	if !e.Muted() {
		return fmt.Errorf("autoplay policy denied")
	}
	e.mutedAttempts++
	return e.Headless.Play()
}

// recordingView captures every view mutation for assertions.
type recordingView struct {
	mu         sync.Mutex
	indicators []Indicator
	hides      int
	endScreens []*media.Related
	endHides   int
	landscapes []bool
}

// viewSnapshot is a lock-free copy of a recordingView's state.
type viewSnapshot struct {
	indicators []Indicator
	hides      int
	endScreens []*media.Related
	endHides   int
	landscapes []bool
}

func (v *recordingView) ShowIndicator(kind Indicator) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.indicators = append(v.indicators, kind)
}

func (v *recordingView) HideIndicator() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hides++
}

func (v *recordingView) ShowEndScreen(next *media.Related) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endScreens = append(v.endScreens, next)
}

func (v *recordingView) HideEndScreen() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endHides++
}

func (v *recordingView) ApplyOrientation(landscape bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.landscapes = append(v.landscapes, landscape)
}

func (v *recordingView) snapshot() viewSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return viewSnapshot{
		indicators: append([]Indicator(nil), v.indicators...),
		hides:      v.hides,
		endScreens: append([]*media.Related(nil), v.endScreens...),
		endHides:   v.endHides,
		landscapes: append([]bool(nil), v.landscapes...),
	}
}

func TestAutoplayHandler(t *testing.T) {
	Convey("Autoplay handler", t, func() {
		filesystem.SetMemMapFs()
		store := pref.NewStore()

		Convey("starts playback unmuted when the engine allows it", func() {
			engine := player.NewHeadless(100, nil)
			c := NewCoordinator(Options{Prefs: store})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)

			engine.Load()

			paused, _ := engine.Paused()
			So(paused, ShouldBeFalse)
			So(engine.Muted(), ShouldBeFalse)
		})

		Convey("retries exactly once, muted, on rejection", func() {
			engine := &rejectingEngine{Headless: player.NewHeadless(100, nil)}
			c := NewCoordinator(Options{Prefs: store})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)

			engine.Load()

			So(engine.attempts, ShouldEqual, 2)
			So(engine.mutedAttempts, ShouldEqual, 1)
			So(engine.Muted(), ShouldBeTrue)

			paused, _ := engine.Paused()
			So(paused, ShouldBeFalse)
		})

		Convey("is skipped in embed mode", func() {
			engine := player.NewHeadless(100, nil)
			c := NewCoordinator(Options{Prefs: store, Mode: ModeEmbed})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)

			engine.Load()

			paused, _ := engine.Paused()
			So(paused, ShouldBeTrue)
			So(c.State(), ShouldEqual, StateReady)
		})

		Convey("honors a disabled autoplay preference", func() {
			store.Set(key.PlaybackAutoplay, false, true)
			engine := player.NewHeadless(100, nil)
			c := NewCoordinator(Options{Prefs: store})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)

			engine.Load()

			paused, _ := engine.Paused()
			So(paused, ShouldBeTrue)
		})
	})
}

func TestKeyboardHandler(t *testing.T) {
	Convey("Keyboard handler", t, func() {
		filesystem.SetMemMapFs()
		store := pref.NewStore()
		engine := player.NewHeadless(100, nil)

		c := NewCoordinator(Options{Prefs: store})
		So(c.Attach(engine, testDescriptor()), ShouldBeNil)
		engine.Load()

		position := func() float64 {
			pos, _ := engine.CurrentTime()
			return pos
		}

		Convey("seeks by the configured step", func() {
			engine.Emit(player.EventKeyPress, player.KeyPress{Key: "right"})
			So(position(), ShouldEqual, 5.0)

			engine.Emit(player.EventKeyPress, player.KeyPress{Key: "l"})
			So(position(), ShouldEqual, 10.0)

			engine.Emit(player.EventKeyPress, player.KeyPress{Key: "left"})
			So(position(), ShouldEqual, 5.0)
		})

		Convey("clamps seeks to the media bounds", func() {
			engine.Emit(player.EventKeyPress, player.KeyPress{Key: "left"})
			So(position(), ShouldEqual, 0.0)

			So(engine.Seek(98), ShouldBeNil)
			engine.Emit(player.EventKeyPress, player.KeyPress{Key: "right"})
			So(position(), ShouldEqual, 100.0)
		})

		Convey("toggles play/pause, mute, and fullscreen", func() {
			engine.Emit(player.EventKeyPress, player.KeyPress{Key: " "})
			paused, _ := engine.Paused()
			So(paused, ShouldBeTrue)

			engine.Emit(player.EventKeyPress, player.KeyPress{Key: " "})
			paused, _ = engine.Paused()
			So(paused, ShouldBeFalse)

			engine.Emit(player.EventKeyPress, player.KeyPress{Key: "m"})
			So(engine.Muted(), ShouldBeTrue)

			engine.Emit(player.EventKeyPress, player.KeyPress{Key: "f"})
			So(engine.Fullscreen(), ShouldBeTrue)
		})

		Convey("ignores keystrokes from text-entry controls", func() {
			engine.Emit(player.EventKeyPress, player.KeyPress{Key: "right", FromTextInput: true})
			So(position(), ShouldEqual, 0.0)
		})

		Convey("unbinds on teardown", func() {
			c.Dispose()

			engine.Emit(player.EventKeyPress, player.KeyPress{Key: "right"})
			So(position(), ShouldEqual, 0.0)
		})
	})
}

func TestIndicatorHandler(t *testing.T) {
	Convey("Indicator handler", t, func() {
		filesystem.SetMemMapFs()
		store := pref.NewStore()
		store.Set(key.PlaybackIndicatorHideAfterMs, 20.0, true)

		view := &recordingView{}
		engine := player.NewHeadless(100, nil)

		c := NewCoordinator(Options{Prefs: store, Mode: ModeEmbed, View: view})
		So(c.Attach(engine, testDescriptor()), ShouldBeNil)
		engine.Load()

		Convey("flashes play, pause, and directional seek indicators", func() {
			So(engine.Play(), ShouldBeNil)
			So(engine.Pause(), ShouldBeNil)
			So(engine.Seek(30), ShouldBeNil)
			So(engine.Seek(10), ShouldBeNil)

			got := view.snapshot()
			So(got.indicators, ShouldResemble, []Indicator{
				IndicatorPlay, IndicatorPause, IndicatorSeekForward, IndicatorSeekBack,
			})
		})

		Convey("hides after the configured interval", func() {
			So(engine.Play(), ShouldBeNil)

			time.Sleep(60 * time.Millisecond)

			So(view.snapshot().hides, ShouldEqual, 1)
		})

		Convey("debounces: rapid actions produce one delayed hide", func() {
			So(engine.Seek(10), ShouldBeNil)
			So(engine.Seek(20), ShouldBeNil)
			So(engine.Seek(30), ShouldBeNil)

			time.Sleep(60 * time.Millisecond)

			So(view.snapshot().hides, ShouldEqual, 1)
		})
	})
}

func TestEndScreenHandler(t *testing.T) {
	Convey("EndScreen handler", t, func() {
		filesystem.SetMemMapFs()
		store := pref.NewStore()
		view := &recordingView{}

		Convey("surfaces the next item when playback ends", func() {
			var clicked *media.Related
			engine := player.NewHeadless(100, nil)
			c := NewCoordinator(Options{
				Prefs:       store,
				View:        view,
				OnClickNext: func(next *media.Related) { clicked = next },
			})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)

			engine.AdvanceTo(100)

			got := view.snapshot()
			So(len(got.endScreens), ShouldEqual, 1)
			So(got.endScreens[0].ID, ShouldEqual, "vid-2")

			engine.Emit(player.EventNextVideo, nil)

			So(view.snapshot().endHides, ShouldEqual, 1)
			So(clicked, ShouldNotBeNil)
			So(clicked.ID, ShouldEqual, "vid-2")
		})

		Convey("passes nil when no related item exists", func() {
			engine := player.NewHeadless(100, nil)
			d := testDescriptor()
			d.Related = nil

			c := NewCoordinator(Options{Prefs: store, View: view})
			So(c.Attach(engine, d), ShouldBeNil)

			engine.AdvanceTo(100)

			got := view.snapshot()
			So(len(got.endScreens), ShouldEqual, 1)
			So(got.endScreens[0], ShouldBeNil)

			// Navigation without a next item goes nowhere.
			engine.Emit(player.EventNextVideo, nil)
			So(view.snapshot().endHides, ShouldEqual, 0)
		})

		Convey("does nothing in embed mode", func() {
			engine := player.NewHeadless(100, nil)
			c := NewCoordinator(Options{Prefs: store, View: view, Mode: ModeEmbed})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)

			engine.AdvanceTo(100)

			So(view.snapshot().endScreens, ShouldBeEmpty)
		})
	})
}

func TestOrientationHandler(t *testing.T) {
	Convey("Orientation handler", t, func() {
		filesystem.SetMemMapFs()
		store := pref.NewStore()
		view := &recordingView{}

		Convey("enters fullscreen on landscape while playing", func() {
			engine := player.NewHeadless(100, nil)
			c := NewCoordinator(Options{
				Prefs:  store,
				View:   view,
				Device: Device{Touch: true},
			})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)
			engine.Load()

			engine.Emit(player.EventOrientationChange, player.Orientation{Landscape: true})

			So(engine.Fullscreen(), ShouldBeTrue)
			So(view.snapshot().landscapes, ShouldResemble, []bool{true})

			engine.Emit(player.EventOrientationChange, player.Orientation{Landscape: false})

			So(engine.Fullscreen(), ShouldBeFalse)
		})

		Convey("stays windowed when paused", func() {
			engine := player.NewHeadless(100, nil)
			c := NewCoordinator(Options{
				Prefs:  store,
				View:   view,
				Mode:   ModeEmbed, // no autoplay, player stays paused
				Device: Device{Touch: true},
			})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)
			engine.Load()

			engine.Emit(player.EventOrientationChange, player.Orientation{Landscape: true})

			So(engine.Fullscreen(), ShouldBeFalse)
		})

		Convey("is a no-op on non-touch devices", func() {
			engine := player.NewHeadless(100, nil)
			c := NewCoordinator(Options{Prefs: store, View: view})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)
			engine.Load()

			engine.Emit(player.EventOrientationChange, player.Orientation{Landscape: true})

			So(engine.Fullscreen(), ShouldBeFalse)
			So(view.snapshot().landscapes, ShouldBeEmpty)
		})
	})
}
