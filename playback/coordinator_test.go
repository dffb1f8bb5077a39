package playback

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/miru-player/miru/config"
	"github.com/miru-player/miru/filesystem"
	"github.com/miru-player/miru/key"
	"github.com/miru-player/miru/media"
	"github.com/miru-player/miru/player"
	"github.com/miru-player/miru/pref"
	"github.com/samber/lo"
)

func init() {
	filesystem.SetMemMapFs()
	lo.Must0(config.Setup())
}

func testDescriptor() *media.Descriptor {
	return &media.Descriptor{
		ID:       "vid-1",
		Title:    "Voyage",
		Duration: 100,
		Renditions: []media.Rendition{
			{Height: 240, Label: "240p", URL: "https://cdn.example.com/v/240.mp4"},
			{Height: 480, Label: "480p", URL: "https://cdn.example.com/v/480.mp4"},
			{Height: 720, Label: "720p", URL: "https://cdn.example.com/v/720.mp4"},
		},
		Chapters: []media.RawChapter{
			{Start: 0, End: 5, Title: "Intro"},
			{Start: 5, End: 10, Title: "Body"},
		},
		Related: []media.Related{
			{ID: "vid-2", Title: "Voyage II", URL: "https://example.com/vid-2"},
		},
	}
}

func TestCoordinator(t *testing.T) {
	Convey("Coordinator", t, func() {
		filesystem.SetMemMapFs()
		store := pref.NewStore()
		engine := player.NewHeadless(100, nil)

		Convey("walks the lifecycle state machine", func() {
			c := NewCoordinator(Options{Prefs: store})
			So(c.State(), ShouldEqual, StateUninitialized)

			So(c.Attach(engine, testDescriptor()), ShouldBeNil)
			So(c.State(), ShouldEqual, StateInitializing)

			engine.Load()
			So(c.State(), ShouldEqual, StatePlaying) // autoplay succeeded

			So(engine.Pause(), ShouldBeNil)
			So(c.State(), ShouldEqual, StatePaused)

			engine.AdvanceTo(100)
			So(c.State(), ShouldEqual, StateEnded)

			c.Dispose()
			So(c.State(), ShouldEqual, StateDisposed)
		})

		Convey("rejects a second player", func() {
			c := NewCoordinator(Options{Prefs: store})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)
			So(c.Attach(player.NewHeadless(10, nil), testDescriptor()), ShouldNotBeNil)
		})

		Convey("rejects attaching after disposal", func() {
			c := NewCoordinator(Options{Prefs: store})
			c.Dispose()
			So(c.Attach(engine, testDescriptor()), ShouldNotBeNil)
		})

		Convey("loads the playlist for the stored quality", func() {
			store.Set(key.PlaybackQuality, "480p", true)

			c := NewCoordinator(Options{Prefs: store})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)

			sources := engine.Sources()
			So(len(sources), ShouldEqual, 1)
			So(sources[0].Label, ShouldEqual, "480p")
			So(sources[0].URL, ShouldEqual, "https://cdn.example.com/v/480.mp4")
		})

		Convey("an absent quality falls back to the descending ladder", func() {
			store.Set(key.PlaybackQuality, "1080p", true)

			c := NewCoordinator(Options{Prefs: store})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)

			labels := lo.Map(engine.Sources(), func(s player.Source, _ int) string { return s.Label })
			So(labels, ShouldResemble, []string{"720p", "480p", "240p"})
		})

		Convey("normalizes chapters on attach", func() {
			c := NewCoordinator(Options{Prefs: store})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)

			chapters := c.Chapters()
			So(len(chapters), ShouldEqual, 2)
			So(chapters[0].Title, ShouldEqual, "Intro")
			So(chapters[1].End, ShouldEqual, 10.0)
		})

		Convey("SetQuality swaps sources without losing the position", func() {
			c := NewCoordinator(Options{Prefs: store})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)
			engine.Load()

			So(engine.Seek(42), ShouldBeNil)
			c.SetQuality("240p")

			sources := engine.Sources()
			So(len(sources), ShouldEqual, 1)
			So(sources[0].Label, ShouldEqual, "240p")

			pos, err := engine.CurrentTime()
			So(err, ShouldBeNil)
			So(pos, ShouldEqual, 42.0)
		})

		Convey("invokes OnPlayerInit exactly once, after ready", func() {
			inits := 0
			c := NewCoordinator(Options{
				Prefs:        store,
				OnPlayerInit: func(player.Player) { inits++ },
			})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)

			engine.Load()
			engine.Load()

			So(inits, ShouldEqual, 1)
		})

		Convey("invokes OnCompletion once past the threshold", func() {
			completions := 0
			c := NewCoordinator(Options{
				Prefs:        store,
				OnCompletion: func() { completions++ },
			})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)

			engine.AdvanceTo(50)
			So(completions, ShouldEqual, 0)

			engine.AdvanceTo(85)
			engine.AdvanceTo(90)
			So(completions, ShouldEqual, 1)
		})

		Convey("applies the stored subtitle preference on every readiness event", func() {
			subbed := player.NewHeadless(100, []player.TextTrack{
				{ID: "en", Language: "en", Label: "English"},
			})
			store.Set(key.SubtitlesEnabled, true, true)
			store.Set(key.SubtitlesLanguage, "en-GB", true)

			c := NewCoordinator(Options{Prefs: store})
			So(c.Attach(subbed, testDescriptor()), ShouldBeNil)

			subbed.Load()
			So(subbed.SelectedTextTrack(), ShouldEqual, "en")

			// A later readiness event must not double-toggle.
			subbed.Load()
			So(subbed.SelectedTextTrack(), ShouldEqual, "en")
		})

		Convey("Dispose detaches every listener and is idempotent", func() {
			c := NewCoordinator(Options{Prefs: store})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)
			engine.Load()

			c.Dispose()
			c.Dispose()

			for _, ev := range []player.Event{
				player.EventReady, player.EventPlay, player.EventPause,
				player.EventEnded, player.EventLoadedMetadata, player.EventCanPlay,
				player.EventTimeUpdate, player.EventSeeked, player.EventKeyPress,
				player.EventTextTrackChange, player.EventQualityChange,
				player.EventNextVideo, player.EventOrientationChange,
				player.EventDispose,
			} {
				So(engine.ListenerCount(ev), ShouldEqual, 0)
			}

			// Nothing reacts on a disposed coordinator.
			engine.Emit(player.EventEnded, nil)
			So(c.State(), ShouldEqual, StateDisposed)
		})

		Convey("player disposal tears the coordinator down", func() {
			c := NewCoordinator(Options{Prefs: store})
			So(c.Attach(engine, testDescriptor()), ShouldBeNil)

			So(engine.Dispose(), ShouldBeNil)

			So(c.State(), ShouldEqual, StateDisposed)
		})
	})
}

func TestRegistry(t *testing.T) {
	Convey("Registry", t, func() {
		registry := NewRegistry()
		store := pref.NewStore()

		Convey("registers, looks up, and removes coordinators", func() {
			c := NewCoordinator(Options{Prefs: store})
			So(registry.Register("vid-1", c), ShouldBeNil)

			got, ok := registry.Lookup("vid-1")
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, c)

			registry.Remove("vid-1")
			_, ok = registry.Lookup("vid-1")
			So(ok, ShouldBeFalse)
			So(c.State(), ShouldEqual, StateDisposed)
		})

		Convey("rejects duplicate ids", func() {
			So(registry.Register("vid-1", NewCoordinator(Options{Prefs: store})), ShouldBeNil)
			So(registry.Register("vid-1", NewCoordinator(Options{Prefs: store})), ShouldNotBeNil)
		})

		Convey("removing an unknown id is a no-op", func() {
			registry.Remove("missing")
			So(registry.IDs(), ShouldBeEmpty)
		})

		Convey("Close disposes everything", func() {
			a := NewCoordinator(Options{Prefs: store})
			b := NewCoordinator(Options{Prefs: store})
			So(registry.Register("a", a), ShouldBeNil)
			So(registry.Register("b", b), ShouldBeNil)
			So(registry.IDs(), ShouldResemble, []string{"a", "b"})

			registry.Close()

			So(registry.IDs(), ShouldBeEmpty)
			So(a.State(), ShouldEqual, StateDisposed)
			So(b.State(), ShouldEqual, StateDisposed)
		})
	})
}
