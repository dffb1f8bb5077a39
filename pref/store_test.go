package pref

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/miru-player/miru/config"
	"github.com/miru-player/miru/filesystem"
	"github.com/miru-player/miru/key"
	"github.com/miru-player/miru/player"
	"github.com/samber/lo"
)

func init() {
	filesystem.SetMemMapFs()
	lo.Must0(config.Setup())
}

func TestStore(t *testing.T) {
	Convey("Store", t, func() {
		filesystem.SetMemMapFs()
		store := NewStore()

		Convey("falls back to the configured default", func() {
			So(store.GetString(key.PlaybackQuality), ShouldEqual, "auto")
			So(store.Explicit(key.PlaybackQuality), ShouldBeFalse)
		})

		Convey("round-trips an explicit value", func() {
			store.Set(key.PlaybackQuality, "720p", true)

			So(store.GetString(key.PlaybackQuality), ShouldEqual, "720p")
			So(store.Explicit(key.PlaybackQuality), ShouldBeTrue)

			Convey("and a fresh store reads it back from disk", func() {
				So(NewStore().GetString(key.PlaybackQuality), ShouldEqual, "720p")
			})
		})

		Convey("an inferred write never overrides an explicit one", func() {
			store.Set(key.SubtitlesLanguage, "pt-BR", true)
			store.Set(key.SubtitlesLanguage, "en", false)

			So(store.GetString(key.SubtitlesLanguage), ShouldEqual, "pt-BR")
		})

		Convey("an explicit write overrides an inferred one", func() {
			store.Set(key.SubtitlesLanguage, "en", false)
			store.Set(key.SubtitlesLanguage, "ja", true)

			So(store.GetString(key.SubtitlesLanguage), ShouldEqual, "ja")
		})

		Convey("subscribers are notified with the changed key", func() {
			var keys []string
			off := store.Subscribe(func(k string) { keys = append(keys, k) })

			store.Set(key.SubtitlesEnabled, true, true)
			off()
			store.Set(key.SubtitlesEnabled, false, true)

			So(keys, ShouldResemble, []string{key.SubtitlesEnabled})
		})
	})
}

func TestMatchLanguage(t *testing.T) {
	Convey("MatchLanguage", t, func() {
		Convey("matches exact tags case-insensitively", func() {
			So(MatchLanguage("en", "EN"), ShouldBeTrue)
			So(MatchLanguage("pt-BR", "pt-br"), ShouldBeTrue)
		})

		Convey("matches across locale subtags in both directions", func() {
			So(MatchLanguage("en", "en-US"), ShouldBeTrue)
			So(MatchLanguage("en-US", "en"), ShouldBeTrue)
		})

		Convey("rejects unrelated tags", func() {
			So(MatchLanguage("en", "es"), ShouldBeFalse)
			So(MatchLanguage("en", "ens"), ShouldBeFalse)
			So(MatchLanguage("", "en"), ShouldBeFalse)
		})
	})
}

func TestApplyTo(t *testing.T) {
	Convey("ApplyTo", t, func() {
		filesystem.SetMemMapFs()
		store := NewStore()
		engine := player.NewHeadless(60, []player.TextTrack{
			{ID: "en-US", Language: "en-US", Label: "English"},
			{ID: "ja", Language: "ja", Label: "日本語"},
		})

		Convey("selects the track matching the stored language", func() {
			store.Set(key.SubtitlesEnabled, true, true)
			store.Set(key.SubtitlesLanguage, "en", true)

			store.ApplyTo(engine)

			So(engine.SelectedTextTrack(), ShouldEqual, "en-US")
		})

		Convey("is idempotent across readiness events", func() {
			store.Set(key.SubtitlesEnabled, true, true)
			store.Set(key.SubtitlesLanguage, "ja", true)

			changes := 0
			engine.On(player.EventTextTrackChange, func(any) { changes++ })

			store.ApplyTo(engine)
			store.ApplyTo(engine)
			store.ApplyTo(engine)

			So(engine.SelectedTextTrack(), ShouldEqual, "ja")
			So(changes, ShouldEqual, 1)
		})

		Convey("infers the first track when no language is stored", func() {
			store.Set(key.SubtitlesEnabled, true, true)

			store.ApplyTo(engine)

			So(engine.SelectedTextTrack(), ShouldEqual, "en-US")
			So(store.GetString(key.SubtitlesLanguage), ShouldEqual, "en-US")
			So(store.Explicit(key.SubtitlesLanguage), ShouldBeFalse)
		})

		Convey("leaves the player alone when the language is unavailable", func() {
			store.Set(key.SubtitlesEnabled, true, true)
			store.Set(key.SubtitlesLanguage, "de", true)

			store.ApplyTo(engine)

			So(engine.SelectedTextTrack(), ShouldBeEmpty)
		})

		Convey("disables tracks when subtitles are off", func() {
			So(engine.SelectTextTrack("ja"), ShouldBeNil)
			store.Set(key.SubtitlesEnabled, false, true)

			store.ApplyTo(engine)
			store.ApplyTo(engine)

			So(engine.SelectedTextTrack(), ShouldBeEmpty)
		})
	})
}

func TestAutoSave(t *testing.T) {
	Convey("AutoSave", t, func() {
		filesystem.SetMemMapFs()
		store := NewStore()
		engine := player.NewHeadless(60, []player.TextTrack{
			{ID: "en", Language: "en", Label: "English"},
		})

		Convey("persists user-driven track changes as explicit", func() {
			off := store.AutoSave(engine)
			defer off()

			So(engine.SelectTextTrack("en"), ShouldBeNil)

			So(store.GetBool(key.SubtitlesEnabled), ShouldBeTrue)
			So(store.GetString(key.SubtitlesLanguage), ShouldEqual, "en")
			So(store.Explicit(key.SubtitlesLanguage), ShouldBeTrue)
		})

		Convey("ignores changes echoed back by ApplyTo", func() {
			store.Set(key.SubtitlesEnabled, true, true)
			off := store.AutoSave(engine)
			defer off()

			store.ApplyTo(engine)

			So(store.Explicit(key.SubtitlesLanguage), ShouldBeFalse)
		})

		Convey("persists quality changes", func() {
			off := store.AutoSave(engine)
			defer off()

			engine.Emit(player.EventQualityChange, "720p")

			So(store.GetString(key.PlaybackQuality), ShouldEqual, "720p")
			So(store.Explicit(key.PlaybackQuality), ShouldBeTrue)
		})

		Convey("the disposer detaches both listeners", func() {
			off := store.AutoSave(engine)
			off()

			engine.Emit(player.EventQualityChange, "1080p")

			So(store.GetString(key.PlaybackQuality), ShouldEqual, "auto")
		})
	})
}
