// Package cmd implements the command-line interface for miru.
package cmd

import (
	"fmt"
	"os"

	"github.com/miru-player/miru/chapter"
	"github.com/miru-player/miru/color"
	"github.com/miru-player/miru/filesystem"
	"github.com/miru-player/miru/key"
	"github.com/miru-player/miru/media"
	"github.com/miru-player/miru/playback"
	"github.com/miru-player/miru/player"
	"github.com/miru-player/miru/pref"
	"github.com/miru-player/miru/resolve"
	"github.com/miru-player/miru/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().BoolP("embed", "e", false, "Restricted embed mode: no autoplay, no next-item navigation")
	playCmd.Flags().BoolP("touch", "t", false, "Treat the host as a touch-capable device")
	playCmd.Flags().BoolP("dry-run", "n", false, "Resolve and print without launching a playback engine")

	playCmd.SetOut(os.Stdout)
}

// playCmd resolves a media descriptor and drives a playback engine with it.
var playCmd = &cobra.Command{
	Use:   "play <descriptor.json>",
	Short: "Play a media item described by a JSON descriptor",
	Long: `Play a media item described by a JSON descriptor.

The descriptor carries the sources (adaptive manifest, per-resolution
renditions, or a single URL), chapters, subtitle tracks, and related items.
Sources are resolved against the stored quality preference, and subtitle
state is restored from the preference registry.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			embed  = lo.Must(cmd.Flags().GetBool("embed"))
			touch  = lo.Must(cmd.Flags().GetBool("touch"))
			dryRun = lo.Must(cmd.Flags().GetBool("dry-run"))
		)

		file, err := filesystem.API().Open(args[0])
		handleErr(err)
		descriptor, err := media.Decode(file)
		_ = file.Close()
		handleErr(err)

		if dryRun {
			printResolution(cmd, descriptor)
			return
		}

		store := pref.NewStore()
		tracks := subtitleTracks(descriptor)

		mode := playback.ModeDefault
		if embed {
			mode = playback.ModeEmbed
		}

		options := playback.Options{
			Mode:   mode,
			Device: playback.Device{Touch: touch},
			Prefs:  store,
			OnClickNext: func(next *media.Related) {
				cmd.Printf("up next: %s\n", style.Bold(next.Title))
			},
			OnCompletion: func() {
				cmd.Printf("%s finished %s\n", style.Fg(color.Green)("✓"), descriptor.String())
			},
		}

		registry := playback.NewRegistry()
		defer registry.Close()

		switch engine := viper.GetString(key.Player); engine {
		case "headless":
			handleErr(playHeadless(descriptor, tracks, registry, options))
		case "mpv":
			CheckDependencies()
			handleErr(playMPV(descriptor, tracks, registry, options))
		default:
			handleErr(fmt.Errorf("unknown playback engine %q", engine))
		}
	},
}

// playMPV drives a descriptor through the mpv engine and blocks until the
// process exits.
func playMPV(d *media.Descriptor, tracks []player.TextTrack, registry *playback.Registry, options playback.Options) error {
	engine := player.NewMPV(d.String(), tracks)
	options.View = &osdView{engine: engine}

	coordinator := playback.NewCoordinator(options)
	if err := registry.Register(d.ID, coordinator); err != nil {
		return err
	}

	if err := coordinator.Attach(engine, d); err != nil {
		return err
	}

	if markers := chapterMarkers(coordinator.Chapters()); len(markers) > 0 {
		if err := engine.SetChapters(markers); err != nil {
			return err
		}
	}

	<-engine.Wait()
	return engine.Dispose()
}

// playHeadless runs a deterministic simulation of the playback session,
// useful for inspecting resolution and preference behavior without a video
// engine installed.
func playHeadless(d *media.Descriptor, tracks []player.TextTrack, registry *playback.Registry, options playback.Options) error {
	engine := player.NewHeadless(d.Duration, tracks)

	coordinator := playback.NewCoordinator(options)
	if err := registry.Register(d.ID, coordinator); err != nil {
		return err
	}

	if err := coordinator.Attach(engine, d); err != nil {
		return err
	}

	engine.Load()
	engine.AdvanceTo(d.Duration)

	return engine.Dispose()
}

// subtitleTracks converts descriptor subtitle entries to the player's type.
func subtitleTracks(d *media.Descriptor) []player.TextTrack {
	return lo.Map(d.Subtitles, func(t media.SubtitleTrack, _ int) player.TextTrack {
		return player.TextTrack{
			ID:       t.ID,
			Language: t.Language,
			Label:    t.Label,
			URL:      t.URL,
		}
	})
}

// chapterMarkers converts normalized intervals into mpv chapter-list entries.
func chapterMarkers(chapters []chapter.Interval) []map[string]interface{} {
	return lo.Map(chapters, func(c chapter.Interval, _ int) map[string]interface{} {
		return map[string]interface{}{
			"title": c.Title,
			"time":  c.Start,
		}
	})
}

// printResolution renders the resolved playlist, quality menu, and chapters
// for a descriptor without touching an engine.
func printResolution(cmd *cobra.Command, d *media.Descriptor) {
	header := style.New().Bold(true).Foreground(color.HiPurple).Render

	quality := media.Quality(viper.GetString(key.PlaybackQuality))
	cmd.Printf("%s %s\n\n", header("Sources"), style.Faint("(quality "+string(quality)+")"))
	for _, candidate := range resolve.Sources(d, quality) {
		cmd.Printf("  %s  %s  %s\n",
			style.Fg(color.Yellow)(candidate.QualityLabel),
			style.Faint(candidate.MIMEType),
			candidate.URL,
		)
	}

	menu := resolve.Menu(d)
	if len(menu) > 0 {
		cmd.Printf("\n%s\n", header("Quality menu"))
		for _, entry := range menu {
			cmd.Printf("  %s (%s)\n", style.Fg(color.Yellow)(entry.Label), entry.Value)
		}
	}

	chapters := chapter.Normalize(d.Chapters, d.Duration)
	if len(chapters) > 0 {
		cmd.Printf("\n%s\n", header("Chapters"))
		for _, c := range chapters {
			cmd.Printf("  %7.1fs - %7.1fs  %s\n", c.Start, c.End, c.Title)
		}
	}
}

// osdView renders view mutations through mpv's on-screen display.
type osdView struct {
	engine *player.MPV
}

func (v *osdView) ShowIndicator(kind playback.Indicator) {
	v.engine.ShowText(indicatorText(kind), int(indicatorHideAfterMs()))
}

func (v *osdView) HideIndicator() {}

func (v *osdView) ShowEndScreen(next *media.Related) {
	if next == nil {
		return
	}
	v.engine.ShowText(fmt.Sprintf("Up next: %s", next.Title), 5000)
}

func (v *osdView) HideEndScreen() {}

func (v *osdView) ApplyOrientation(bool) {}

func indicatorText(kind playback.Indicator) string {
	switch kind {
	case playback.IndicatorPlay:
		return "▶"
	case playback.IndicatorPause:
		return "⏸"
	case playback.IndicatorSeekForward:
		return "»"
	case playback.IndicatorSeekBack:
		return "«"
	default:
		return string(kind)
	}
}

func indicatorHideAfterMs() float64 {
	if ms := viper.GetFloat64(key.PlaybackIndicatorHideAfterMs); ms > 0 {
		return ms
	}
	return 800
}
