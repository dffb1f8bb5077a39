// Package playback owns the live player handle and orchestrates the
// behavioral handler set against its event stream.
package playback

import "github.com/miru-player/miru/media"

// Indicator identifies the transient feedback glyph shown for a discrete
// playback action.
type Indicator string

const (
	IndicatorPlay        Indicator = "play"
	IndicatorPause       Indicator = "pause"
	IndicatorSeekForward Indicator = "seek-forward"
	IndicatorSeekBack    Indicator = "seek-back"
)

// View is the surface the coordination core mutates instead of touching any
// concrete presentation layer. Implementations render however they like; the
// headless NopView makes the whole core testable without one.
type View interface {
	// ShowIndicator surfaces the transient action indicator. A new call
	// replaces whatever indicator is currently visible.
	ShowIndicator(kind Indicator)

	// HideIndicator removes the action indicator, if visible.
	HideIndicator()

	// ShowEndScreen surfaces end-of-playback navigation. next is nil when no
	// follow-up item exists.
	ShowEndScreen(next *media.Related)

	// HideEndScreen removes the end-of-playback screen, if visible.
	HideEndScreen()

	// ApplyOrientation adjusts the layout for the current device orientation.
	ApplyOrientation(landscape bool)
}

// NopView discards every view mutation.
type NopView struct{}

func (NopView) ShowIndicator(Indicator)      {}
func (NopView) HideIndicator()               {}
func (NopView) ShowEndScreen(*media.Related) {}
func (NopView) HideEndScreen()               {}
func (NopView) ApplyOrientation(bool)        {}
