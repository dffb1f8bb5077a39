package playback

import (
	"sync"
	"time"

	"github.com/miru-player/miru/key"
	"github.com/miru-player/miru/player"
)

// defaultIndicatorHideAfter bounds indicator visibility when no interval is
// configured.
const defaultIndicatorHideAfter = 800 * time.Millisecond

// indicatorHandler surfaces a transient visual indicator for discrete
// playback actions: play, pause, and directional seeks. Visibility is
// time-boxed and debounced; each new action replaces the previous indicator
// and restarts the hide timer instead of queueing.
type indicatorHandler struct {
	c *Coordinator
	p player.Player

	hideAfter time.Duration

	mu    sync.Mutex
	timer *time.Timer

	offs []func()
}

func newIndicatorHandler(c *Coordinator, p player.Player) *indicatorHandler {
	hideAfter := defaultIndicatorHideAfter
	if ms := c.opts.Prefs.GetFloat(key.PlaybackIndicatorHideAfterMs); ms > 0 {
		hideAfter = time.Duration(ms) * time.Millisecond
	}

	return &indicatorHandler{c: c, p: p, hideAfter: hideAfter}
}

func (h *indicatorHandler) Name() string { return "indicator" }

func (h *indicatorHandler) Init() error {
	h.offs = append(h.offs,
		h.p.On(player.EventPlay, func(any) { h.flash(IndicatorPlay) }),
		h.p.On(player.EventPause, func(any) { h.flash(IndicatorPause) }),
		h.p.On(player.EventSeeked, func(data any) {
			seeked, ok := data.(player.Seeked)
			if !ok {
				return
			}
			if seeked.To >= seeked.From {
				h.flash(IndicatorSeekForward)
			} else {
				h.flash(IndicatorSeekBack)
			}
		}),
	)
	return nil
}

// flash shows an indicator and (re)arms the hide timer.
func (h *indicatorHandler) flash(kind Indicator) {
	h.mu.Lock()
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(h.hideAfter, h.c.opts.View.HideIndicator)
	h.mu.Unlock()

	h.c.opts.View.ShowIndicator(kind)
}

func (h *indicatorHandler) Destroy() {
	for _, off := range h.offs {
		off()
	}
	h.offs = nil

	h.mu.Lock()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.mu.Unlock()

	h.c.opts.View.HideIndicator()
}
