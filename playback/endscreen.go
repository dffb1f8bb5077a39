package playback

import (
	"github.com/miru-player/miru/media"
	"github.com/miru-player/miru/player"
)

// endScreenHandler surfaces next-item navigation when playback ends. Without
// a next item or a navigation callback it does nothing. Disabled in embed
// mode, where next-item navigation is a policy violation.
type endScreenHandler struct {
	c *Coordinator
	p player.Player

	offEnded func()
	offNext  func()
}

func newEndScreenHandler(c *Coordinator, p player.Player) *endScreenHandler {
	return &endScreenHandler{c: c, p: p}
}

func (h *endScreenHandler) Name() string { return "endscreen" }

func (h *endScreenHandler) Init() error {
	if h.c.opts.Mode == ModeEmbed {
		return nil
	}

	h.offEnded = h.p.On(player.EventEnded, func(any) {
		h.c.opts.View.ShowEndScreen(h.next())
	})

	h.offNext = h.p.On(player.EventNextVideo, func(any) {
		next := h.next()
		if next == nil || h.c.opts.OnClickNext == nil {
			return
		}

		h.c.opts.View.HideEndScreen()
		h.c.opts.OnClickNext(next)
	})

	return nil
}

// next returns the first related item, or nil when none is configured.
func (h *endScreenHandler) next() *media.Related {
	h.c.mu.Lock()
	d := h.c.descriptor
	h.c.mu.Unlock()

	if d == nil || len(d.Related) == 0 {
		return nil
	}
	return &d.Related[0]
}

func (h *endScreenHandler) Destroy() {
	if h.offEnded != nil {
		h.offEnded()
	}
	if h.offNext != nil {
		h.offNext()
	}
}
