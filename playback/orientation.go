package playback

import (
	"github.com/miru-player/miru/log"
	"github.com/miru-player/miru/player"
)

// orientationHandler reacts to device orientation changes on touch-capable
// devices: rotating to landscape while playing enters fullscreen, rotating
// back leaves it. A no-op on non-touch devices.
type orientationHandler struct {
	c *Coordinator
	p player.Player

	off func()
}

func newOrientationHandler(c *Coordinator, p player.Player) *orientationHandler {
	return &orientationHandler{c: c, p: p}
}

func (h *orientationHandler) Name() string { return "orientation" }

func (h *orientationHandler) Init() error {
	if !h.c.opts.Device.Touch {
		return nil
	}

	h.off = h.p.On(player.EventOrientationChange, func(data any) {
		orientation, ok := data.(player.Orientation)
		if !ok {
			return
		}
		h.apply(orientation.Landscape)
	})
	return nil
}

func (h *orientationHandler) apply(landscape bool) {
	h.c.opts.View.ApplyOrientation(landscape)

	if landscape {
		if h.c.State() == StatePlaying && !h.p.Fullscreen() {
			if err := h.p.SetFullscreen(true); err != nil {
				log.Warnf("enter fullscreen on rotation: %v", err)
			}
		}
		return
	}

	if h.p.Fullscreen() {
		if err := h.p.SetFullscreen(false); err != nil {
			log.Warnf("leave fullscreen on rotation: %v", err)
		}
	}
}

func (h *orientationHandler) Destroy() {
	if h.off != nil {
		h.off()
	}
}
