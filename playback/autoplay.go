package playback

import (
	"github.com/miru-player/miru/key"
	"github.com/miru-player/miru/log"
	"github.com/miru-player/miru/player"
)

// autoplayHandler attempts unmuted autoplay once the player is ready. On a
// policy rejection it retries exactly once muted; a second rejection leaves
// the player paused awaiting an explicit user action. Never surfaces an
// error. Skipped entirely in embed mode, where autoplay is deferred to the
// poster click.
type autoplayHandler struct {
	c *Coordinator
	p player.Player

	off func()
}

func newAutoplayHandler(c *Coordinator, p player.Player) *autoplayHandler {
	return &autoplayHandler{c: c, p: p}
}

func (h *autoplayHandler) Name() string { return "autoplay" }

func (h *autoplayHandler) Init() error {
	if h.c.opts.Mode == ModeEmbed {
		return nil
	}
	if !h.c.opts.Prefs.GetBool(key.PlaybackAutoplay) {
		return nil
	}

	h.off = h.p.Once(player.EventReady, func(any) { h.attempt() })
	return nil
}

func (h *autoplayHandler) attempt() {
	err := h.p.Play()
	if err == nil {
		return
	}

	log.Infof("unmuted autoplay rejected, retrying muted: %v", err)

	if err := h.p.SetMuted(true); err != nil {
		log.Warnf("mute for autoplay retry: %v", err)
		return
	}
	if err := h.p.Play(); err != nil {
		// One fallback attempt only; playback stays paused.
		log.Warnf("muted autoplay rejected, awaiting user action: %v", err)
	}
}

func (h *autoplayHandler) Destroy() {
	if h.off != nil {
		h.off()
	}
}
