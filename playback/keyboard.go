package playback

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/miru-player/miru/log"
	"github.com/miru-player/miru/player"
	"github.com/miru-player/miru/util"
	"github.com/samber/lo"
)

// shortcutKeymap defines the playback shortcuts bound while a player is live.
type shortcutKeymap struct {
	seekForward, seekBack,
	playPause,
	mute,
	fullscreen key.Binding
}

func newShortcutKeymap() shortcutKeymap {
	return shortcutKeymap{
		seekForward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "seek forward"),
		),
		seekBack: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "seek back"),
		),
		playPause: key.NewBinding(
			key.WithKeys(" ", "k"),
			key.WithHelp("space", "play/pause"),
		),
		mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		fullscreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fullscreen"),
		),
	}
}

// matches reports whether a pressed key activates a binding.
func matches(binding key.Binding, pressed string) bool {
	return binding.Enabled() && lo.Contains(binding.Keys(), pressed)
}

// keyboardHandler binds seek, play/pause, mute, and fullscreen shortcuts to
// the player's key events. Keystrokes originating from text-entry controls
// are never intercepted.
type keyboardHandler struct {
	c *Coordinator
	p player.Player

	keymap shortcutKeymap
	off    func()
}

func newKeyboardHandler(c *Coordinator, p player.Player) *keyboardHandler {
	return &keyboardHandler{c: c, p: p, keymap: newShortcutKeymap()}
}

func (h *keyboardHandler) Name() string { return "keyboard" }

func (h *keyboardHandler) Init() error {
	h.off = h.p.On(player.EventKeyPress, func(data any) {
		press, ok := data.(player.KeyPress)
		if !ok || press.FromTextInput {
			return
		}
		h.handle(press.Key)
	})
	return nil
}

func (h *keyboardHandler) handle(pressed string) {
	switch {
	case matches(h.keymap.seekForward, pressed):
		h.seekBy(h.c.seekStep())

	case matches(h.keymap.seekBack, pressed):
		h.seekBy(-h.c.seekStep())

	case matches(h.keymap.playPause, pressed):
		h.togglePlayback()

	case matches(h.keymap.mute, pressed):
		if err := h.p.SetMuted(!h.p.Muted()); err != nil {
			log.Warnf("toggle mute: %v", err)
		}

	case matches(h.keymap.fullscreen, pressed):
		if err := h.p.SetFullscreen(!h.p.Fullscreen()); err != nil {
			log.Warnf("toggle fullscreen: %v", err)
		}
	}
}

// seekBy moves the playhead by delta seconds, clamped to the media bounds.
func (h *keyboardHandler) seekBy(delta float64) {
	pos, err := h.p.CurrentTime()
	if err != nil {
		return
	}

	duration, err := h.p.Duration()
	if err != nil || duration <= 0 {
		return
	}

	if err := h.p.Seek(util.Clamp(pos+delta, 0, duration)); err != nil {
		log.Warnf("keyboard seek: %v", err)
	}
}

func (h *keyboardHandler) togglePlayback() {
	paused, err := h.p.Paused()
	if err != nil {
		return
	}

	if paused {
		err = h.p.Play()
	} else {
		err = h.p.Pause()
	}
	if err != nil {
		log.Warnf("toggle playback: %v", err)
	}
}

func (h *keyboardHandler) Destroy() {
	if h.off != nil {
		h.off()
	}
}
