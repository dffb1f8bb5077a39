package playback

import (
	"fmt"
	"sync"

	"github.com/miru-player/miru/chapter"
	"github.com/miru-player/miru/key"
	"github.com/miru-player/miru/log"
	"github.com/miru-player/miru/media"
	"github.com/miru-player/miru/player"
	"github.com/miru-player/miru/pref"
	"github.com/miru-player/miru/resolve"
	"github.com/miru-player/miru/util"
	"github.com/samber/lo"
)

// State is the coordinator's view of the player lifecycle.
type State uint8

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StatePlaying
	StatePaused
	StateEnded
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Mode selects the playback policy context.
type Mode string

const (
	// ModeDefault is regular playback with the full handler set.
	ModeDefault Mode = "default"

	// ModeEmbed is the restricted embed context: autoplay and next-item
	// navigation are disabled by policy.
	ModeEmbed Mode = "embed"
)

// Device describes the capabilities of the host device that matter here.
type Device struct {
	// Touch marks touch-capable devices; orientation handling is a no-op
	// without it.
	Touch bool
}

// Options configures a Coordinator. Every field degrades to a sensible
// default when left zero.
type Options struct {
	Mode   Mode
	Device Device

	// View receives presentation mutations; defaults to NopView.
	View View

	// Prefs is the preference registry; defaults to the standard store.
	Prefs *pref.Store

	// SeekStep overrides the configured keyboard seek step, in seconds.
	SeekStep float64

	// OnPlayerInit is invoked exactly once after the player reports ready.
	OnPlayerInit func(p player.Player)

	// OnClickNext is invoked when the user accepts end-of-playback
	// navigation, with the related item being navigated to.
	OnClickNext func(next *media.Related)

	// OnCompletion is invoked once when playback passes the configured
	// completion percentage.
	OnCompletion func()
}

// Coordinator owns a live player handle, wires exactly one listener of each
// required kind onto it, and guarantees idempotent teardown in reverse
// registration order.
type Coordinator struct {
	opts Options

	mu             sync.Mutex
	state          State
	p              player.Player
	descriptor     *media.Descriptor
	chapters       []chapter.Interval
	completionSent bool
	disposed       bool

	disposers util.Stack[func()]
	handlers  []Handler
}

// NewCoordinator creates a detached coordinator; Attach binds it to a player.
func NewCoordinator(opts Options) *Coordinator {
	if opts.View == nil {
		opts.View = NopView{}
	}
	if opts.Prefs == nil {
		opts.Prefs = pref.NewStore()
	}
	if opts.Mode == "" {
		opts.Mode = ModeDefault
	}

	return &Coordinator{opts: opts}
}

// Attach binds the coordinator to a live player and a media descriptor: it
// resolves the source playlist from the stored quality preference, normalizes
// chapters, wires the lifecycle listeners, and initializes the handler set.
// A coordinator owns at most one player; a second Attach is an error.
func (c *Coordinator) Attach(p player.Player, d *media.Descriptor) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return fmt.Errorf("coordinator is disposed")
	}
	if c.p != nil {
		c.mu.Unlock()
		return fmt.Errorf("coordinator already has a player")
	}
	c.p = p
	c.descriptor = d
	c.state = StateInitializing
	c.mu.Unlock()

	quality := media.Quality(c.opts.Prefs.GetString(key.PlaybackQuality))
	if err := p.SetSources(toSources(resolve.Sources(d, quality))); err != nil {
		c.mu.Lock()
		c.p = nil
		c.descriptor = nil
		c.state = StateUninitialized
		c.mu.Unlock()
		return fmt.Errorf("load sources: %w", err)
	}

	duration := d.Duration
	c.mu.Lock()
	c.chapters = chapter.Normalize(d.Chapters, duration)
	c.mu.Unlock()

	c.wireLifecycle(p)
	c.wirePreferences(p)
	c.initHandlers(p)

	log.Infof("playback coordinator attached to %s (%s)", d.String(), c.opts.Mode)
	return nil
}

// wireLifecycle attaches the state-machine listeners. Every disposer lands on
// the teardown stack.
func (c *Coordinator) wireLifecycle(p player.Player) {
	c.track(p.On(player.EventReady, func(any) {
		c.setState(StateReady)
		c.opts.Prefs.ApplyTo(p)
	}))

	// Preference application must hold across every readiness event, not
	// just the first; re-applying is idempotent.
	c.track(p.On(player.EventLoadedMetadata, func(any) { c.opts.Prefs.ApplyTo(p) }))
	c.track(p.On(player.EventCanPlay, func(any) { c.opts.Prefs.ApplyTo(p) }))

	if c.opts.OnPlayerInit != nil {
		c.track(p.Once(player.EventReady, func(any) { c.opts.OnPlayerInit(p) }))
	}

	c.track(p.On(player.EventPlay, func(any) { c.setState(StatePlaying) }))
	c.track(p.On(player.EventPause, func(any) { c.setState(StatePaused) }))
	c.track(p.On(player.EventEnded, func(any) { c.setState(StateEnded) }))

	c.track(p.On(player.EventTimeUpdate, func(data any) {
		if pos, ok := data.(float64); ok {
			c.markProgress(pos)
		}
	}))

	// Engine disposal tears the coordinator down with it.
	c.track(p.Once(player.EventDispose, func(any) { c.Dispose() }))
}

// wirePreferences connects the preference store to the live player in both
// directions: stored quality changes re-resolve the playlist, user-driven
// player changes persist back.
func (c *Coordinator) wirePreferences(p player.Player) {
	c.track(c.opts.Prefs.Subscribe(func(k string) {
		if k == key.PlaybackQuality {
			c.applyQuality()
		}
	}))
	c.track(c.opts.Prefs.AutoSave(p))
}

// initHandlers builds and initializes the behavioral handler set. A handler
// whose Init fails is logged and skipped, its teardown still registered so a
// partial init cannot leak listeners.
func (c *Coordinator) initHandlers(p player.Player) {
	c.handlers = []Handler{
		newAutoplayHandler(c, p),
		newOrientationHandler(c, p),
		newEndScreenHandler(c, p),
		newKeyboardHandler(c, p),
		newIndicatorHandler(c, p),
	}

	for _, h := range c.handlers {
		if err := h.Init(); err != nil {
			log.Warnf("init %s handler: %v", h.Name(), err)
		}
		c.track(h.Destroy)
	}
}

// track pushes a disposer onto the teardown stack.
func (c *Coordinator) track(off func()) {
	c.mu.Lock()
	disposed := c.disposed
	if !disposed {
		c.disposers.Push(off)
	}
	c.mu.Unlock()

	// Teardown already ran; dispose immediately instead of leaking.
	if disposed {
		off()
	}
}

// setState records a lifecycle transition. Transitions after disposal are
// ignored.
func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	if c.state != s {
		log.Debugf("playback state %s -> %s", c.state, s)
		c.state = s
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Player returns the attached player, or nil before Attach.
func (c *Coordinator) Player() player.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.p
}

// Chapters returns the normalized chapter intervals for the attached media.
func (c *Coordinator) Chapters() []chapter.Interval {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chapters
}

// SetQuality stores an explicit quality choice. The store subscription takes
// it from there and re-resolves the playlist.
func (c *Coordinator) SetQuality(q media.Quality) {
	c.opts.Prefs.Set(key.PlaybackQuality, string(q), true)
}

// applyQuality re-invokes source resolution for the stored quality preference
// and swaps the player's playlist without losing the playback position.
func (c *Coordinator) applyQuality() {
	c.mu.Lock()
	p := c.p
	d := c.descriptor
	disposed := c.disposed
	c.mu.Unlock()

	if disposed || p == nil || d == nil {
		return
	}

	quality := media.Quality(c.opts.Prefs.GetString(key.PlaybackQuality))
	pos, _ := p.CurrentTime()

	if err := p.SetSources(toSources(resolve.Sources(d, quality))); err != nil {
		log.Warnf("apply quality %s: %v", quality, err)
		return
	}

	if cur, err := p.CurrentTime(); err == nil && cur < pos {
		util.Ignore(func() error { return p.Seek(pos) })
	}

	log.Infof("quality switched to %s", quality)
}

// markProgress performs the completion bookkeeping driven by timeupdate.
func (c *Coordinator) markProgress(pos float64) {
	c.mu.Lock()
	d := c.descriptor
	sent := c.completionSent
	c.mu.Unlock()

	if sent || d == nil || d.Duration <= 0 {
		return
	}

	threshold := c.opts.Prefs.GetFloat(key.PlaybackCompletionPercentage)
	if threshold <= 0 || pos/d.Duration*100 < threshold {
		return
	}

	c.mu.Lock()
	if c.completionSent {
		c.mu.Unlock()
		return
	}
	c.completionSent = true
	c.mu.Unlock()

	log.Debugf("playback passed %.0f%% completion", threshold)
	if c.opts.OnCompletion != nil {
		c.opts.OnCompletion()
	}
}

// seekStep returns the keyboard seek step in seconds.
func (c *Coordinator) seekStep() float64 {
	if c.opts.SeekStep > 0 {
		return c.opts.SeekStep
	}
	if step := c.opts.Prefs.GetFloat(key.PlaybackSeekStep); step > 0 {
		return step
	}
	return 5
}

// Dispose tears the coordinator down: every registered disposer runs exactly
// once, in reverse registration order. Safe to call any number of times, and
// triggered automatically when the player disposes itself.
func (c *Coordinator) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.state = StateDisposed
	c.mu.Unlock()

	for {
		c.mu.Lock()
		if c.disposers.Len() == 0 {
			c.mu.Unlock()
			break
		}
		off := c.disposers.Pop()
		c.mu.Unlock()

		if off != nil {
			off()
		}
	}

	log.Debugf("playback coordinator disposed")
}

// toSources converts resolved candidates into the player's source type.
func toSources(candidates []resolve.Candidate) []player.Source {
	return lo.Map(candidates, func(cand resolve.Candidate, _ int) player.Source {
		return player.Source{
			URL:      cand.URL,
			MIMEType: cand.MIMEType,
			Label:    cand.QualityLabel,
		}
	})
}
