// Package player defines the capability surface consumed by the playback coordinator.
package player

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"
)

// Headless is a deterministic in-memory engine. It backs dry-run playback and
// the test suites of every consumer; all state transitions are synchronous and
// observable through the embedded Bus.
type Headless struct {
	Bus

	mu        sync.Mutex
	sources   []Source
	tracks    []TextTrack
	selected  string
	paused    bool
	muted     bool
	full      bool
	position  float64
	duration  float64
	readySent bool
	disposed  bool
}

// NewHeadless creates a headless engine with the given subtitle tracks
// attached and the given total duration.
func NewHeadless(duration float64, tracks []TextTrack) *Headless {
	return &Headless{
		paused:   true,
		duration: duration,
		tracks:   slices.Clone(tracks),
	}
}

// Load marks the media as ready, emitting the readiness sequence the way a
// real engine would: loadedmetadata, canplay, then a single ready.
func (h *Headless) Load() {
	h.mu.Lock()
	first := !h.readySent
	h.readySent = true
	h.mu.Unlock()

	h.Emit(EventLoadedMetadata, nil)
	h.Emit(EventCanPlay, nil)
	if first {
		h.Emit(EventReady, nil)
	}
}

func (h *Headless) Play() error {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return fmt.Errorf("play on disposed player")
	}
	wasPaused := h.paused
	h.paused = false
	h.mu.Unlock()

	if wasPaused {
		h.Emit(EventPlay, nil)
	}
	return nil
}

func (h *Headless) Pause() error {
	h.mu.Lock()
	wasPaused := h.paused
	h.paused = true
	h.mu.Unlock()

	if !wasPaused {
		h.Emit(EventPause, nil)
	}
	return nil
}

func (h *Headless) Paused() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused, nil
}

func (h *Headless) Seek(seconds float64) error {
	h.mu.Lock()
	from := h.position
	if seconds < 0 {
		seconds = 0
	}
	if h.duration > 0 && seconds > h.duration {
		seconds = h.duration
	}
	h.position = seconds
	h.mu.Unlock()

	h.Emit(EventSeeked, Seeked{From: from, To: seconds})
	h.Emit(EventTimeUpdate, seconds)
	return nil
}

func (h *Headless) CurrentTime() (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position, nil
}

func (h *Headless) Duration() (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.duration, nil
}

// AdvanceTo moves the playback clock, emitting timeupdate and, at the end of
// the media, ended. Drives deterministic simulations.
func (h *Headless) AdvanceTo(seconds float64) {
	h.mu.Lock()
	h.position = seconds
	ended := h.duration > 0 && seconds >= h.duration
	if ended {
		h.paused = true
	}
	h.mu.Unlock()

	h.Emit(EventTimeUpdate, seconds)
	if ended {
		h.Emit(EventEnded, nil)
	}
}

func (h *Headless) Muted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.muted
}

func (h *Headless) SetMuted(muted bool) error {
	h.mu.Lock()
	h.muted = muted
	h.mu.Unlock()
	return nil
}

func (h *Headless) SetSources(sources []Source) error {
	if len(sources) == 0 {
		return fmt.Errorf("empty source list")
	}
	h.mu.Lock()
	h.sources = slices.Clone(sources)
	h.mu.Unlock()
	return nil
}

func (h *Headless) Sources() []Source {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.sources)
}

func (h *Headless) TextTracks() []TextTrack {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.tracks)
}

func (h *Headless) SelectedTextTrack() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.selected
}

func (h *Headless) SelectTextTrack(id string) error {
	h.mu.Lock()
	track, found := findTrack(h.tracks, id)
	if !found {
		h.mu.Unlock()
		return fmt.Errorf("unknown text track %q", id)
	}
	changed := h.selected != id
	h.selected = id
	h.mu.Unlock()

	if changed {
		h.Emit(EventTextTrackChange, TrackChange{ID: id, Language: track.Language, Enabled: true})
	}
	return nil
}

func (h *Headless) DisableTextTracks() error {
	h.mu.Lock()
	changed := h.selected != ""
	h.selected = ""
	h.mu.Unlock()

	if changed {
		h.Emit(EventTextTrackChange, TrackChange{Enabled: false})
	}
	return nil
}

func (h *Headless) Fullscreen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.full
}

func (h *Headless) SetFullscreen(on bool) error {
	h.mu.Lock()
	changed := h.full != on
	h.full = on
	h.mu.Unlock()

	if changed {
		h.Emit(EventFullscreenChange, on)
	}
	return nil
}

func (h *Headless) Dispose() error {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return nil
	}
	h.disposed = true
	h.mu.Unlock()

	h.Emit(EventDispose, nil)
	h.Close()
	return nil
}

func findTrack(tracks []TextTrack, id string) (TextTrack, bool) {
	for _, t := range tracks {
		if t.ID == id {
			return t, true
		}
	}
	return TextTrack{}, false
}
