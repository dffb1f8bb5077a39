// Package player defines the capability surface consumed by the playback
// coordinator, together with a reusable event bus and the available engine
// implementations (mpv over JSON-IPC, and a deterministic headless engine).
package player

// Event names a player lifecycle or surface notification.
type Event string

// Lifecycle and surface events. Ready fires once per loaded item; the
// readiness pair loadedmetadata/canplay may fire more than once and consumers
// are expected to re-apply state idempotently on each firing.
const (
	EventReady             Event = "ready"
	EventPlay              Event = "play"
	EventPause             Event = "pause"
	EventEnded             Event = "ended"
	EventLoadedMetadata    Event = "loadedmetadata"
	EventCanPlay           Event = "canplay"
	EventTimeUpdate        Event = "timeupdate"
	EventSeeked            Event = "seeked"
	EventFullscreenChange  Event = "fullscreenchange"
	EventTextTrackChange   Event = "texttrackchange"
	EventQualityChange     Event = "qualitychange"
	EventDispose           Event = "dispose"
	EventNextVideo         Event = "nextvideo"
	EventKeyPress          Event = "keypress"
	EventOrientationChange Event = "orientationchange"
)

// Source is one playable candidate handed to the engine.
type Source struct {
	URL      string `json:"url"`
	MIMEType string `json:"mime_type"`
	Label    string `json:"label"`
}

// TextTrack describes one subtitle/caption track attached to the player.
type TextTrack struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Label    string `json:"label"`
	URL      string `json:"url"`
}

// KeyPress is the payload of EventKeyPress.
type KeyPress struct {
	Key string
	// FromTextInput marks keystrokes originating from a focused text-entry
	// control; shortcut handling must leave those alone.
	FromTextInput bool
}

// TrackChange is the payload of EventTextTrackChange.
type TrackChange struct {
	ID       string
	Language string
	Enabled  bool
}

// Seeked is the payload of EventSeeked.
type Seeked struct {
	From float64
	To   float64
}

// Orientation is the payload of EventOrientationChange.
type Orientation struct {
	Landscape bool
}

// Player encapsulates the required capabilities of a media playback engine.
// Implementations are event-driven: all state notifications flow through the
// On/Once subscription surface, and every subscription returns a disposer that
// detaches exactly the listener it registered.
type Player interface {
	// Play starts or resumes playback. Engines may reject the request (e.g.
	// an autoplay policy denial); the error is recoverable.
	Play() error

	// Pause suspends playback.
	Pause() error

	// Paused reports the current suspension state.
	Paused() (bool, error)

	// Seek transitions playback to an absolute position in seconds.
	Seek(seconds float64) error

	// CurrentTime retrieves the current absolute playback position in seconds.
	CurrentTime() (float64, error)

	// Duration retrieves the total temporal length of the active media in
	// seconds; zero when unknown.
	Duration() (float64, error)

	// Muted reports the current mute state.
	Muted() bool

	// SetMuted updates the mute state.
	SetMuted(muted bool) error

	// SetSources replaces the ordered candidate playlist. Engines load the
	// first playable candidate.
	SetSources(sources []Source) error

	// Sources returns the currently configured candidate playlist.
	Sources() []Source

	// TextTracks lists the attached subtitle tracks.
	TextTracks() []TextTrack

	// SelectedTextTrack returns the ID of the active track, or "" when
	// subtitles are disabled.
	SelectedTextTrack() string

	// SelectTextTrack activates the track with the given ID.
	SelectTextTrack(id string) error

	// DisableTextTracks deactivates subtitle display.
	DisableTextTracks() error

	// Fullscreen reports the current fullscreen state.
	Fullscreen() bool

	// SetFullscreen updates the fullscreen state.
	SetFullscreen(on bool) error

	// On subscribes to a named event and returns a disposer removing exactly
	// this listener. Disposers are safe to call more than once.
	On(event Event, fn func(data any)) (off func())

	// Once subscribes for at most one delivery, auto-unsubscribing afterwards.
	Once(event Event, fn func(data any)) (off func())

	// Dispose terminates the engine and releases all associated resources.
	// It emits EventDispose exactly once; further calls are no-ops.
	Dispose() error
}
