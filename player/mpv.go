// Package player defines the capability surface consumed by the playback coordinator.
package player

import (
	"crypto/rand"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/miru-player/miru/log"
	"golang.org/x/exp/slices"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// MPV implements the Player interface using mpv's JSON-IPC protocol. Observed
// mpv properties are translated into Bus events so consumers see the same
// event stream regardless of engine.
type MPV struct {
	Bus

	title      string
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{} // closed when the mpv process exits
	stopCh     chan struct{} // signals the observe loop to stop

	ipcMu sync.Mutex // serializes socket writes

	mu        sync.Mutex
	sources   []Source
	tracks    []TextTrack
	selected  string
	readySent bool
	disposed  bool
}

// NewMPV creates an mpv-backed player (does not start the process). The given
// subtitle tracks are attached once the first source loads.
func NewMPV(title string, tracks []TextTrack) *MPV {
	return &MPV{
		title:  sanitizeTitle(title),
		tracks: slices.Clone(tracks),
		exited: make(chan struct{}),
		stopCh: make(chan struct{}),
	}
}

// SetSources replaces the candidate playlist. The first candidate is loaded:
// on a cold engine this spawns mpv, on a live one the file is swapped in-place
// with the playback position preserved.
func (m *MPV) SetSources(sources []Source) error {
	if len(sources) == 0 {
		return fmt.Errorf("empty source list")
	}

	safeURL, err := sanitizeMediaTarget(sources[0].URL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	m.mu.Lock()
	running := m.cmd != nil
	m.sources = slices.Clone(sources)
	m.mu.Unlock()

	if !running {
		return m.start(safeURL)
	}

	// Swap the file without interrupting the playback position.
	pos, _ := m.CurrentTime()
	if _, err := m.sendCommand([]interface{}{"loadfile", safeURL, "replace"}); err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	if pos > 0 {
		_ = m.Seek(pos)
	}
	return nil
}

// Sources returns the currently configured candidate playlist.
func (m *MPV) Sources() []Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sources)
}

// start spawns the mpv process paused on the given target and begins
// observing its properties.
func (m *MPV) start(safeURL string) error {
	if m.socketPath == "" {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			return fmt.Errorf("generate socket name: %w", err)
		}
		m.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("miru-%x.sock", randomBytes))
	}

	// Pass only the socket, title, and URL; respect the user's mpv.conf.
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		fmt.Sprintf("--force-media-title=%s", m.title),
		fmt.Sprintf("--title=%s", m.title),
		"--force-window=yes",
		"--idle=yes",
		"--pause=yes",
		safeURL,
	}

	m.cmd = exec.Command("mpv", args...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = m.cmd.Process.Kill()
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	if err := m.observe(); err != nil {
		return err
	}
	m.attachTracks()
	return nil
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// attachTracks registers external subtitle tracks with the running engine.
func (m *MPV) attachTracks() {
	m.mu.Lock()
	tracks := slices.Clone(m.tracks)
	m.mu.Unlock()

	for _, t := range tracks {
		if t.URL == "" {
			continue
		}
		if _, err := m.sendCommand([]interface{}{"sub-add", t.URL, "auto", t.Label, t.Language}); err != nil {
			log.Warnf("attach subtitle track %s: %v", t.ID, err)
		}
	}
	// Tracks start disabled; preference application selects one.
	_, _ = m.sendCommand([]interface{}{"set_property", "sid", "no"})
}

func (m *MPV) Play() error {
	return m.setProperty("pause", false)
}

func (m *MPV) Pause() error {
	return m.setProperty("pause", true)
}

func (m *MPV) Paused() (bool, error) {
	data, err := m.sendCommand([]interface{}{"get_property", "pause"})
	if err != nil {
		return false, err
	}
	paused, ok := data.(bool)
	if !ok {
		return false, nil
	}
	return paused, nil
}

func (m *MPV) Seek(seconds float64) error {
	from, _ := m.CurrentTime()
	if _, err := m.sendCommand([]interface{}{"seek", seconds, "absolute"}); err != nil {
		return err
	}
	m.Emit(EventSeeked, Seeked{From: from, To: seconds})
	return nil
}

func (m *MPV) CurrentTime() (float64, error) {
	return m.getFloatProperty("time-pos")
}

func (m *MPV) Duration() (float64, error) {
	return m.getFloatProperty("duration")
}

func (m *MPV) Muted() bool {
	data, err := m.sendCommand([]interface{}{"get_property", "mute"})
	if err != nil {
		return false
	}
	muted, _ := data.(bool)
	return muted
}

func (m *MPV) SetMuted(muted bool) error {
	return m.setProperty("mute", muted)
}

func (m *MPV) TextTracks() []TextTrack {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tracks)
}

func (m *MPV) SelectedTextTrack() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

func (m *MPV) SelectTextTrack(id string) error {
	m.mu.Lock()
	idx := slices.IndexFunc(m.tracks, func(t TextTrack) bool { return t.ID == id })
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("unknown text track %q", id)
	}
	track := m.tracks[idx]
	changed := m.selected != id
	m.selected = id
	m.mu.Unlock()

	// External tracks are registered in attachment order; mpv numbers them 1-based.
	if err := m.setProperty("sid", idx+1); err != nil {
		return err
	}
	if changed {
		m.Emit(EventTextTrackChange, TrackChange{ID: id, Language: track.Language, Enabled: true})
	}
	return nil
}

func (m *MPV) DisableTextTracks() error {
	m.mu.Lock()
	changed := m.selected != ""
	m.selected = ""
	m.mu.Unlock()

	if err := m.setProperty("sid", "no"); err != nil {
		return err
	}
	if changed {
		m.Emit(EventTextTrackChange, TrackChange{Enabled: false})
	}
	return nil
}

func (m *MPV) Fullscreen() bool {
	data, err := m.sendCommand([]interface{}{"get_property", "fullscreen"})
	if err != nil {
		return false
	}
	full, _ := data.(bool)
	return full
}

func (m *MPV) SetFullscreen(on bool) error {
	return m.setProperty("fullscreen", on)
}

// SetChapters pushes chapter markers onto the mpv timeline for visual feedback.
func (m *MPV) SetChapters(markers []map[string]interface{}) error {
	_, err := m.sendCommand([]interface{}{"set_property", "chapter-list", markers})
	return err
}

// ShowText flashes an OSD message, the mpv rendition of a transient indicator.
func (m *MPV) ShowText(text string, durationMs int) {
	_, _ = m.sendCommand([]interface{}{"show-text", text, durationMs})
}

// Wait returns a channel that is closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

// IsRunning reports whether mpv is responding to IPC commands.
func (m *MPV) IsRunning() bool {
	if m.socketPath == "" {
		return false
	}

	select {
	case <-m.exited:
		return false
	default:
	}

	_, err := m.sendCommand([]interface{}{"get_property", "pid"})
	return err == nil
}

// Dispose shuts down the mpv process, releases resources, and emits
// EventDispose exactly once.
func (m *MPV) Dispose() error {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return nil
	}
	m.disposed = true
	m.mu.Unlock()

	close(m.stopCh)

	if m.socketPath != "" {
		// Try graceful quit via IPC, then force.
		_, _ = m.sendCommand([]interface{}{"quit"})
		select {
		case <-m.exited:
		case <-time.After(3 * time.Second):
			_ = killProcess(m.cmd)
		}
		_ = os.Remove(m.socketPath)
	}

	m.Emit(EventDispose, nil)
	m.Bus.Close()
	return nil
}

func (m *MPV) setProperty(property string, value interface{}) error {
	_, err := m.sendCommand([]interface{}{"set_property", property, value})
	return err
}

// getFloatProperty is a helper to retrieve a float64 mpv property via IPC.
func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.sendCommand([]interface{}{"get_property", name})
	if err != nil {
		return 0, err
	}

	if data == nil {
		return 0, fmt.Errorf("property %s: nil response", name)
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}

	return val, nil
}

// sanitizeMediaTarget validates that a URL is safe to pass to mpv.
// Prevents flag injection from untrusted descriptor data.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	// Prevent flag injection: URLs must not start with -
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	// Treat as local file path
	return filepath.Clean(l), nil
}

// sanitizeTitle cleans up the title for mpv's command line.
func sanitizeTitle(title string) string {
	t := strings.ReplaceAll(title, "\n", " ")
	t = strings.ReplaceAll(t, "\r", " ")
	t = strings.ReplaceAll(t, "\t", " ")
	t = strings.ReplaceAll(t, "\x00", "")
	return strings.TrimSpace(t)
}
