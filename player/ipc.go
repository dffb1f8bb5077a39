// Package player defines the capability surface consumed by the playback coordinator.
package player

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miru-player/miru/log"
)

// ipcCommand is the JSON structure sent to mpv's IPC socket.
type ipcCommand struct {
	Command []interface{} `json:"command"`
}

// ipcResponse is the JSON structure received from mpv's IPC socket.
type ipcResponse struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error"`
	Event string      `json:"event"`
	ID    int         `json:"id"`
	Name  string      `json:"name"`
}

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	readDeadline = 1 * time.Second
	readBufSize  = 4096
)

// sendCommand sends a JSON-IPC command to mpv via Unix domain socket.
// It implements a retry mechanism for transient connection errors and ensures thread safety.
func (m *MPV) sendCommand(command []interface{}) (interface{}, error) {
	m.ipcMu.Lock()
	defer m.ipcMu.Unlock()

	if m.socketPath == "" {
		return nil, fmt.Errorf("mpv not started")
	}

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}

		result, err := doSendCommand(m.socketPath, command)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("ipc command failed after %d attempts: %w", maxRetries, lastErr)
}

// doSendCommand performs a single IPC command attempt.
func doSendCommand(socketPath string, command []interface{}) (interface{}, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	payload, err := json.Marshal(ipcCommand{Command: command})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	// mpv requires newline-delimited JSON
	_, err = conn.Write(append(payload, '\n'))
	if err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	buf := make([]byte, readBufSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var resp ipcResponse
	if err := json.Unmarshal(buf[:n], &resp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	if resp.Error != "" && resp.Error != "success" {
		return nil, fmt.Errorf("mpv error: %s", resp.Error)
	}

	return resp.Data, nil
}

// observe subscribes to the mpv properties the coordinator cares about and
// starts the background loop translating their changes into Bus events.
func (m *MPV) observe() error {
	properties := []struct {
		id   int
		name string
	}{
		{1, "time-pos"},
		{2, "pause"},
		{3, "eof-reached"},
		{4, "fullscreen"},
	}

	for _, prop := range properties {
		_, err := doSendCommand(m.socketPath, []interface{}{"observe_property", prop.id, prop.name})
		if err != nil {
			return fmt.Errorf("observe %s: %w", prop.name, err)
		}
	}

	// Persistent connection for the event read loop.
	conn, err := net.Dial("unix", m.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	go m.readLoop(conn)

	log.Infof("mpv event listener started on %s", m.socketPath)
	return nil
}

// readLoop continuously reads newline-delimited JSON events from mpv and
// forwards them to handleIPCEvent.
func (m *MPV) readLoop(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, readBufSize)
	var remainder []byte

	for {
		select {
		case <-m.stopCh:
			return
		case <-m.exited:
			return
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}

		n, err := conn.Read(buf)
		if err != nil {
			if strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline") {
				continue // timeout is normal, keep listening
			}
			select {
			case <-m.stopCh:
			case <-m.exited:
			default:
				log.Warnf("mpv event read error: %v", err)
			}
			return
		}

		remainder = append(remainder, buf[:n]...)

		// Events are newline-delimited; process every complete line.
		for {
			idx := bytes.IndexByte(remainder, '\n')
			if idx < 0 {
				break
			}
			line := remainder[:idx]
			remainder = remainder[idx+1:]

			var payload struct {
				Event string      `json:"event"`
				Name  string      `json:"name"`
				Data  interface{} `json:"data"`
			}
			if err := json.Unmarshal(line, &payload); err != nil {
				continue
			}
			m.handleIPCEvent(payload.Event, payload.Name, payload.Data)
		}
	}
}

// handleIPCEvent maps mpv events and property changes onto the Bus event model.
func (m *MPV) handleIPCEvent(event, property string, data interface{}) {
	switch event {
	case "file-loaded":
		m.Emit(EventLoadedMetadata, nil)
		m.Emit(EventCanPlay, nil)

		m.mu.Lock()
		first := !m.readySent
		m.readySent = true
		m.mu.Unlock()
		if first {
			m.Emit(EventReady, nil)
		}
		return

	case "property-change":
		// handled below

	default:
		return
	}

	switch property {
	case "time-pos":
		if pos, ok := data.(float64); ok {
			m.Emit(EventTimeUpdate, pos)
		}

	case "pause":
		if paused, ok := data.(bool); ok {
			if paused {
				m.Emit(EventPause, nil)
			} else {
				m.Emit(EventPlay, nil)
			}
		}

	case "eof-reached":
		if reached, ok := data.(bool); ok && reached {
			m.Emit(EventEnded, nil)
		}

	case "fullscreen":
		if full, ok := data.(bool); ok {
			m.Emit(EventFullscreenChange, full)
		}
	}
}
