package pref

import (
	"strings"

	"github.com/miru-player/miru/key"
	"github.com/miru-player/miru/log"
	"github.com/miru-player/miru/player"
	"github.com/samber/lo"
)

// MatchLanguage reports whether a stored language preference matches a track
// language tag. Tags match exactly (case-insensitive) or when one is a
// locale-subtag prefix of the other, so "en" matches "en-US" and vice versa.
func MatchLanguage(stored, tag string) bool {
	a := strings.ToLower(strings.TrimSpace(stored))
	b := strings.ToLower(strings.TrimSpace(tag))

	if a == "" || b == "" {
		return a == b
	}
	if a == b {
		return true
	}

	return strings.HasPrefix(a, b+"-") || strings.HasPrefix(b, a+"-")
}

// ApplyTo pushes the stored subtitle state onto a live player. It is
// idempotent: the player is only touched when its state differs from the
// stored preference, so re-applying on every readiness event is safe.
func (s *Store) ApplyTo(p player.Player) {
	enabled := s.GetBool(key.SubtitlesEnabled)
	language := s.GetString(key.SubtitlesLanguage)

	if !enabled {
		if p.SelectedTextTrack() != "" {
			s.mu.Lock()
			s.applying = true
			s.mu.Unlock()
			defer func() {
				s.mu.Lock()
				s.applying = false
				s.mu.Unlock()
			}()

			if err := p.DisableTextTracks(); err != nil {
				log.Warnf("disable text tracks: %v", err)
			}
		}
		return
	}

	tracks := p.TextTracks()
	if len(tracks) == 0 {
		return
	}

	track, found := lo.Find(tracks, func(t player.TextTrack) bool {
		return MatchLanguage(language, t.Language)
	})

	if !found {
		if language != "" {
			// The preferred language is not available for this media.
			return
		}

		// No stored language yet: infer from the first available track.
		track = tracks[0]
		s.Set(key.SubtitlesLanguage, track.Language, false)
	}

	if p.SelectedTextTrack() == track.ID {
		return
	}

	// Selection below echoes back as a texttrackchange event; the applying
	// flag keeps AutoSave from recording it as a user choice.
	s.mu.Lock()
	s.applying = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.applying = false
		s.mu.Unlock()
	}()

	if err := p.SelectTextTrack(track.ID); err != nil {
		log.Warnf("select text track %s: %v", track.ID, err)
	}
}

// AutoSave wires player events back into the store so that user-driven
// changes persist immediately. It returns a disposer removing exactly the
// listeners it registered.
func (s *Store) AutoSave(p player.Player) (off func()) {
	offTracks := p.On(player.EventTextTrackChange, func(data any) {
		change, ok := data.(player.TrackChange)
		if !ok {
			return
		}

		s.mu.Lock()
		applying := s.applying
		s.mu.Unlock()
		if applying {
			return
		}

		s.Set(key.SubtitlesEnabled, change.Enabled, true)
		if change.Enabled && change.Language != "" {
			s.Set(key.SubtitlesLanguage, change.Language, true)
		}
	})

	offQuality := p.On(player.EventQualityChange, func(data any) {
		label, ok := data.(string)
		if !ok || label == "" {
			return
		}

		s.Set(key.PlaybackQuality, strings.ToLower(label), true)
	})

	return func() {
		offTracks()
		offQuality()
	}
}
