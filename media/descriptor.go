// Package media defines the domain model for a playable item and its encoded sources.
package media

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/samber/mo"
)

// Kind discriminates the declared media type of a descriptor.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Author identifies the uploader or channel of a media item.
type Author struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Manifest references an adaptive (multi-variant) playlist for a media item.
type Manifest struct {
	// Master playlist URL.
	URL string `json:"url"`
	// Optional per-quality variant playlists, keyed by quality label (e.g. "720p").
	Variants map[string]string `json:"variants,omitempty"`
}

// Rendition is one fixed-resolution encoded file for a media item.
type Rendition struct {
	Height int    `json:"height"`
	Label  string `json:"label"`
	URL    string `json:"url"`
}

// SubtitleTrack describes one selectable text track.
type SubtitleTrack struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Label    string `json:"label"`
	URL      string `json:"url"`
}

// RawChapter is an unvalidated chapter timing record as ingested.
// Start and End accept either numeric seconds or colon-delimited
// "HH:MM:SS[.fff]" strings; see the chapter package for normalization.
type RawChapter struct {
	Start any    `json:"start"`
	End   any    `json:"end"`
	Title string `json:"title"`
}

// Related references another playable item offered for follow-up navigation.
type Related struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Poster string `json:"poster"`
}

// Descriptor identifies a playable item together with every encoded source and
// auxiliary track known for it. It is immutable once loaded and replaced
// wholesale on navigation to a new item; absent fields degrade to defaults and
// never fail construction.
type Descriptor struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author Author `json:"author"`
	Poster string `json:"poster"`
	Kind   Kind   `json:"kind"`

	// Duration in seconds, when known ahead of playback. Zero means unknown.
	Duration float64 `json:"duration"`

	// Manifest is the adaptive playlist, when one exists.
	Manifest mo.Option[Manifest] `json:"manifest"`

	// Renditions are fixed-resolution encodings, highest quality not guaranteed first.
	Renditions []Rendition `json:"renditions,omitempty"`

	// URL is the single canonical media file, used when neither a manifest nor
	// renditions are available.
	URL string `json:"url"`

	Chapters  []RawChapter    `json:"chapters,omitempty"`
	Subtitles []SubtitleTrack `json:"subtitles,omitempty"`
	Related   []Related       `json:"related,omitempty"`
}

func (d *Descriptor) String() string {
	if d.Title != "" {
		return d.Title
	}
	return d.ID
}

// EffectiveKind returns the declared media kind, defaulting to video.
func (d *Descriptor) EffectiveKind() Kind {
	if d.Kind == KindAudio {
		return KindAudio
	}
	return KindVideo
}

// Decode reads a JSON descriptor. Missing fields are tolerated; only malformed
// JSON is an error.
func Decode(r io.Reader) (*Descriptor, error) {
	var d Descriptor
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode media descriptor: %w", err)
	}
	return &d, nil
}
