// Package media defines the domain model for a playable item and its encoded sources.
package media

import (
	"path"
	"strings"
)

// Extension-to-MIME tables keyed on declared media kind. Inference is a pure
// heuristic over the URL path; no probing occurs.
var (
	videoMIMETypes = map[string]string{
		"m3u8": "application/x-mpegURL",
		"mpd":  "application/dash+xml",
		"mp4":  "video/mp4",
		"m4v":  "video/mp4",
		"webm": "video/webm",
		"mkv":  "video/x-matroska",
		"mov":  "video/quicktime",
		"ogv":  "video/ogg",
		"avi":  "video/x-msvideo",
		"ts":   "video/mp2t",
	}

	audioMIMETypes = map[string]string{
		"m3u8": "application/x-mpegURL",
		"mp3":  "audio/mpeg",
		"m4a":  "audio/mp4",
		"aac":  "audio/aac",
		"ogg":  "audio/ogg",
		"oga":  "audio/ogg",
		"opus": "audio/opus",
		"flac": "audio/flac",
		"wav":  "audio/wav",
	}
)

// Per-kind defaults applied when no extension hint matches.
const (
	defaultVideoMIME = "video/mp4"
	defaultAudioMIME = "audio/mpeg"
)

// MIMEFor infers the MIME type of a source URL from its file extension,
// keyed on the declared media kind.
func MIMEFor(rawURL string, kind Kind) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(stripQuery(rawURL)), "."))

	if kind == KindAudio {
		if mime, ok := audioMIMETypes[ext]; ok {
			return mime
		}
		return defaultAudioMIME
	}

	if mime, ok := videoMIMETypes[ext]; ok {
		return mime
	}
	return defaultVideoMIME
}

func stripQuery(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
