// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Media Playback - these keys drive source resolution and the behavioral handlers
// attached to a live player.
const (
	PlaybackQuality              = "playback.quality"
	PlaybackAutoplay             = "playback.autoplay"
	PlaybackSeekStep             = "playback.seek_step"
	PlaybackCompletionPercentage = "playback.completion_percentage"
	PlaybackIndicatorHideAfterMs = "playback.indicator_hide_after_ms"
)

// Subtitle Preferences - these keys persist text-track selection across sessions.
const (
	SubtitlesLanguage = "subtitles.language"
	SubtitlesEnabled  = "subtitles.enabled"
)

// Player Backend - these keys select the external playback engine.
const (
	Player = "player.default"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-interactive application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
