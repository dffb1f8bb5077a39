// Package media defines the domain model for a playable item and its encoded sources.
package media

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/miru-player/miru/util"
)

// Quality is a user playback quality preference: either Auto or a discrete
// resolution label such as "720p".
type Quality string

// Auto delegates quality selection to the adaptive playback engine.
const Auto Quality = "auto"

var heightPattern = regexp.MustCompile(`(?P<height>\d+)`)

// IsAuto reports whether the preference delegates selection to the engine.
// The empty preference counts as auto.
func (q Quality) IsAuto() bool {
	return q == "" || strings.EqualFold(string(q), string(Auto))
}

// Height extracts the numeric resolution from a discrete label.
// Returns 0 for auto or unrecognized labels.
func (q Quality) Height() int {
	if q.IsAuto() {
		return 0
	}
	return LabelHeight(string(q))
}

// Matches reports whether a source's quality label satisfies the preference.
// Labels match on case-insensitive equality or on equal resolution numbers
// ("720p" matches "720P" and "720").
func (q Quality) Matches(label string) bool {
	if strings.EqualFold(string(q), label) {
		return true
	}
	h := q.Height()
	return h != 0 && h == LabelHeight(label)
}

// LabelHeight parses the resolution number out of a quality label.
// Returns 0 when the label carries no number.
func LabelHeight(label string) int {
	groups := util.ReGroups(heightPattern, label)
	height, err := strconv.Atoi(groups["height"])
	if err != nil {
		return 0
	}
	return height
}
