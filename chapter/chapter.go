// Package chapter converts raw chapter timing records into validated, second-based intervals.
package chapter

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/miru-player/miru/media"
	"github.com/samber/lo"
)

// Interval represents a continuous temporal range within a media item.
// Start < End for real chapters; equal times degrade to a zero-length marker.
// Intervals are trusted in the order provided; overlaps are not reconciled.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Title string  `json:"title"`
}

// genericTitles lists placeholder titles that mark an auto-generated
// whole-video chapter rather than real segmentation. English-only; extend for
// localized inputs.
var genericTitles = []string{"segment", "chapter", "part", "video", "full video"}

// wholeSpanTolerance is the slack, in seconds, allowed when deciding whether a
// single chapter covers the entire media item.
const wholeSpanTolerance = 1.0

// Normalize converts raw chapter records into second-based intervals.
//
// An empty input yields an empty result. More than one record is always
// considered real segmentation and returned as-is, converted. Exactly one
// record is suppressed when it is a degenerate whole-video marker: a generic
// title spanning the full duration within tolerance, or, when the duration is
// unknown, a generic title starting at zero.
func Normalize(raw []media.RawChapter, totalDuration float64) []Interval {
	if len(raw) == 0 {
		return nil
	}

	intervals := lo.Map(raw, func(r media.RawChapter, _ int) Interval {
		return Interval{
			Start: Seconds(r.Start),
			End:   Seconds(r.End),
			Title: r.Title,
		}
	})

	if len(intervals) > 1 {
		return intervals
	}

	only := intervals[0]
	if !isGenericTitle(only.Title) {
		return intervals
	}

	if totalDuration > 0 {
		spansWhole := only.Start <= wholeSpanTolerance &&
			abs(only.End-totalDuration) <= wholeSpanTolerance
		if spansWhole {
			return nil
		}
		return intervals
	}

	// Duration unknown: a generic title starting at zero is still treated as
	// "no real chapters".
	if only.Start == 0 {
		return nil
	}
	return intervals
}

// Seconds converts a raw time field into seconds. Accepted forms are numeric
// values and colon-delimited "HH:MM:SS[.fff]" strings; anything else parses
// to zero.
func Seconds(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		return parseClock(t)
	default:
		return 0
	}
}

// parseClock parses "HH:MM:SS[.fff]" (or "MM:SS") into seconds.
// Parsing failures yield zero.
func parseClock(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	parts := strings.Split(s, ":")
	if len(parts) == 1 {
		f, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0
		}
		return f
	}
	if len(parts) > 3 {
		return 0
	}

	var total float64
	for _, part := range parts {
		f, err := strconv.ParseFloat(part, 64)
		if err != nil || f < 0 {
			return 0
		}
		total = total*60 + f
	}
	return total
}

func isGenericTitle(title string) bool {
	return lo.Contains(genericTitles, strings.ToLower(strings.TrimSpace(title)))
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
