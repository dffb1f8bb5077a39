// Package resolve implements the declarative source resolution chain and the
// quality menu builder. Resolution is synchronous and performs no network
// probing; every gap falls through a documented fallback rather than an error.
package resolve

import (
	"github.com/miru-player/miru/media"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Candidate is one playable source offered to the player. An ordered sequence
// of candidates forms the resolved playlist; ordering encodes preference.
type Candidate struct {
	URL          string `json:"url"`
	MIMEType     string `json:"mime_type"`
	QualityLabel string `json:"quality_label"`
}

// AutoLabel is the quality label attached to adaptive-manifest candidates.
const AutoLabel = "Auto"

// Placeholder source returned when a descriptor offers nothing playable.
const (
	placeholderURL   = "/media/placeholder.mp4"
	placeholderLabel = "default"
)

// Sources resolves the ordered candidate playlist for a media descriptor and
// a quality preference. The result is never empty. Priority:
//
//  1. Adaptive manifest with an auto preference (or no variant matching a
//     discrete preference): a single candidate for the master playlist.
//  2. Manifest variant matching a discrete preference: that variant alone.
//  3. Renditions: the matching rendition alone, or the full descending ladder.
//  4. The canonical media URL.
//  5. A hard-coded placeholder.
func Sources(d *media.Descriptor, quality media.Quality) []Candidate {
	if d == nil {
		return []Candidate{placeholder(media.KindVideo)}
	}

	kind := d.EffectiveKind()

	if manifest, ok := d.Manifest.Get(); ok {
		if !quality.IsAuto() {
			if label, url, ok := variantFor(manifest, quality); ok {
				return []Candidate{{
					URL:          url,
					MIMEType:     media.MIMEFor(url, kind),
					QualityLabel: label,
				}}
			}
		}
		return []Candidate{{
			URL:          manifest.URL,
			MIMEType:     media.MIMEFor(manifest.URL, kind),
			QualityLabel: AutoLabel,
		}}
	}

	if len(d.Renditions) > 0 {
		if !quality.IsAuto() {
			if r, ok := renditionFor(d.Renditions, quality); ok {
				return []Candidate{fromRendition(r, kind)}
			}
		}
		return lo.Map(Ladder(d.Renditions), func(r media.Rendition, _ int) Candidate {
			return fromRendition(r, kind)
		})
	}

	if d.URL != "" {
		return []Candidate{{
			URL:          d.URL,
			MIMEType:     media.MIMEFor(d.URL, kind),
			QualityLabel: "",
		}}
	}

	return []Candidate{placeholder(kind)}
}

// Ladder returns renditions sorted by descending resolution, the order offered
// to the player when no single quality wins.
func Ladder(renditions []media.Rendition) []media.Rendition {
	ladder := slices.Clone(renditions)
	slices.SortStableFunc(ladder, func(a, b media.Rendition) int {
		return heightOf(b) - heightOf(a)
	})
	return ladder
}

func variantFor(manifest media.Manifest, quality media.Quality) (label, url string, ok bool) {
	// Deterministic iteration; map order is not.
	labels := lo.Keys(manifest.Variants)
	slices.Sort(labels)

	for _, l := range labels {
		if manifest.Variants[l] != "" && quality.Matches(l) {
			return l, manifest.Variants[l], true
		}
	}
	return "", "", false
}

func renditionFor(renditions []media.Rendition, quality media.Quality) (media.Rendition, bool) {
	return lo.Find(renditions, func(r media.Rendition) bool {
		if r.URL == "" {
			return false
		}
		return quality.Matches(r.Label) || (r.Height != 0 && r.Height == quality.Height())
	})
}

func fromRendition(r media.Rendition, kind media.Kind) Candidate {
	return Candidate{
		URL:          r.URL,
		MIMEType:     media.MIMEFor(r.URL, kind),
		QualityLabel: r.Label,
	}
}

func heightOf(r media.Rendition) int {
	if r.Height != 0 {
		return r.Height
	}
	return media.LabelHeight(r.Label)
}

func placeholder(kind media.Kind) Candidate {
	return Candidate{
		URL:          placeholderURL,
		MIMEType:     media.MIMEFor(placeholderURL, kind),
		QualityLabel: placeholderLabel,
	}
}
