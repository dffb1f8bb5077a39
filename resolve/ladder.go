// Package resolve implements the declarative source resolution chain and the
// quality menu builder.
package resolve

import (
	"strings"

	"github.com/miru-player/miru/media"
	"golang.org/x/exp/slices"
)

// MenuEntry is one selectable option in the quality menu.
type MenuEntry struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	URL      string `json:"url"`
	MIMEType string `json:"mime_type"`
}

// unknownLabelRank sorts entries whose label carries no resolution number
// after every numeric entry.
const unknownLabelRank = 1 << 30

// Menu builds the ordered quality selection menu for a descriptor.
//
// "Auto" comes first whenever an adaptive manifest or more than one rendition
// exists. Entries lacking a concrete source URL are dropped, non-auto entries
// sort by ascending resolution number with unknown labels last, and duplicate
// quality values are collapsed (first source wins).
func Menu(d *media.Descriptor) []MenuEntry {
	if d == nil {
		return nil
	}

	kind := d.EffectiveKind()
	var entries []MenuEntry

	manifest, hasManifest := d.Manifest.Get()
	if hasManifest && manifest.URL != "" {
		entries = append(entries, MenuEntry{
			Label:    AutoLabel,
			Value:    string(media.Auto),
			URL:      manifest.URL,
			MIMEType: media.MIMEFor(manifest.URL, kind),
		})
	} else if len(d.Renditions) > 1 {
		// No manifest: auto means the descending rendition ladder, anchored on
		// its best entry.
		ladder := Ladder(d.Renditions)
		if ladder[0].URL != "" {
			entries = append(entries, MenuEntry{
				Label:    AutoLabel,
				Value:    string(media.Auto),
				URL:      ladder[0].URL,
				MIMEType: media.MIMEFor(ladder[0].URL, kind),
			})
		}
	}

	seen := map[string]bool{string(media.Auto): true}
	discrete := make([]MenuEntry, 0, len(d.Renditions))

	add := func(label, url string) {
		value := strings.ToLower(strings.TrimSpace(label))
		if value == "" || url == "" || seen[value] {
			return
		}
		seen[value] = true
		discrete = append(discrete, MenuEntry{
			Label:    label,
			Value:    value,
			URL:      url,
			MIMEType: media.MIMEFor(url, kind),
		})
	}

	if hasManifest {
		labels := make([]string, 0, len(manifest.Variants))
		for label := range manifest.Variants {
			labels = append(labels, label)
		}
		slices.Sort(labels)
		for _, label := range labels {
			add(label, manifest.Variants[label])
		}
	}
	for _, r := range d.Renditions {
		add(r.Label, r.URL)
	}

	slices.SortStableFunc(discrete, func(a, b MenuEntry) int {
		return rank(a.Label) - rank(b.Label)
	})

	return append(entries, discrete...)
}

func rank(label string) int {
	if h := media.LabelHeight(label); h != 0 {
		return h
	}
	return unknownLabelRank
}
