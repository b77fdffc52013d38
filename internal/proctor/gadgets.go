package proctor

import "github.com/ayusman/proctorvision/internal/detector"

// GadgetFilter maps raw object detections to prohibited item names.
type GadgetFilter struct {
	catalog       Catalog
	minConfidence float64
}

// NewGadgetFilter creates a filter over catalog. Detections below
// minConfidence are ignored; 0 keeps every detection.
func NewGadgetFilter(catalog Catalog, minConfidence float64) *GadgetFilter {
	return &GadgetFilter{
		catalog:       catalog,
		minConfidence: minConfidence,
	}
}

// Filter returns the distinct item names found in detections, in the order
// they were first discovered. Unknown labels are skipped.
func (f *GadgetFilter) Filter(detections []detector.Detection) []string {
	gadgets := make([]string, 0)
	seen := make(map[string]struct{})

	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		gadgets = append(gadgets, name)
	}

	for _, d := range detections {
		if d.Confidence < f.minConfidence {
			continue
		}
		if name, ok := f.catalog.Match(d.Label); ok {
			add(name)
		}
		// A label equal to a key takes that key's name even when an earlier
		// key matched as a substring.
		if name, ok := f.catalog.Exact(d.Label); ok {
			add(name)
		}
	}
	return gadgets
}
