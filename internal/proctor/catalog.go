package proctor

import "strings"

// CatalogEntry maps a lowercase label fragment to the name shown to people.
type CatalogEntry struct {
	Key  string
	Name string
}

// Catalog is an ordered, read-only list of prohibited items.
// Entry order decides which entry wins when a label contains several keys.
type Catalog struct {
	entries []CatalogEntry
	exact   map[string]string
}

// NewCatalog builds a catalog from entries in priority order.
// Later duplicates of a key are ignored.
func NewCatalog(entries ...CatalogEntry) Catalog {
	c := Catalog{
		entries: make([]CatalogEntry, 0, len(entries)),
		exact:   make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		if _, dup := c.exact[e.Key]; dup {
			continue
		}
		c.entries = append(c.entries, e)
		c.exact[e.Key] = e.Name
	}
	return c
}

var defaultCatalog = NewCatalog(
	CatalogEntry{"cell phone", "Mobile Phone"},
	CatalogEntry{"laptop", "Laptop Computer"},
	CatalogEntry{"keyboard", "External Keyboard"},
	CatalogEntry{"tv", "TV/Monitor"},
	CatalogEntry{"remote", "Remote Control"},
	CatalogEntry{"mouse", "Computer Mouse"},
	CatalogEntry{"tablet", "Tablet Device"},
	CatalogEntry{"book", "Book/Notes"},
	CatalogEntry{"bottle", "Water Bottle"},
	CatalogEntry{"cup", "Cup/Mug"},
	CatalogEntry{"smartphone", "Smartphone"},
	CatalogEntry{"calculator", "Calculator"},
	CatalogEntry{"headphones", "Headphones/Earphones"},
	CatalogEntry{"microphone", "Microphone"},
	CatalogEntry{"camera", "Camera Device"},
	CatalogEntry{"watch", "Smart Watch"},
	CatalogEntry{"glasses", "Smart Glasses"},
)

// DefaultCatalog returns the built-in prohibited item catalog.
func DefaultCatalog() Catalog {
	return defaultCatalog
}

// Entries returns a copy of the catalog entries in priority order.
func (c Catalog) Entries() []CatalogEntry {
	out := make([]CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c Catalog) Len() int {
	return len(c.entries)
}

// Match lowercases label and returns the name of the first entry whose key it contains.
func (c Catalog) Match(label string) (string, bool) {
	lower := strings.ToLower(label)
	for _, e := range c.entries {
		if strings.Contains(lower, e.Key) {
			return e.Name, true
		}
	}
	return "", false
}

// Exact returns the name of the entry whose key equals label, case-sensitively.
func (c Catalog) Exact(label string) (string, bool) {
	name, ok := c.exact[label]
	return name, ok
}
