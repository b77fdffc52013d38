package proctor

import (
	"reflect"
	"testing"

	"github.com/ayusman/proctorvision/internal/detector"
)

func det(label string, conf float64) detector.Detection {
	return detector.Detection{Label: label, Confidence: conf}
}

func TestCatalog_Match(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		label  string
		want   string
		wantOK bool
	}{
		{label: "cell phone", want: "Mobile Phone", wantOK: true},
		{label: "Cell Phone", want: "Mobile Phone", wantOK: true},
		{label: "laptop", want: "Laptop Computer", wantOK: true},
		{label: "tv", want: "TV/Monitor", wantOK: true},
		{label: "wristwatch", want: "Smart Watch", wantOK: true},
		{label: "teacup", want: "Cup/Mug", wantOK: true},
		{label: "cellphone case", wantOK: false},
		{label: "person", wantOK: false},
		{label: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := c.Match(tt.label)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Match(%q) = (%q, %v), want (%q, %v)", tt.label, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCatalog_FirstKeyWins(t *testing.T) {
	c := NewCatalog(
		CatalogEntry{Key: "phone", Name: "Phone"},
		CatalogEntry{Key: "smartphone", Name: "Smartphone"},
	)

	got, ok := c.Match("smartphone")
	if !ok || got != "Phone" {
		t.Errorf("expected first entry to win, got (%q, %v)", got, ok)
	}
}

func TestCatalog_Exact(t *testing.T) {
	c := DefaultCatalog()

	if name, ok := c.Exact("laptop"); !ok || name != "Laptop Computer" {
		t.Errorf("Exact(laptop) = (%q, %v)", name, ok)
	}
	if _, ok := c.Exact("Laptop"); ok {
		t.Error("Exact should be case-sensitive")
	}
}

func TestCatalog_EntriesIsCopy(t *testing.T) {
	c := DefaultCatalog()
	entries := c.Entries()
	if len(entries) != 17 {
		t.Fatalf("expected 17 entries, got %d", len(entries))
	}
	if entries[0].Key != "cell phone" {
		t.Errorf("expected first key cell phone, got %q", entries[0].Key)
	}

	entries[0].Name = "changed"
	if DefaultCatalog().Entries()[0].Name != "Mobile Phone" {
		t.Error("mutating Entries() must not change the catalog")
	}
}

func TestNewCatalog_IgnoresDuplicateKeys(t *testing.T) {
	c := NewCatalog(
		CatalogEntry{Key: "book", Name: "Book"},
		CatalogEntry{Key: "book", Name: "Notes"},
	)
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
	if name, _ := c.Match("book"); name != "Book" {
		t.Errorf("expected first definition to win, got %q", name)
	}
}

func TestGadgetFilter_Filter(t *testing.T) {
	f := NewGadgetFilter(DefaultCatalog(), 0)

	t.Run("non-matching labels produce nothing", func(t *testing.T) {
		got := f.Filter([]detector.Detection{det("cell phone", 0.8), det("cellphone case", 0.7)})
		want := []string{"Mobile Phone"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("duplicate labels collapse", func(t *testing.T) {
		got := f.Filter([]detector.Detection{det("cell phone", 0.8), det("cell phone", 0.6), det("Cell Phone", 0.5)})
		want := []string{"Mobile Phone"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("discovery order is kept", func(t *testing.T) {
		got := f.Filter([]detector.Detection{det("book", 0.4), det("person", 0.99), det("laptop", 0.9), det("book", 0.3)})
		want := []string{"Book/Notes", "Laptop Computer"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("low confidence still counts by default", func(t *testing.T) {
		got := f.Filter([]detector.Detection{det("remote", 0.01)})
		if len(got) != 1 || got[0] != "Remote Control" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("empty input yields empty non-nil set", func(t *testing.T) {
		got := f.Filter(nil)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})
}

func TestGadgetFilter_MinConfidence(t *testing.T) {
	f := NewGadgetFilter(DefaultCatalog(), 0.5)

	got := f.Filter([]detector.Detection{det("cell phone", 0.49), det("laptop", 0.5)})
	want := []string{"Laptop Computer"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGadgetFilter_ExactPathAddsShadowedKey(t *testing.T) {
	c := NewCatalog(
		CatalogEntry{Key: "phone", Name: "Phone"},
		CatalogEntry{Key: "smartphone", Name: "Smartphone"},
	)
	f := NewGadgetFilter(c, 0)

	got := f.Filter([]detector.Detection{det("smartphone", 0.9)})
	want := []string{"Phone", "Smartphone"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
