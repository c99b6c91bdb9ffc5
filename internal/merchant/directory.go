package merchant

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// AllCategories is the category filter value that matches every merchant.
const AllCategories = "Todos"

// Directory is an immutable, indexed snapshot of the merchant file.
type Directory struct {
	merchants []*Merchant
	byRep     map[string][]*Merchant
}

// NewDirectory indexes merchants by representative.
func NewDirectory(merchants []*Merchant) *Directory {
	d := &Directory{
		merchants: merchants,
		byRep:     make(map[string][]*Merchant),
	}
	for _, m := range merchants {
		d.byRep[m.RepresentativeID] = append(d.byRep[m.RepresentativeID], m)
	}
	return d
}

// Len returns the number of merchants.
func (d *Directory) Len() int { return len(d.merchants) }

// ForRepresentative returns the merchants assigned to repID, in file order.
func (d *Directory) ForRepresentative(repID string) []*Merchant {
	return d.byRep[repID]
}

// Lookup finds a representative's merchant by display name.
func (d *Directory) Lookup(repID, name string) (*Merchant, bool) {
	for _, m := range d.byRep[repID] {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Representatives returns every representative id present, sorted.
func (d *Directory) Representatives() []string {
	reps := make([]string, 0, len(d.byRep))
	for r := range d.byRep {
		reps = append(reps, r)
	}
	sort.Strings(reps)
	return reps
}

// Filter narrows a merchant list. Empty fields match everything.
type Filter struct {
	TaxID    string
	Category string
}

// Apply returns the merchants matching f, preserving order.
func (f Filter) Apply(merchants []*Merchant) []*Merchant {
	if f.TaxID == "" && (f.Category == "" || f.Category == AllCategories) {
		return merchants
	}
	var out []*Merchant
	for _, m := range merchants {
		if f.TaxID != "" && m.TaxID != f.TaxID {
			continue
		}
		if f.Category != "" && f.Category != AllCategories && m.Category != f.Category {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Categories returns the sorted distinct non-empty categories.
func Categories(merchants []*Merchant) []string {
	seen := make(map[string]bool)
	var cats []string
	for _, m := range merchants {
		if m.Category != "" && !seen[m.Category] {
			seen[m.Category] = true
			cats = append(cats, m.Category)
		}
	}
	sort.Strings(cats)
	return cats
}

// Source holds the current Directory loaded from a file and swaps it
// atomically on Reload.
type Source struct {
	path    string
	current atomic.Pointer[Directory]
}

// Open loads the directory file at path.
func Open(path string) (*Source, error) {
	s := &Source{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticSource wraps an already built directory.
func NewStaticSource(d *Directory) *Source {
	s := &Source{}
	s.current.Store(d)
	return s
}

// Path returns the file backing the source.
func (s *Source) Path() string { return s.path }

// Current returns the latest loaded snapshot.
func (s *Source) Current() *Directory { return s.current.Load() }

// Reload re-reads the file. On error the previous snapshot stays current.
func (s *Source) Reload() error {
	if s.path == "" {
		return fmt.Errorf("merchant source has no backing file")
	}
	merchants, err := Load(s.path)
	if err != nil {
		return err
	}
	s.current.Store(NewDirectory(merchants))
	return nil
}
