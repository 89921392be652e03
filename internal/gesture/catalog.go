package gesture

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/ayusman/handson/internal/detector"
)

//go:embed templates.json
var defaultTemplates []byte

// ErrInvalidTemplate is returned when a catalog entry is malformed.
var ErrInvalidTemplate = errors.New("invalid template")

// Catalog is a read-only set of templates keyed by gesture name.
// It is safe for concurrent use.
type Catalog struct {
	byName     map[string]*Template
	normalized map[string]*Template
	names      []string
}

// catalogEntry is the on-disk form of a template. Exactly one of Distances
// and Points is set; Points are fingerprinted at load time.
type catalogEntry struct {
	Name      string             `json:"name"`
	Joints    []detector.Joint   `json:"joints"`
	Distances []float64          `json:"distances,omitempty"`
	Points    []detector.Point2D `json:"points,omitempty"`
	Tolerance float64            `json:"tolerance"`
}

// NewCatalog builds a catalog from already validated templates.
func NewCatalog(templates ...*Template) (*Catalog, error) {
	c := &Catalog{
		byName:     make(map[string]*Template, len(templates)),
		normalized: make(map[string]*Template, len(templates)),
	}

	for _, t := range templates {
		if err := validate(t); err != nil {
			return nil, err
		}
		if _, dup := c.byName[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidTemplate, t.Name)
		}
		key := normalizeName(t.Name)
		if other, dup := c.normalized[key]; dup {
			return nil, fmt.Errorf("%w: %q and %q differ only in case or spacing", ErrInvalidTemplate, other.Name, t.Name)
		}
		c.byName[t.Name] = t
		c.normalized[key] = t
		c.names = append(c.names, t.Name)
	}

	sort.Strings(c.names)
	return c, nil
}

// LoadCatalog parses a JSON array of catalog entries.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var entries []catalogEntry
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	templates := make([]*Template, 0, len(entries))
	for i, e := range entries {
		t, err := e.template()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		templates = append(templates, t)
	}

	return NewCatalog(templates...)
}

// LoadCatalogFile reads a catalog from a JSON file.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	c, err := LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

// DefaultCatalog returns the built-in letter and phrase templates.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultTemplates))
}

// Lookup finds a template by exact name, falling back to a case- and
// whitespace-insensitive match.
func (c *Catalog) Lookup(name string) (*Template, bool) {
	if c == nil {
		return nil, false
	}
	if t, ok := c.byName[name]; ok {
		return t, true
	}
	t, ok := c.normalized[normalizeName(name)]
	return t, ok
}

// Names returns all template names in sorted order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Templates returns all templates ordered by name.
func (c *Catalog) Templates() []*Template {
	if c == nil {
		return nil
	}
	out := make([]*Template, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.byName[name])
	}
	return out
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

func (e catalogEntry) template() (*Template, error) {
	t := &Template{
		Name:      e.Name,
		Joints:    e.Joints,
		Distances: e.Distances,
		Tolerance: e.Tolerance,
	}

	switch {
	case len(e.Distances) > 0 && len(e.Points) > 0:
		return nil, fmt.Errorf("%w: %q has both distances and points", ErrInvalidTemplate, e.Name)
	case len(e.Points) > 0:
		if len(e.Points) != len(e.Joints) {
			return nil, fmt.Errorf("%w: %q has %d points for %d joints",
				ErrInvalidTemplate, e.Name, len(e.Points), len(e.Joints))
		}
		t.Distances = Fingerprint(e.Points)
	case len(e.Distances) == 0:
		return nil, fmt.Errorf("%w: %q has neither distances nor points", ErrInvalidTemplate, e.Name)
	}

	return t, nil
}

func validate(t *Template) error {
	if t == nil {
		return fmt.Errorf("%w: nil template", ErrInvalidTemplate)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTemplate)
	}
	if len(t.Joints) < 2 {
		return fmt.Errorf("%w: %q needs at least two joints", ErrInvalidTemplate, t.Name)
	}
	for _, j := range t.Joints {
		if !j.Valid() {
			return fmt.Errorf("%w: %q has unknown joint %d", ErrInvalidTemplate, t.Name, int(j))
		}
	}
	if want := PairCount(len(t.Joints)); len(t.Distances) != want {
		return fmt.Errorf("%w: %q has %d distances, want %d for %d joints",
			ErrInvalidTemplate, t.Name, len(t.Distances), want, len(t.Joints))
	}
	if t.Tolerance <= 0 {
		return fmt.Errorf("%w: %q tolerance must be positive", ErrInvalidTemplate, t.Name)
	}
	return nil
}

func normalizeName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(norm.NFKC.String(name)), " "))
}
