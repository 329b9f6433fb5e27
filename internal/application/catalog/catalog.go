// Package catalog holds the named reaction templates that requests can refer
// to by id instead of sending a SMARTS string.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/rxnguard/internal/domain/reaction"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/rxnguard/pkg/errors"
)

//go:embed defaults.yaml
var defaultCatalog []byte

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

// Difficulty grades a reaction for teaching use.
type Difficulty int

const (
	DifficultyEasy   Difficulty = 1
	DifficultyMedium Difficulty = 2
	DifficultyHard   Difficulty = 3
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// Entry is one named template.
type Entry struct {
	ID         string     `yaml:"id" json:"id"`
	Category   string     `yaml:"category" json:"category"`
	Name       string     `yaml:"name" json:"name"`
	Difficulty Difficulty `yaml:"difficulty" json:"difficulty"`
	Smarts     string     `yaml:"smarts" json:"smarts"`
	Condition  string     `yaml:"condition,omitempty" json:"condition,omitempty"`
}

type document struct {
	Reactions []Entry `yaml:"reactions"`
}

// Issue is a catalog entry whose template does not parse.
type Issue struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// Catalog is a concurrency-safe, replaceable set of entries kept in file
// order.
type Catalog struct {
	mu      sync.RWMutex
	entries []Entry
	byID    map[string]int
	source  string
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(c *Catalog) { c.metrics = m }
}

func WithLogger(log logging.Logger) Option {
	return func(c *Catalog) {
		if log != nil {
			c.logger = log
		}
	}
}

func newCatalog(opts ...Option) *Catalog {
	c := &Catalog{byID: map[string]int{}, logger: logging.NewNopLogger()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Default returns the built-in catalog.
func Default(opts ...Option) *Catalog {
	c := newCatalog(opts...)
	entries, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in catalog is invalid: %v", err))
	}
	c.replace(entries, "builtin")
	return c
}

// Load reads the catalog at path.  A missing file falls back to the built-in
// catalog; an unreadable or invalid one is an error.
func Load(path string, opts ...Option) (*Catalog, error) {
	if path == "" {
		return Default(opts...), nil
	}
	c := newCatalog(opts...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c.logger.Info("Catalog file not found, using built-in catalog", logging.String("path", path))
		return Default(opts...), nil
	}
	if err := c.Reload(path); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload replaces the entries with the contents of path.  On error the
// current entries stay in place.
func (c *Catalog) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "read catalog")
	}
	entries, err := Parse(data)
	if err != nil {
		return err
	}
	c.replace(entries, path)
	c.logger.Info("Catalog loaded", logging.String("source", path), logging.Int("reactions", len(entries)))
	return nil
}

// Parse decodes and checks a catalog document.  Ids must be present and
// unique; every entry needs a template.  Difficulty defaults to easy.
func Parse(data []byte) ([]Entry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode catalog")
	}
	seen := make(map[string]bool, len(doc.Reactions))
	for i := range doc.Reactions {
		e := &doc.Reactions[i]
		e.ID = strings.TrimSpace(e.ID)
		e.Smarts = strings.TrimSpace(e.Smarts)
		switch {
		case e.ID == "":
			return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("catalog entry %d has no id", i))
		case seen[e.ID]:
			return nil, errors.New(errors.ErrCodeConflict, fmt.Sprintf("duplicate catalog id %q", e.ID))
		case e.Smarts == "":
			return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("catalog entry %q has no smarts", e.ID))
		}
		if e.Difficulty == 0 {
			e.Difficulty = DifficultyEasy
		}
		if e.Difficulty < DifficultyEasy || e.Difficulty > DifficultyHard {
			return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("catalog entry %q has difficulty %d", e.ID, e.Difficulty))
		}
		if e.Name == "" {
			e.Name = e.ID
		}
		seen[e.ID] = true
	}
	return doc.Reactions, nil
}

func (c *Catalog) replace(entries []Entry, source string) {
	byID := make(map[string]int, len(entries))
	for i, e := range entries {
		byID[e.ID] = i
	}
	c.mu.Lock()
	c.entries = entries
	c.byID = byID
	c.source = source
	c.mu.Unlock()
	prometheus.RecordCatalogSize(c.metrics, len(entries))
}

// Source is the path the entries came from, or "builtin".
func (c *Catalog) Source() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Get looks up an entry by id.
func (c *Catalog) Get(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Resolve maps an id to its template and display name.
func (c *Catalog) Resolve(id string) (string, string, error) {
	e, ok := c.Get(id)
	if !ok {
		return "", "", errors.New(errors.ErrCodeCatalogEntryNotFound, fmt.Sprintf("unknown reaction id %q", id))
	}
	return e.Smarts, e.Name, nil
}

// List returns the entries in file order, filtered by category when it is
// non-empty.  The match is case-insensitive.
func (c *Catalog) List(category string) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if category == "" || strings.EqualFold(e.Category, category) {
			out = append(out, e)
		}
	}
	return out
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, e := range c.entries {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Validate parses every template and reports the ones that fail.
func (c *Catalog) Validate() []Issue {
	var issues []Issue
	for _, e := range c.List("") {
		if _, err := reaction.ParseTemplate(e.Smarts); err != nil {
			issues = append(issues, Issue{ID: e.ID, Error: errors.UserMessage(err)})
		}
	}
	return issues
}

//Personal.AI order the ending
