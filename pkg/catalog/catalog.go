// Package catalog answers name and id lookups over an exported dataset.
package catalog

import (
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/export"
	"github.com/matzehuels/shipyard/pkg/sde"
)

// DefaultLimit caps search results when the caller passes no limit.
const DefaultLimit = 20

// hiddenSuffixes mark names that are recipes rather than products.
var hiddenSuffixes = []string{"Blueprint", "Reaction Formula"}

// Entry is a named type.
type Entry struct {
	ID           sde.TypeID `json:"id"`
	Name         string     `json:"name"`
	Manufactured bool       `json:"manufactured"`
}

// Catalog indexes an [export.Export] for lookups. It is read-only after New
// and safe for concurrent use.
type Catalog struct {
	exp     *export.Export
	entries []Entry // searchable names, sorted by name
	lower   []string
}

// New builds a Catalog over e.
func New(e *export.Export) *Catalog {
	c := &Catalog{exp: e}
	for name, id := range e.TypeNames {
		if hidden(name) {
			continue
		}
		_, manufactured := e.Blueprints[id]
		c.entries = append(c.entries, Entry{ID: id, Name: name, Manufactured: manufactured})
	}
	slices.SortFunc(c.entries, func(a, b Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	c.lower = make([]string, len(c.entries))
	for i, entry := range c.entries {
		c.lower[i] = strings.ToLower(entry.Name)
	}
	return c
}

// Export returns the underlying dataset.
func (c *Catalog) Export() *export.Export { return c.exp }

// Len returns the number of searchable names.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup resolves a numeric id or an exact name.
// Unknown ids and names fail with [errors.ErrCodeNotFound].
func (c *Catalog) Lookup(nameOrID string) (Entry, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if err := errors.ValidateQuery(nameOrID); err != nil {
		return Entry{}, err
	}

	if n, err := strconv.ParseInt(nameOrID, 10, 64); err == nil {
		id := sde.TypeID(n)
		if _, ok := c.exp.TypeIDs[id]; !ok {
			return Entry{}, errors.New(errors.ErrCodeNotFound, "unknown type id %d", id)
		}
		return c.entry(id), nil
	}

	id, ok := c.exp.TypeNames[nameOrID]
	if !ok {
		return Entry{}, errors.New(errors.ErrCodeNotFound, "unknown type %q", nameOrID)
	}
	return c.entry(id), nil
}

// Search returns up to limit entries whose name contains query,
// case-insensitively, sorted by name. Blueprints and reaction formulas are
// never returned. A limit of zero or less means [DefaultLimit].
func (c *Catalog) Search(query string, limit int) ([]Entry, error) {
	if err := errors.ValidateQuery(query); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := []Entry{}
	for i, name := range c.lower {
		if !strings.Contains(name, q) {
			continue
		}
		out = append(out, c.entries[i])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Name returns the display name of id, falling back to the decimal id.
func (c *Catalog) Name(id sde.TypeID) string {
	if name := c.exp.Name(id); name != "" {
		return name
	}
	return strconv.FormatInt(id, 10)
}

func (c *Catalog) entry(id sde.TypeID) Entry {
	_, manufactured := c.exp.Blueprints[id]
	return Entry{ID: id, Name: c.exp.Name(id), Manufactured: manufactured}
}

func hidden(name string) bool {
	for _, suffix := range hiddenSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
