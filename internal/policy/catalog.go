package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// Catalog resolves the configured policy id to its reset rules.
type Catalog struct {
	byID map[string]domain.Policy
}

// DefaultCatalog holds every built-in application.
func DefaultCatalog() *Catalog {
	return NewCatalog(NewWindsurfPolicy())
}

// NewCatalog converts apps once; a later app replaces an earlier one with the same ID.
func NewCatalog(apps ...AppPolicy) *Catalog {
	c := &Catalog{byID: make(map[string]domain.Policy, len(apps))}
	for _, a := range apps {
		c.byID[a.ID()] = ToPolicy(a)
	}
	return c
}

// GetByID returns a copy of the policy registered under id.
func (c *Catalog) GetByID(id string) (*domain.Policy, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("unknown policy %q (known: %s)", id, strings.Join(c.List(), ", "))
	}
	return &p, nil
}

// List returns the registered ids, sorted.
func (c *Catalog) List() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var _ domain.PolicyStore = (*Catalog)(nil)
