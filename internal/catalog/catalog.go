// Package catalog holds the static registry of assessable domains.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"careerquest-service/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed domains.yaml
var defaultDocument []byte

type document struct {
	Domains []entry `yaml:"domains"`
}

type entry struct {
	ID                   string            `yaml:"id"`
	Name                 string            `yaml:"name"`
	LocalizedName        map[string]string `yaml:"localized_name"`
	Description          string            `yaml:"description"`
	LocalizedDescription map[string]string `yaml:"localized_description"`
	Category             string            `yaml:"category"`
	Icon                 string            `yaml:"icon"`
	Theme                string            `yaml:"theme"`
	Persona              string            `yaml:"persona"`
}

// Catalog is an immutable, ordered set of domains.
type Catalog struct {
	domains []domain.Domain
	byID    map[string]int
	members map[domain.Category]map[string]struct{}
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(defaultDocument)
		if err != nil {
			panic(fmt.Sprintf("embedded domain catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load parses and validates a YAML catalog document.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.toDomains())
}

// New builds a catalog from already-decoded domains.
func New(domains []domain.Domain) (*Catalog, error) {
	c := &Catalog{
		domains: make([]domain.Domain, 0, len(domains)),
		byID:    make(map[string]int, len(domains)),
		members: map[domain.Category]map[string]struct{}{
			domain.CategoryAviation:     {},
			domain.CategoryHospitality:  {},
			domain.CategoryCareerSkills: {},
		},
	}
	for _, d := range domains {
		if strings.TrimSpace(d.ID) == "" {
			return nil, fmt.Errorf("domain %q has an empty id", d.Name)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate domain id %q", d.ID)
		}
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("domain %q has no name", d.ID)
		}
		set, ok := c.members[d.Category]
		if !ok {
			return nil, fmt.Errorf("domain %q: %w %q", d.ID, domain.ErrUnknownCategory, d.Category)
		}
		set[d.ID] = struct{}{}
		c.byID[d.ID] = len(c.domains)
		c.domains = append(c.domains, d)
	}
	return c, nil
}

// ListDomains returns every domain in declaration order.
func (c *Catalog) ListDomains() []domain.Domain {
	out := make([]domain.Domain, len(c.domains))
	copy(out, c.domains)
	return out
}

// FilterByCategory returns the domains whose id belongs to the category's id set.
func (c *Catalog) FilterByCategory(category domain.Category) []domain.Domain {
	if category == domain.CategoryAll {
		return c.ListDomains()
	}
	set, ok := c.members[category]
	if !ok {
		return []domain.Domain{}
	}
	out := make([]domain.Domain, 0, len(set))
	for _, d := range c.domains {
		if _, member := set[d.ID]; member {
			out = append(out, d)
		}
	}
	return out
}

// Lookup finds a domain by id.
func (c *Catalog) Lookup(id string) (domain.Domain, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return domain.Domain{}, false
	}
	return c.domains[idx], true
}

func (d document) toDomains() []domain.Domain {
	out := make([]domain.Domain, 0, len(d.Domains))
	for _, e := range d.Domains {
		out = append(out, domain.Domain{
			ID:                   e.ID,
			Name:                 e.Name,
			LocalizedName:        e.LocalizedName,
			Description:          e.Description,
			LocalizedDescription: e.LocalizedDescription,
			Category:             domain.Category(e.Category),
			Icon:                 e.Icon,
			Theme:                e.Theme,
			Persona:              domain.Persona(e.Persona),
		})
	}
	return out
}
