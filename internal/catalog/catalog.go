// Package catalog holds the fixed set of recovery conditions and the icon
// names a generated task may carry. The data is embedded and validated once;
// callers only ever see copies.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// OtherKey is the sentinel for a dynamically classified condition.
const OtherKey = "other"

// DefaultIcon is rendered for icon names outside the catalog.
const DefaultIcon = "Calendar"

//go:embed conditions.yaml
var embedded []byte

type Condition struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

// IsDynamic reports whether the condition is the "other" sentinel.
func (c Condition) IsDynamic() bool {
	return c.Key == OtherKey
}

type document struct {
	Conditions []Condition `yaml:"conditions"`
	Icons      []string    `yaml:"icons"`
}

type Catalog struct {
	conditions []Condition
	byKey      map[string]Condition
	icons      []string
	iconSet    map[string]struct{}
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. The embedded file is part of the
// build, so a validation failure is a programming error and panics.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded data invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		byKey:   make(map[string]Condition, len(doc.Conditions)),
		iconSet: make(map[string]struct{}, len(doc.Icons)),
	}

	for i, cond := range doc.Conditions {
		if cond.Key == "" {
			return nil, fmt.Errorf("condition %d has no key", i)
		}
		if cond.Name == "" {
			return nil, fmt.Errorf("condition %q has no name", cond.Key)
		}
		if _, dup := c.byKey[cond.Key]; dup {
			return nil, fmt.Errorf("duplicate condition key %q", cond.Key)
		}
		c.byKey[cond.Key] = cond
		c.conditions = append(c.conditions, cond)
	}
	if _, ok := c.byKey[OtherKey]; !ok {
		return nil, fmt.Errorf("catalog must contain the %q condition", OtherKey)
	}

	for _, icon := range doc.Icons {
		if icon == "" {
			return nil, fmt.Errorf("empty icon name")
		}
		if _, dup := c.iconSet[icon]; dup {
			return nil, fmt.Errorf("duplicate icon %q", icon)
		}
		c.iconSet[icon] = struct{}{}
		c.icons = append(c.icons, icon)
	}
	if len(c.icons) == 0 {
		return nil, fmt.Errorf("catalog has no icons")
	}

	return c, nil
}

func (c *Catalog) Lookup(key string) (Condition, bool) {
	cond, ok := c.byKey[key]
	return cond, ok
}

// Name returns the display name for key, or the key itself when unknown.
func (c *Catalog) Name(key string) string {
	if cond, ok := c.byKey[key]; ok {
		return cond.Name
	}
	return key
}

// IsCatalogKey reports whether key names a fixed plan (the sentinel excluded).
func (c *Catalog) IsCatalogKey(key string) bool {
	_, ok := c.byKey[key]
	return ok && key != OtherKey
}

func (c *Catalog) Conditions() []Condition {
	out := make([]Condition, len(c.conditions))
	copy(out, c.conditions)
	return out
}

// Keys lists condition keys in catalog order.
func (c *Catalog) Keys(includeOther bool) []string {
	keys := make([]string, 0, len(c.conditions))
	for _, cond := range c.conditions {
		if cond.Key == OtherKey && !includeOther {
			continue
		}
		keys = append(keys, cond.Key)
	}
	return keys
}

func (c *Catalog) Icons() []string {
	out := make([]string, len(c.icons))
	copy(out, c.icons)
	return out
}

func (c *Catalog) IsIcon(name string) bool {
	_, ok := c.iconSet[name]
	return ok
}
