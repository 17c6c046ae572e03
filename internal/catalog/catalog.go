// Package catalog holds the knowledge-node catalog: the hand-curated list of
// topical entities whose search-retrieval health the dashboard tracks.
// The catalog is loaded once at startup and never mutated afterwards.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Status is the AEO lifecycle stage of a knowledge node.
type Status string

const (
	StatusMissing      Status = "Missing"
	StatusEstablishing Status = "Establishing"
	StatusOptimizing   Status = "Optimizing"
	StatusOptimal      Status = "Optimal"
)

// Valid reports whether s is one of the known lifecycle stages.
func (s Status) Valid() bool {
	switch s {
	case StatusMissing, StatusEstablishing, StatusOptimizing, StatusOptimal:
		return true
	}
	return false
}

// Node is a single knowledge-node catalog entry.
type Node struct {
	Name          string  `yaml:"name" json:"name"`
	TopQuery      string  `yaml:"top_query" json:"top_query"`
	URL           string  `yaml:"url" json:"url"`
	Intent        string  `yaml:"intent" json:"intent"` // Commercial, Informational, Transactional
	Status        Status  `yaml:"status" json:"status"`
	RetrievalLift float64 `yaml:"retrieval_lift" json:"retrieval_lift"` // percentage, 0 when unknown
}

// Catalog is an ordered, immutable set of knowledge nodes.
type Catalog struct {
	nodes []Node
}

// New builds a catalog from the given nodes, validating each entry.
func New(nodes []Node) (*Catalog, error) {
	for i, n := range nodes {
		if n.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: name is required", i)
		}
		if !n.Status.Valid() {
			return nil, fmt.Errorf("catalog entry %q: unknown status %q", n.Name, n.Status)
		}
	}
	// Copy so callers can't mutate the backing slice afterwards
	owned := make([]Node, len(nodes))
	copy(owned, nodes)
	return &Catalog{nodes: owned}, nil
}

// LoadFile reads a YAML catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Nodes []Node `yaml:"nodes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog parse: %w", err)
	}
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("catalog file %s contains no nodes", path)
	}
	return New(doc.Nodes)
}

// Nodes returns the catalog entries in their defined order.
// The returned slice is a copy.
func (c *Catalog) Nodes() []Node {
	out := make([]Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Len returns the number of nodes in the catalog.
func (c *Catalog) Len() int { return len(c.nodes) }

// Find returns the node with the given name, if present.
func (c *Catalog) Find(name string) (Node, bool) {
	for _, n := range c.nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// Default returns the built-in Baby Bento knowledge-node catalog.
func Default() *Catalog {
	c, err := New([]Node{
		{
			Name:          "Insulated Lunch Boxes",
			TopQuery:      "best insulated lunch box australia",
			URL:           "/collections/insulated-lunch-boxes",
			Intent:        "Commercial",
			Status:        StatusOptimal,
			RetrievalLift: 12,
		},
		{
			Name:          "Stainless Steel Bento",
			TopQuery:      "leakproof metal bento",
			URL:           "/collections/metal-bento-boxes",
			Intent:        "Transactional",
			Status:        StatusEstablishing,
			RetrievalLift: 8,
		},
		{
			Name:          "Thermal Containers",
			TopQuery:      "how to keep soup hot in lunchbox",
			URL:           "/collections/thermal-containers",
			Intent:        "Informational",
			Status:        StatusMissing,
			RetrievalLift: 0,
		},
		{
			Name:          "Sushi Maker Kits",
			TopQuery:      "easy sushi maker kids bento",
			URL:           "/blogs/recipes/easy-sushi-maker-kids-bento",
			Intent:        "Informational",
			Status:        StatusMissing,
			RetrievalLift: 0,
		},
		{
			Name:          "Sport Drink Bottles",
			TopQuery:      "750ml sport drink bottle kids",
			URL:           "/products/lilac-montiico-750ml-sport-drink-bottle",
			Intent:        "Transactional",
			Status:        StatusEstablishing,
			RetrievalLift: 3,
		},
		{
			Name:          "Lunch Bags",
			TopQuery:      "insulated lunch bags top brands",
			URL:           "/blogs/product-review/australia-insulated-lunch-bags-top-brands-2026",
			Intent:        "Commercial",
			Status:        StatusOptimal,
			RetrievalLift: 229,
		},
		{
			Name:          "Kids Cutlery Accessories",
			TopQuery:      "kids lunchbox cutlery set",
			URL:           "/collections/accessories",
			Intent:        "Transactional",
			Status:        StatusOptimizing,
			RetrievalLift: 5,
		},
		{
			Name:          "Snack Containers",
			TopQuery:      "lunchbox solutions for busy parents",
			URL:           "/blogs/product-review/lunchbox-solutions-for-busy-parents",
			Intent:        "Informational",
			Status:        StatusEstablishing,
			RetrievalLift: 18,
		},
	})
	if err != nil {
		// Built-in catalog is validated by its own tests
		panic(err)
	}
	return c
}
