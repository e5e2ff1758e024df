package curriculum

import (
	"fmt"
	"sort"
)

// Graph is the read-only concept catalog. Concepts are kept in authoring
// order (ascending position); the first authored concept is the anchor that
// every new learner is steered to first.
type Graph struct {
	ordered []Concept
	byID    map[string]*Concept
}

// NewGraph validates the concept set and builds the graph.
func NewGraph(concepts []Concept) (*Graph, error) {
	ordered := make([]Concept, len(concepts))
	copy(ordered, concepts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	byID := make(map[string]*Concept, len(ordered))
	for i := range ordered {
		c := &ordered[i]
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate concept id %q", c.ID)
		}
		byID[c.ID] = c
	}

	for _, c := range ordered {
		for _, p := range c.Prerequisites {
			if _, ok := byID[p]; !ok {
				return nil, fmt.Errorf("concept %s: unknown prerequisite %q", c.ID, p)
			}
			if p == c.ID {
				return nil, fmt.Errorf("concept %s: is its own prerequisite", c.ID)
			}
		}
	}

	return &Graph{ordered: ordered, byID: byID}, nil
}

// Concepts returns all concepts in authoring order.
func (g *Graph) Concepts() []Concept {
	return g.ordered
}

// Get returns a concept by id.
func (g *Graph) Get(id string) (Concept, bool) {
	c, ok := g.byID[id]
	if !ok {
		return Concept{}, false
	}
	return *c, true
}

// Anchor returns the first authored concept. The recommendation engine
// forces it as the starting point for every learner.
func (g *Graph) Anchor() (Concept, bool) {
	if len(g.ordered) == 0 {
		return Concept{}, false
	}
	return g.ordered[0], true
}

// Len returns the number of concepts in the catalog.
func (g *Graph) Len() int {
	return len(g.ordered)
}
