package gen

import (
	"errors"
	"slices"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/syssam/zodgen/compiler/load"
)

// CircularResolver decides which relation fields of the pure variant survive
// so that the kept relations form an acyclic graph. It holds no state.
//
// Edges are considered in a fixed preference order and added greedily unless
// they close a cycle:
//
//  1. foreign-key scalars are never candidates and always survive
//  2. the side not holding the foreign key, whose relation object is the only
//     way to reach the related model
//  3. required relations before optional ones
//  4. singular relations before lists
//  5. declaration order
//
// Of every pair of self-relation fields exactly one survives. Self-relation
// fields are paired by relation name, unnamed ones with each other.
type CircularResolver struct{}

// CircularResolution is the outcome of a resolution over a whole graph.
type CircularResolution struct {
	kept map[string]map[string]bool
	// Edges are the kept relation edges, self relations included.
	Edges []RelationEdge
	// Dropped are the relation edges removed to break cycles.
	Dropped []RelationEdge
}

// Survives reports if a relation field of a model is kept.
func (r *CircularResolution) Survives(model, field string) bool {
	return r.kept[model][field]
}

// Kept returns the kept relation fields of a model, sorted.
func (r *CircularResolution) Kept(model string) []string {
	var names []string
	for f := range r.kept[model] {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

// Graph returns the graph induced by the kept relation fields between
// distinct models.
func (r *CircularResolution) Graph(models []string) (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, m := range models {
		if err := g.AddVertex(m); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, err
		}
	}
	for _, e := range r.Edges {
		if e.Self() {
			continue
		}
		if err := g.AddEdge(e.From, e.To); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, err
		}
	}
	return g, nil
}

// SelectSurvivingRelationFields returns the relation fields of the model that
// survive the resolution over the graph, together with the foreign-key
// scalars of the model.
func (CircularResolver) SelectSurvivingRelationFields(model *load.Model, all []*load.Model, dg *DependencyGraph) (map[string]bool, error) {
	res, err := CircularResolver{}.Resolve(dg)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool)
	for f := range res.kept[model.Name] {
		keep[f] = true
	}
	for fk := range model.ForeignKeyFields() {
		keep[fk] = true
	}
	if len(all) > 0 && !slices.ContainsFunc(all, func(m *load.Model) bool { return m.Name == model.Name }) {
		return nil, NewGraphError(model.Name, "", "", "model is not in scope", nil)
	}
	return keep, nil
}

// Resolve resolves every cycle of the graph.
func (CircularResolver) Resolve(dg *DependencyGraph) (*CircularResolution, error) {
	res := &CircularResolution{kept: make(map[string]map[string]bool)}
	keep := func(e RelationEdge) {
		if res.kept[e.From] == nil {
			res.kept[e.From] = make(map[string]bool)
		}
		res.kept[e.From][e.Field] = true
		res.Edges = append(res.Edges, e)
	}
	rank := make(map[string]int, len(dg.models))
	for i, m := range dg.models {
		rank[m] = i
	}
	var (
		edges []RelationEdge
		self  = make(map[string][]RelationEdge)
	)
	for _, e := range dg.AllEdges() {
		if e.Self() {
			// Unnamed self relations of a model pair with each other.
			key := e.From + "\x00" + e.Relation
			self[key] = append(self[key], e)
			continue
		}
		edges = append(edges, e)
	}
	less := func(a, b RelationEdge) bool {
		if a.OwnsKey != b.OwnsKey {
			return !a.OwnsKey
		}
		if a.Required != b.Required {
			return a.Required
		}
		if a.List != b.List {
			return !a.List
		}
		if rank[a.From] != rank[b.From] {
			return rank[a.From] < rank[b.From]
		}
		return a.Index < b.Index
	}
	sort.SliceStable(edges, func(i, j int) bool { return less(edges[i], edges[j]) })

	g := graph.New(graph.StringHash, graph.Directed())
	for _, m := range dg.models {
		if err := g.AddVertex(m); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, NewGraphError(m, "", "", "add vertex", err)
		}
	}
	for _, e := range edges {
		cycle, err := graph.CreatesCycle(g, e.From, e.To)
		if err != nil {
			return nil, NewGraphError(e.From, e.To, e.Field, "cycle check", err)
		}
		if cycle {
			res.Dropped = append(res.Dropped, e)
			continue
		}
		if err := g.AddEdge(e.From, e.To); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, NewGraphError(e.From, e.To, e.Field, "add edge", err)
		}
		keep(e)
	}

	keys := make([]string, 0, len(self))
	for k := range self {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		group := self[k]
		sort.SliceStable(group, func(i, j int) bool { return less(group[i], group[j]) })
		keep(group[0])
		res.Dropped = append(res.Dropped, group[1:]...)
	}
	sort.SliceStable(res.Dropped, func(i, j int) bool {
		a, b := res.Dropped[i], res.Dropped[j]
		if rank[a.From] != rank[b.From] {
			return rank[a.From] < rank[b.From]
		}
		return a.Index < b.Index
	})
	return res, nil
}
