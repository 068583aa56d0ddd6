package gen

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/syssam/zodgen/compiler/load"
)

// RelationEdge is one relation field seen as an edge of the dependency graph.
type RelationEdge struct {
	From  string
	To    string
	Field string
	// Relation is the relation name shared by both sides of a relation.
	Relation string
	// Index is the declaration index of the field in its model.
	Index    int
	Required bool
	List     bool
	// OwnsKey is set when the field declares the foreign key.
	OwnsKey bool
}

// Self reports if the edge points back to its own model.
func (e RelationEdge) Self() bool { return e.From == e.To }

// DependencyGraph is the relation graph of the in-scope models: a vertex per
// model and an edge A -> B when a relation field of A references B. Self
// relations are tracked per field but not added as graph edges.
type DependencyGraph struct {
	g      graph.Graph[string, string]
	models []string
	edges  map[string][]RelationEdge
	errs   []error
}

// NewDependencyGraph builds the graph of the given models. An empty scope
// means every model of the document. Relations to models outside the
// document are recorded as graph errors and skipped.
func NewDependencyGraph(doc *load.Document, scope ...string) (*DependencyGraph, error) {
	if doc == nil {
		return nil, NewGraphError("", "", "", "nil document", nil)
	}
	if len(scope) == 0 {
		scope = doc.ModelNames()
	}
	dg := &DependencyGraph{
		g:      graph.New(graph.StringHash, graph.Directed()),
		models: slices.Clone(scope),
		edges:  make(map[string][]RelationEdge, len(scope)),
	}
	for _, name := range scope {
		if doc.Model(name) == nil {
			return nil, NewGraphError(name, "", "", "model not found", nil)
		}
		if err := dg.g.AddVertex(name); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, NewGraphError(name, "", "", "add vertex", err)
		}
	}
	for _, name := range scope {
		m := doc.Model(name)
		for i, f := range m.Fields {
			if !f.IsRelation() {
				continue
			}
			if doc.Model(f.Type) == nil {
				dg.errs = append(dg.errs, NewGraphError(m.Name, f.Type, f.Name, "referenced model is not declared", nil))
				continue
			}
			if !slices.Contains(scope, f.Type) {
				continue
			}
			e := RelationEdge{
				From:     m.Name,
				To:       f.Type,
				Field:    f.Name,
				Relation: f.RelationName,
				Index:    i,
				Required: f.IsRequired && !f.IsList,
				List:     f.IsList,
				OwnsKey:  f.HoldsForeignKey(),
			}
			dg.edges[m.Name] = append(dg.edges[m.Name], e)
			if e.Self() {
				continue
			}
			if err := dg.g.AddEdge(e.From, e.To); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, NewGraphError(e.From, e.To, e.Field, "add edge", err)
			}
		}
	}
	return dg, nil
}

// Filter returns a copy of the graph holding the edges accepted by keep.
// Every model stays a vertex.
func (dg *DependencyGraph) Filter(keep func(RelationEdge) bool) (*DependencyGraph, error) {
	out := &DependencyGraph{
		g:      graph.New(graph.StringHash, graph.Directed()),
		models: slices.Clone(dg.models),
		edges:  make(map[string][]RelationEdge, len(dg.models)),
		errs:   slices.Clone(dg.errs),
	}
	for _, m := range dg.models {
		if err := out.g.AddVertex(m); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, NewGraphError(m, "", "", "add vertex", err)
		}
	}
	for _, e := range dg.AllEdges() {
		if !keep(e) {
			continue
		}
		out.edges[e.From] = append(out.edges[e.From], e)
		if e.Self() {
			continue
		}
		if err := out.g.AddEdge(e.From, e.To); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, NewGraphError(e.From, e.To, e.Field, "add edge", err)
		}
	}
	return out, nil
}

// Graph returns the underlying graph.
func (dg *DependencyGraph) Graph() graph.Graph[string, string] { return dg.g }

// Models returns the in-scope models in declaration order.
func (dg *DependencyGraph) Models() []string { return slices.Clone(dg.models) }

// Edges returns the relation edges of a model in declaration order.
func (dg *DependencyGraph) Edges(model string) []RelationEdge {
	return slices.Clone(dg.edges[model])
}

// AllEdges returns every relation edge, in model then field order.
func (dg *DependencyGraph) AllEdges() []RelationEdge {
	var all []RelationEdge
	for _, m := range dg.models {
		all = append(all, dg.edges[m]...)
	}
	return all
}

// Errors returns the graph problems found while building: relations to
// undeclared models.
func (dg *DependencyGraph) Errors() []error { return slices.Clone(dg.errs) }

// Dependencies returns the models a model references, sorted.
func (dg *DependencyGraph) Dependencies(model string) []string {
	adj, err := dg.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	deps := make([]string, 0, len(adj[model]))
	for to := range adj[model] {
		deps = append(deps, to)
	}
	sort.Strings(deps)
	return deps
}

// Cycles returns the strongly connected components with more than one model,
// each sorted, ordered by their first model.
func (dg *DependencyGraph) Cycles() ([][]string, error) {
	sccs, err := graph.StronglyConnectedComponents(dg.g)
	if err != nil {
		return nil, fmt.Errorf("zodgen: strongly connected components: %w", err)
	}
	var cycles [][]string
	for _, c := range sccs {
		if len(c) < 2 {
			continue
		}
		sort.Strings(c)
		cycles = append(cycles, c)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles, nil
}

// HasCycle reports if the graph contains a cycle between distinct models.
func (dg *DependencyGraph) HasCycle() bool {
	cycles, err := dg.Cycles()
	return err == nil && len(cycles) > 0
}

// Order returns the models in dependency order (dependencies last), with
// ties broken by name. It fails when the graph has a cycle.
func (dg *DependencyGraph) Order() ([]string, error) {
	order, err := graph.StableTopologicalSort(dg.g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, NewGraphError("", "", "", "relation graph is cyclic", err)
	}
	return order, nil
}
