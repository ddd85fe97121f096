// Package filtergraph compiles slide timing parameters into a typed
// filter-graph representation and serializes it to the engine's
// -filter_complex wire format.
package filtergraph

import "strings"

// NodeKind identifies what a graph node does.
type NodeKind int

const (
	// KindTransform is a per-slide chain: fit-inside scale, pad to canvas,
	// sample-aspect reset, resample, loop and trim to the slide duration.
	KindTransform NodeKind = iota
	// KindCrossfade blends two streams with a fade transition.
	KindCrossfade
	// KindStack composites streams spatially (hstack/xstack siblings).
	KindStack
)

// Arg is one filter argument. Key is empty for positional arguments.
type Arg struct {
	Key   string
	Value string
}

// Filter is a single named filter stage with its ordered arguments.
type Filter struct {
	Name string
	Args []Arg
}

// Node is one graph statement: input labels, a comma-chained filter list,
// and a unique output label.
type Node struct {
	Kind    NodeKind
	Inputs  []string
	Filters []Filter
	Output  string
}

// Graph is an ordered list of nodes plus the terminal sink label selected
// for encoding. A compiled graph is immutable.
type Graph struct {
	Nodes []Node
	Sink  string
}

// Text serializes the graph to the engine wire format: semicolon-separated
// statements of the form [in1][in2]name=k=v:v,name2=v[out], with no
// whitespace between statements.
func (g *Graph) Text() string {
	var b strings.Builder
	for i, n := range g.Nodes {
		if i > 0 {
			b.WriteByte(';')
		}
		writeNode(&b, n)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n Node) {
	for _, in := range n.Inputs {
		b.WriteByte('[')
		b.WriteString(in)
		b.WriteByte(']')
	}
	for i, f := range n.Filters {
		if i > 0 {
			b.WriteByte(',')
		}
		writeFilter(b, f)
	}
	b.WriteByte('[')
	b.WriteString(n.Output)
	b.WriteByte(']')
}

func writeFilter(b *strings.Builder, f Filter) {
	b.WriteString(f.Name)
	for i, a := range f.Args {
		if i == 0 {
			b.WriteByte('=')
		} else {
			b.WriteByte(':')
		}
		if a.Key != "" {
			b.WriteString(a.Key)
			b.WriteByte('=')
		}
		b.WriteString(a.Value)
	}
}
