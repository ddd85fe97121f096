package filtergraph

import (
	"fmt"
	"strconv"
)

// CompileStack builds the side-by-side sibling graph: every image is fitted
// onto a canvas-sized cell, then the cells are stacked horizontally. No
// timing arithmetic is involved.
func CompileStack(images []Size, canvas Canvas) (*Graph, error) {
	n := len(images)
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidInputCount, n)
	}

	g := &Graph{Nodes: make([]Node, 0, n+1)}
	inputs := make([]string, 0, n)

	for i := range images {
		out := label("v", i)
		g.Nodes = append(g.Nodes, cellNode(i, canvas, out))
		inputs = append(inputs, out)
	}

	g.Nodes = append(g.Nodes, Node{
		Kind:   KindStack,
		Inputs: inputs,
		Filters: []Filter{{
			Name: "hstack",
			Args: []Arg{{Key: "inputs", Value: strconv.Itoa(n)}},
		}},
		Output: "stacked",
	})
	g.Sink = "stacked"
	return g, nil
}

// CompileGrid builds the N-up sibling graph: cells are fitted like the
// stack case and placed on an xstack layout with the given column count.
func CompileGrid(images []Size, canvas Canvas, columns int) (*Graph, error) {
	n := len(images)
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidInputCount, n)
	}
	if columns < 1 {
		columns = 2
	}

	g := &Graph{Nodes: make([]Node, 0, n+1)}
	inputs := make([]string, 0, n)

	for i := range images {
		out := label("v", i)
		g.Nodes = append(g.Nodes, cellNode(i, canvas, out))
		inputs = append(inputs, out)
	}

	layout := ""
	for i := range images {
		if i > 0 {
			layout += "|"
		}
		col := i % columns
		row := i / columns
		layout += fmt.Sprintf("%d_%d", col*canvas.Width, row*canvas.Height)
	}

	g.Nodes = append(g.Nodes, Node{
		Kind:   KindStack,
		Inputs: inputs,
		Filters: []Filter{{
			Name: "xstack",
			Args: []Arg{
				{Key: "inputs", Value: strconv.Itoa(n)},
				{Key: "layout", Value: layout},
			},
		}},
		Output: "grid",
	})
	g.Sink = "grid"
	return g, nil
}

// cellNode fits one image onto a canvas-sized black cell, without the
// loop/trim stages the slideshow path needs.
func cellNode(i int, canvas Canvas, out string) Node {
	w := strconv.Itoa(canvas.Width)
	h := strconv.Itoa(canvas.Height)

	return Node{
		Kind:   KindTransform,
		Inputs: []string{fmt.Sprintf("%d:v", i)},
		Filters: []Filter{
			{Name: "scale", Args: []Arg{
				{Value: w},
				{Value: h},
				{Key: "force_original_aspect_ratio", Value: "decrease"},
			}},
			{Name: "pad", Args: []Arg{
				{Value: w},
				{Value: h},
				{Value: "(ow-iw)/2"},
				{Value: "(oh-ih)/2"},
				{Key: "color", Value: "black"},
			}},
			{Name: "setsar", Args: []Arg{{Value: "1"}}},
		},
		Output: out,
	}
}
