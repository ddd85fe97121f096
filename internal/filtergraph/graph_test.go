package filtergraph

import (
	"strings"
	"testing"
)

func TestGraphText_WireFormat(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			{
				Inputs: []string{"0:v"},
				Filters: []Filter{
					{Name: "scale", Args: []Arg{{Value: "640"}, {Value: "480"}}},
					{Name: "hflip"},
				},
				Output: "a",
			},
			{
				Inputs: []string{"a", "1:v"},
				Filters: []Filter{
					{Name: "xfade", Args: []Arg{
						{Key: "transition", Value: "fade"},
						{Key: "duration", Value: "0.50"},
						{Key: "offset", Value: "1.50"},
					}},
				},
				Output: "out",
			},
		},
		Sink: "out",
	}

	want := "[0:v]scale=640:480,hflip[a];[a][1:v]xfade=transition=fade:duration=0.50:offset=1.50[out]"
	if got := g.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestGraphText_NoWhitespace(t *testing.T) {
	g, err := Compile(sizes(4), opts(2, 1, 30, Canvas{Width: 640, Height: 480}))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	text := g.Text()
	for _, bad := range []string{" ", "\t", "\n"} {
		if strings.Contains(text, bad) {
			t.Errorf("graph text contains whitespace %q", bad)
		}
	}
	if n := strings.Count(text, ";"); n != len(g.Nodes)-1 {
		t.Errorf("got %d statement separators, want %d", n, len(g.Nodes)-1)
	}
}

func TestCompileStack(t *testing.T) {
	g, err := CompileStack(sizes(3), Canvas{Width: 320, Height: 240})
	if err != nil {
		t.Fatalf("CompileStack: %v", err)
	}
	if len(g.Nodes) != 4 {
		t.Fatalf("got %d nodes, want 4", len(g.Nodes))
	}
	last := g.Nodes[3]
	if last.Kind != KindStack {
		t.Errorf("last node kind = %v, want stack", last.Kind)
	}
	if !strings.Contains(g.Text(), "[v0][v1][v2]hstack=inputs=3[stacked]") {
		t.Errorf("unexpected stack statement in %s", g.Text())
	}
	if g.Sink != "stacked" {
		t.Errorf("sink = %q, want stacked", g.Sink)
	}
}

func TestCompileStack_InvalidInputCount(t *testing.T) {
	if _, err := CompileStack(sizes(1), Canvas{Width: 320, Height: 240}); err == nil {
		t.Error("expected error for single input")
	}
}

func TestCompileGrid_Layout(t *testing.T) {
	g, err := CompileGrid(sizes(4), Canvas{Width: 100, Height: 80}, 2)
	if err != nil {
		t.Fatalf("CompileGrid: %v", err)
	}
	want := "xstack=inputs=4:layout=0_0|100_0|0_80|100_80[grid]"
	if !strings.Contains(g.Text(), want) {
		t.Errorf("graph text missing %q\ntext: %s", want, g.Text())
	}
}
