package filtergraph

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidInputCount is returned when fewer than two images are supplied.
var ErrInvalidInputCount = errors.New("at least two images are required")

// ErrInvalidDuration is returned when a duration falls outside its
// configured bounds.
var ErrInvalidDuration = errors.New("duration out of range")

// Size is the natural pixel size of one input image, in slide order.
type Size struct {
	Width  int
	Height int
}

// Canvas is the shared output canvas. Both dimensions must be even.
type Canvas struct {
	Width  int
	Height int
}

// Limits are the accepted ranges for the user-tunable durations. They come
// from configuration, not from this package.
type Limits struct {
	DisplayMin    float64
	DisplayMax    float64
	TransitionMin float64
	TransitionMax float64
}

// DefaultLimits returns the stock duration bounds.
func DefaultLimits() Limits {
	return Limits{
		DisplayMin:    0.5,
		DisplayMax:    10,
		TransitionMin: 0.1,
		TransitionMax: 3,
	}
}

// Options are the compile parameters for one slideshow graph.
type Options struct {
	Display    float64
	Transition float64
	FPS        float64
	Canvas     Canvas
	Limits     Limits
}

// Validate checks the options against their limits without emitting
// anything. Compile calls this first; the orchestrator also calls it before
// any engine interaction.
func (o Options) Validate(n int) error {
	if n < 2 {
		return fmt.Errorf("%w: got %d", ErrInvalidInputCount, n)
	}
	l := o.Limits
	if l == (Limits{}) {
		l = DefaultLimits()
	}
	if o.Display < l.DisplayMin || o.Display > l.DisplayMax {
		return fmt.Errorf("%w: display %.2fs outside [%.2f, %.2f]",
			ErrInvalidDuration, o.Display, l.DisplayMin, l.DisplayMax)
	}
	if o.Transition < l.TransitionMin || o.Transition > l.TransitionMax {
		return fmt.Errorf("%w: transition %.2fs outside [%.2f, %.2f]",
			ErrInvalidDuration, o.Transition, l.TransitionMin, l.TransitionMax)
	}
	return nil
}

// Compile builds the crossfade slideshow graph for n images: one transform
// node per slide (v0..v{n-1}, input order) folded through n-1 crossfade
// nodes into a single stream. Pure and deterministic: identical inputs
// produce byte-identical text.
func Compile(images []Size, opts Options) (*Graph, error) {
	n := len(images)
	if err := opts.Validate(n); err != nil {
		return nil, err
	}

	g := &Graph{Nodes: make([]Node, 0, 2*n-1)}

	for i := range images {
		t := Timing(i, n, opts.Display, opts.Transition, opts.FPS)
		g.Nodes = append(g.Nodes, transformNode(i, t, opts))
	}

	// Fold the transform streams left to right. Offsets grow linearly with
	// the display duration; this intentionally ignores the cumulative
	// transition overlap, so offset_i = display*(i+1).
	prev := label("v", 0)
	offset := opts.Display
	for i := 0; i < n-1; i++ {
		out := label("xf", i)
		g.Nodes = append(g.Nodes, Node{
			Kind:   KindCrossfade,
			Inputs: []string{prev, label("v", i+1)},
			Filters: []Filter{{
				Name: "xfade",
				Args: []Arg{
					{Key: "transition", Value: "fade"},
					{Key: "duration", Value: seconds(opts.Transition)},
					{Key: "offset", Value: seconds(offset)},
				},
			}},
			Output: out,
		})
		prev = out
		offset += opts.Display
	}

	g.Sink = prev
	return g, nil
}

// transformNode builds the per-slide chain: fit-inside scale, center on a
// black canvas, square pixels, resample, alpha-capable format, loop the
// single frame, trim to the slide duration and restart timestamps.
func transformNode(i int, t SlideTiming, opts Options) Node {
	w := strconv.Itoa(opts.Canvas.Width)
	h := strconv.Itoa(opts.Canvas.Height)

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
			{Name: "fps", Args: []Arg{{Value: rate(opts.FPS)}}},
			{Name: "format", Args: []Arg{{Value: "yuva420p"}}},
			{Name: "loop", Args: []Arg{
				{Key: "loop", Value: strconv.Itoa(t.Loops)},
				{Key: "size", Value: "1"},
				{Key: "start", Value: "0"},
			}},
			{Name: "trim", Args: []Arg{{Key: "duration", Value: seconds(t.Duration)}}},
			{Name: "setpts", Args: []Arg{{Value: "PTS-STARTPTS"}}},
		},
		Output: label("v", i),
	}
}

func label(prefix string, i int) string {
	return prefix + strconv.Itoa(i)
}

// seconds serializes a duration with fixed two-decimal precision. Fixed
// precision keeps long chains free of compounding float formatting drift.
func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func rate(fps float64) string {
	return strconv.FormatFloat(fps, 'g', -1, 64)
}
