// Package pipeline drives the end-to-end slideshow run as an explicit state
// machine: analyze, acquire the engine, stage inputs, compile the filter
// graph, execute, retrieve the artifact, clean up.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keagan/fadereel/internal/analyze"
	"github.com/keagan/fadereel/internal/config"
	"github.com/keagan/fadereel/internal/engine"
	"github.com/keagan/fadereel/internal/filtergraph"
	"github.com/keagan/fadereel/internal/logging"
	"github.com/keagan/fadereel/pkg/util"
)

// Mode selects which sibling graph the run compiles.
type Mode int

const (
	ModeCrossfade Mode = iota
	ModeSideBySide
	ModeGrid
)

// Input is one caller-owned image: raw bytes plus the original filename.
// Input order fixes slide order end to end.
type Input struct {
	Name string
	Data []byte
}

// Options configure one run. Zero-valued timing fields fall back to the
// configured defaults.
type Options struct {
	Display     float64
	Transition  float64
	FPS         float64
	Mode        Mode
	GridColumns int
	OutputName  string
	Observer    Observer
}

// Orchestrator runs pipelines against a shared engine provider. At most one
// run per instance may be in flight; concurrency across instances is the
// caller's responsibility.
type Orchestrator struct {
	logger   zerolog.Logger
	cfg      *config.Config
	provider *engine.Provider

	mu   sync.Mutex
	busy bool
}

// New creates an orchestrator bound to a config and an engine provider.
func New(logger zerolog.Logger, cfg *config.Config, provider *engine.Provider) *Orchestrator {
	return &Orchestrator{
		logger:   logging.Component(logger, "pipeline"),
		cfg:      cfg,
		provider: provider,
	}
}

// Run executes the full pipeline and returns the produced artifact bytes.
// Every staged file and the output are deleted from engine storage on both
// success and failure. Validation failures surface before any engine
// interaction; engine failures are normalized into the package taxonomy.
func (o *Orchestrator) Run(ctx context.Context, inputs []Input, opts Options) ([]byte, error) {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return nil, ErrRunInFlight
	}
	o.busy = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.busy = false
		o.mu.Unlock()
	}()

	o.applyDefaults(&opts)
	t := newTracker(opts.Observer)

	// --- Analyze ---
	t.enter(StageAnalyzing, "analyzing inputs")

	copts := filtergraph.Options{
		Display:    opts.Display,
		Transition: opts.Transition,
		FPS:        opts.FPS,
		Limits:     o.limits(),
	}
	if err := o.validate(len(inputs), opts, copts); err != nil {
		return o.fail(t, err)
	}

	images, err := o.probe(t, inputs)
	if err != nil {
		return o.fail(t, fmt.Errorf("%w: %v", ErrIO, err))
	}
	canvas := analyze.Canvas(images)
	copts.Canvas = filtergraph.Canvas{Width: canvas.Width, Height: canvas.Height}

	o.logger.Info().
		Int("images", len(images)).
		Int("canvas_w", canvas.Width).
		Int("canvas_h", canvas.Height).
		Msg("inputs analyzed")

	// --- Acquire engine ---
	t.enter(StageAcquiring, "acquiring engine")
	eng, err := o.provider.Acquire(ctx)
	if err != nil {
		return o.fail(t, fmt.Errorf("%w: %v", ErrEngineUnavailable, err))
	}

	// --- Stage inputs ---
	t.enter(StageStaging, "staging inputs")
	staged := make([]string, 0, len(images))
	for i, img := range images {
		name := stagedName(img.Name)
		if err := eng.WriteInput(name, img.Data); err != nil {
			o.cleanup(t, eng, staged, opts.OutputName)
			return o.fail(t, fmt.Errorf("%w: stage %s: %v", ErrEngineExecutionFailed, img.Name, err))
		}
		staged = append(staged, name)
		t.step(StageStaging, i+1, len(images), fmt.Sprintf("staged %d/%d", i+1, len(images)))
	}

	// --- Compile ---
	t.enter(StageCompiling, "compiling filter graph")
	graph, err := o.compile(images, opts, copts)
	if err != nil {
		o.cleanup(t, eng, staged, opts.OutputName)
		return o.fail(t, err)
	}
	o.logger.Debug().
		Int("nodes", len(graph.Nodes)).
		Str("sink", graph.Sink).
		Msg("graph compiled")

	// --- Execute ---
	t.enter(StageExecuting, "rendering")
	argv := o.buildArgs(staged, graph, opts.OutputName)
	if err := eng.Run(ctx, argv); err != nil {
		o.cleanup(t, eng, staged, opts.OutputName)
		return o.fail(t, fmt.Errorf("%w: %v", ErrEngineExecutionFailed, err))
	}

	// --- Retrieve ---
	t.enter(StageRetrieving, "retrieving output")
	out, err := eng.ReadOutput(opts.OutputName)
	if err != nil {
		o.cleanup(t, eng, staged, opts.OutputName)
		return o.fail(t, fmt.Errorf("%w: %v", ErrEngineExecutionFailed, err))
	}

	// --- Clean up ---
	o.cleanup(t, eng, staged, opts.OutputName)

	t.complete("slideshow ready")
	o.logger.Info().Int("bytes", len(out)).Msg("pipeline complete")
	return out, nil
}

// Busy reports whether a run is in flight. The per-run state flows through
// the run's observer.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

func (o *Orchestrator) applyDefaults(opts *Options) {
	s := o.cfg.Slideshow
	if opts.Display == 0 {
		opts.Display = s.DisplaySeconds
	}
	if opts.Transition == 0 {
		opts.Transition = s.TransitionSeconds
	}
	if opts.FPS == 0 {
		opts.FPS = s.FPS
	}
	if opts.OutputName == "" {
		opts.OutputName = o.cfg.Encode.OutputName
	}
}

func (o *Orchestrator) limits() filtergraph.Limits {
	s := o.cfg.Slideshow
	return filtergraph.Limits{
		DisplayMin:    s.DisplayMin,
		DisplayMax:    s.DisplayMax,
		TransitionMin: s.TransitionMin,
		TransitionMax: s.TransitionMax,
	}
}

// validate enforces everything that must fail before engine interaction:
// input count bounds and, for the crossfade mode, the duration bounds the
// compiler will re-check.
func (o *Orchestrator) validate(n int, opts Options, copts filtergraph.Options) error {
	if max := o.cfg.Slideshow.MaxInputs; n > max {
		return fmt.Errorf("%w: %d exceeds the maximum of %d", ErrInvalidInputCount, n, max)
	}
	if opts.Mode != ModeCrossfade {
		if n < 2 {
			return fmt.Errorf("%w: got %d", ErrInvalidInputCount, n)
		}
		return nil
	}
	return copts.Validate(n)
}

func (o *Orchestrator) probe(t *tracker, inputs []Input) ([]analyze.ImageInput, error) {
	sources := make([]analyze.Source, len(inputs))
	for i, in := range inputs {
		sources[i] = analyze.Source{Name: in.Name, Data: in.Data}
	}
	images, err := analyze.Probe(sources)
	if err != nil {
		return nil, err
	}
	t.step(StageAnalyzing, len(images), len(images), "inputs analyzed")
	return images, nil
}

func (o *Orchestrator) compile(images []analyze.ImageInput, opts Options, copts filtergraph.Options) (*filtergraph.Graph, error) {
	sizes := make([]filtergraph.Size, len(images))
	for i, img := range images {
		sizes[i] = filtergraph.Size{Width: img.Width, Height: img.Height}
	}

	switch opts.Mode {
	case ModeSideBySide:
		return filtergraph.CompileStack(sizes, copts.Canvas)
	case ModeGrid:
		return filtergraph.CompileGrid(sizes, copts.Canvas, opts.GridColumns)
	default:
		return filtergraph.Compile(sizes, copts)
	}
}

// buildArgs assembles the engine invocation: staged inputs in slide order,
// the serialized graph, the sink mapping, codec flags, overwrite, output.
func (o *Orchestrator) buildArgs(staged []string, graph *filtergraph.Graph, outputName string) []string {
	enc := o.cfg.Encode

	args := make([]string, 0, 2*len(staged)+16)
	for _, name := range staged {
		args = append(args, "-i", name)
	}
	args = append(args,
		"-filter_complex", graph.Text(),
		"-map", "["+graph.Sink+"]",
		"-c:v", enc.VideoCodec,
		"-preset", enc.Preset,
		"-crf", strconv.Itoa(enc.CRF),
		"-pix_fmt", enc.PixelFormat,
		"-movflags", "+faststart",
		"-y",
		outputName,
	)
	return args
}

// cleanup deletes every staged input and the output artifact. It runs on
// both success and failure paths; an already-absent file never aborts the
// remaining deletions.
func (o *Orchestrator) cleanup(t *tracker, eng engine.Engine, staged []string, outputName string) {
	t.enter(StageCleanup, "cleaning up")
	names := append(append([]string{}, staged...), outputName)
	for i, name := range names {
		if err := eng.DeleteFile(name); err != nil {
			o.logger.Warn().Str("file", name).Err(err).Msg("cleanup failed")
		}
		t.step(StageCleanup, i+1, len(names), "cleaning up")
	}
}

func (o *Orchestrator) fail(t *tracker, err error) ([]byte, error) {
	t.fail(err, err.Error())
	o.logger.Error().Err(err).Msg("pipeline failed")
	return nil, err
}

// stagedName generates a collision-free engine storage name preserving the
// original extension so the engine can sniff the container.
func stagedName(original string) string {
	return uuid.NewString() + util.ExtensionOrDefault(original, ".img")
}
