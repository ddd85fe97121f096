package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/fadereel/internal/config"
	"github.com/keagan/fadereel/internal/engine"
	"github.com/keagan/fadereel/internal/logging"
	"github.com/keagan/fadereel/internal/pipeline"
	"github.com/keagan/fadereel/pkg/util"
)

var (
	cfgFile string
	verbose bool

	output     string
	display    float64
	transition float64
	fps        float64
	columns    int
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fadereel",
	Short: "fadereel - crossfade slideshow renderer",
	Long:  "Turns an ordered set of still images into a single crossfade slideshow video.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "slideshow.mp4", "output video path")

	makeCmd.Flags().Float64Var(&display, "display", 0, "seconds each slide stays on screen (default from config)")
	makeCmd.Flags().Float64Var(&transition, "transition", 0, "crossfade duration in seconds (default from config)")
	makeCmd.Flags().Float64Var(&fps, "fps", 0, "output frame rate (default from config)")

	gridCmd.Flags().IntVar(&columns, "columns", 2, "grid column count")

	rootCmd.AddCommand(makeCmd)
	rootCmd.AddCommand(stackCmd)
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(configCmd)
}

var makeCmd = &cobra.Command{
	Use:   "make [images...]",
	Short: "Render a crossfade slideshow from ordered images",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := pipeline.Options{
			Display:    display,
			Transition: transition,
			FPS:        fps,
			Mode:       pipeline.ModeCrossfade,
		}
		return run(cmd.Context(), args, opts)
	},
}

var stackCmd = &cobra.Command{
	Use:   "stack [images...]",
	Short: "Render images side by side into one frame",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), args, pipeline.Options{Mode: pipeline.ModeSideBySide})
	},
}

var gridCmd = &cobra.Command{
	Use:   "grid [images...]",
	Short: "Render images as an N-up grid",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), args, pipeline.Options{
			Mode:        pipeline.ModeGrid,
			GridColumns: columns,
		})
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		out, err := cfg.Dump()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func run(ctx context.Context, paths []string, opts pipeline.Options) error {
	cfg := config.FromContext(ctx)

	inputs, err := readInputs(paths)
	if err != nil {
		return err
	}

	eng := engine.NewExec(log.Logger, cfg.Engine.BinaryPath, cfg.Engine.Threads)
	defer eng.Close()
	provider := engine.NewProvider(eng)
	orch := pipeline.New(log.Logger, cfg, provider)

	// Run-scoped progress fan-out; the CLI is one subscriber.
	broadcast := pipeline.NewBroadcaster()
	ch := broadcast.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for state := range ch {
			log.Info().
				Str("stage", state.Stage.String()).
				Int("progress", int(state.Progress)).
				Msg(state.Message)
		}
	}()

	opts.Observer = broadcast.Observer()

	start := time.Now()
	data, err := orch.Run(ctx, inputs, opts)
	broadcast.Close()
	wg.Wait()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := util.EnsureDir(dir); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.Info().
		Str("output", output).
		Int("bytes", len(data)).
		Str("elapsed", util.FormatDuration(time.Since(start))).
		Msg("done")
	return nil
}

func readInputs(paths []string) ([]pipeline.Input, error) {
	inputs := make([]pipeline.Input, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		inputs = append(inputs, pipeline.Input{Name: filepath.Base(path), Data: data})
	}
	return inputs, nil
}
