package filtergraph

import "math"

// SlideTiming holds the derived per-slide timing parameters.
type SlideTiming struct {
	// Duration is the slide's on-screen time in seconds, transition
	// compensation included.
	Duration float64
	// Frames is the number of frames covering Duration at the run's rate.
	Frames int
	// Loops is how often the single source frame is repeated.
	Loops int
}

// Timing derives the timing for slide i of n. Edge slides participate in
// exactly one transition and receive half the transition compensation;
// interior slides overlap with both neighbors and receive the full amount.
func Timing(i, n int, display, transition, fps float64) SlideTiming {
	duration := display + transition
	if i == 0 || i == n-1 {
		duration = display + transition/2
	}

	frames := int(math.Ceil(duration * fps))
	if frames < 1 {
		frames = 1
	}

	return SlideTiming{
		Duration: duration,
		Frames:   frames,
		Loops:    frames - 1,
	}
}
