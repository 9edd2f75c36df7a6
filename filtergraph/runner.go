package filtergraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/livekit/protocol/logger"

	"gofiltergraph/filtergraph/filter"
	"gofiltergraph/filtergraph/graph"
	"gofiltergraph/filtergraph/pcm"
)

// Stats summarizes a finished job.
type Stats struct {
	FramesIn   int
	SamplesIn  int
	FramesOut  int
	SamplesOut int
	Duration   time.Duration
}

// Runner executes a job described by a Config.
type Runner struct {
	cfg      Config
	logger   *slog.Logger
	registry *filter.Registry
}

func NewRunner(cfg Config, log *slog.Logger, registry *filter.Registry) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if registry == nil {
		registry = filter.Default
	}
	return &Runner{cfg: cfg, logger: log, registry: registry}
}

// NewGraph builds the filter graph of the job without running it.
func (r *Runner) NewGraph() (*graph.FilterGraph, error) {
	inputs := make([]pcm.FrameDescriptor, len(r.cfg.Inputs))
	for i, in := range r.cfg.Inputs {
		inputs[i] = in.Format
	}
	codec := graph.Codec{Format: r.cfg.Output.Format, FrameSize: r.cfg.Output.FrameSamples}
	g := graph.New(codec, inputs,
		graph.WithRegistry(r.registry),
		graph.WithLogger(logger.GetLogger().WithValues("output", r.cfg.Output.Path)),
	)
	for _, s := range r.cfg.Filters {
		if _, err := g.AddFilter(s.Name, s.Options, s.Instance); err != nil {
			_ = g.Close()
			return nil, err
		}
	}
	return g, nil
}

// Validate builds and initializes the graph of the job.
func (r *Runner) Validate() error {
	if len(r.cfg.Filters) == 0 {
		return r.checkPassThrough()
	}
	g, err := r.NewGraph()
	if err != nil {
		return err
	}
	defer g.Close()
	return g.Init()
}

func (r *Runner) checkPassThrough() error {
	if len(r.cfg.Inputs) != 1 {
		return fmt.Errorf("pass-through needs exactly one input, got %d", len(r.cfg.Inputs))
	}
	if in, out := r.cfg.Inputs[0].Format, r.cfg.Output.Format; in != out {
		return fmt.Errorf("pass-through: %w: input %s, output %s", pcm.ErrFormatMismatch, in, out)
	}
	return nil
}

// RunFiles opens the configured files and runs the job.
func (r *Runner) RunFiles(ctx context.Context) (Stats, error) {
	readers := make([]io.Reader, 0, len(r.cfg.Inputs))
	for _, in := range r.cfg.Inputs {
		f, err := os.Open(in.Path)
		if err != nil {
			return Stats{}, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		readers = append(readers, f)
	}
	out, err := os.Create(r.cfg.Output.Path)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to create output: %w", err)
	}
	stats, err := r.Run(ctx, readers, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close output: %w", cerr)
	}
	return stats, err
}

// Run reads every input until EOF, runs the frames through the graph and
// writes the result to output.
func (r *Runner) Run(ctx context.Context, inputs []io.Reader, output io.Writer) (Stats, error) {
	if len(inputs) != len(r.cfg.Inputs) {
		return Stats{}, fmt.Errorf("%w: got %d readers for %d inputs", graph.ErrInputCount, len(inputs), len(r.cfg.Inputs))
	}
	start := time.Now()
	decoders := make([]*Decoder, len(inputs))
	for i, in := range r.cfg.Inputs {
		d, err := NewDecoder(inputs[i], in.Format, in.FrameSamples)
		if err != nil {
			return Stats{}, invalidConfig{field: fmt.Sprintf("inputs[%d]", i), err: err}
		}
		decoders[i] = d
	}
	enc := NewEncoder(output, r.cfg.Output.Format)

	var (
		stats Stats
		err   error
	)
	if len(r.cfg.Filters) == 0 {
		err = r.passThrough(ctx, decoders[0], enc, &stats)
	} else {
		err = r.filter(ctx, decoders, enc, &stats)
	}
	stats.FramesOut = enc.frames
	stats.SamplesOut = enc.samples
	stats.Duration = time.Since(start)
	if err != nil {
		r.logger.Warn("job failed", "error", err, "frames_in", stats.FramesIn, "frames_out", stats.FramesOut)
		return stats, err
	}
	r.logger.Info("job finished",
		"frames_in", stats.FramesIn,
		"samples_in", stats.SamplesIn,
		"frames_out", stats.FramesOut,
		"samples_out", stats.SamplesOut,
		"duration", stats.Duration,
	)
	return stats, nil
}

func (r *Runner) filter(ctx context.Context, decoders []*Decoder, enc *Encoder, stats *Stats) error {
	g, err := r.NewGraph()
	if err != nil {
		return err
	}
	defer g.Close()
	if err := g.Init(); err != nil {
		return err
	}

	frames := make([]*pcm.Frame, len(decoders))
	done := make([]bool, len(decoders))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		read := 0
		for i, d := range decoders {
			frames[i] = nil
			if done[i] {
				continue
			}
			f, err := d.ReadFrame()
			if errors.Is(err, io.EOF) {
				done[i] = true
				r.logger.Debug("input finished", "input", i)
				continue
			} else if err != nil {
				releaseAll(frames)
				return fmt.Errorf("input %d: %w", i, err)
			}
			frames[i] = f
			read++
			stats.FramesIn++
			stats.SamplesIn += f.SampleCount()
		}
		if read == 0 {
			break
		}
		out, err := g.ProcessFrames(frames)
		releaseAll(frames)
		if err != nil {
			return err
		}
		if err := enc.WriteFrames(out); err != nil {
			return err
		}
	}

	out, err := g.FlushFrames()
	if err != nil {
		return err
	}
	return enc.WriteFrames(out)
}

func (r *Runner) passThrough(ctx context.Context, d *Decoder, enc *Encoder, stats *Stats) error {
	if err := r.checkPassThrough(); err != nil {
		return err
	}
	var asm *pcm.FrameAssembler
	if n := r.cfg.Output.FrameSamples; n > 0 {
		asm = pcm.NewFrameAssembler(d.Descriptor(), n)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := d.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return err
		}
		stats.FramesIn++
		stats.SamplesIn += f.SampleCount()
		if asm == nil {
			if err := enc.WriteFrame(f); err != nil {
				return err
			}
			continue
		}
		out, err := asm.Push(f)
		if err != nil {
			f.Release()
			return err
		}
		if err := enc.WriteFrames(out); err != nil {
			return err
		}
	}
	if asm != nil {
		if last := asm.Flush(); last != nil {
			return enc.WriteFrame(last)
		}
	}
	return nil
}

func releaseAll(frames []*pcm.Frame) {
	for i, f := range frames {
		f.Release()
		frames[i] = nil
	}
}
