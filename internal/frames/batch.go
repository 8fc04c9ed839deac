// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package frames

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/manim-dataset/pkg/types"
)

// VideoFrames holds the frames sampled from one video.
type VideoFrames struct {
	Video  string
	Frames []types.Frame
}

// BatchResult holds the outcome of a batch extraction run.
type BatchResult struct {
	Extracted int
	Failed    int
	Frames    int
}

// Total returns the total number of videos processed.
func (r BatchResult) Total() int {
	return r.Extracted + r.Failed
}

// HasFailures reports whether any video failed extraction.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Workers resolves the configured worker count: 0 means one worker per
// physical CPU, anything below 0 means sequential.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	if n < 0 {
		return 1
	}
	count, err := cpu.Counts(false)
	if err != nil || count < 1 {
		log.Debug().Err(err).Msg("physical cpu count unavailable, using logical count")
		return runtime.NumCPU()
	}
	return count
}

// ExtractAll samples frames from every video into frames_<stem> next to the
// video. Results keep the order of videos regardless of the worker count.
// A failing video is reported on w and kept with whatever frames it
// produced.
func ExtractAll(ctx context.Context, dec Decoder, videos []types.VideoMeta, cfg types.FramesConfig, w io.Writer) ([]VideoFrames, BatchResult) {
	out := make([]VideoFrames, len(videos))
	failed := make([]bool, len(videos))
	sw := &syncWriter{w: w}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(cfg.Workers))

	lastGroup := ""
	for i, v := range videos {
		if v.PotentialScene != "" && v.PotentialScene != lastGroup {
			fmt.Fprintf(sw, "group: %s\n", v.PotentialScene)
			lastGroup = v.PotentialScene
		}
		g.Go(func() error {
			fmt.Fprintf(sw, "processing: %s\n", v.Path)
			frames, err := Extract(gctx, dec, v.Path, FrameDir(v.Path), cfg.Fraction, cfg.JPEGQuality, sw)
			out[i] = VideoFrames{Video: v.Path, Frames: frames}
			if err != nil {
				fmt.Fprintf(sw, "failed:  %s (%v)\n", v.Path, err)
				failed[i] = true
				return nil
			}
			fmt.Fprintf(sw, "extracted: %s (%d frames)\n", v.Path, len(frames))
			return nil
		})
	}
	// Workers never return errors; per-video failures are recorded above.
	_ = g.Wait()

	var result BatchResult
	for i := range out {
		if failed[i] {
			result.Failed++
		} else {
			result.Extracted++
		}
		result.Frames += len(out[i].Frames)
	}
	fmt.Fprintf(w, "\nBatch summary: %d extracted, %d failed (total: %d), %d frames\n",
		result.Extracted, result.Failed, result.Total(), result.Frames)
	return out, result
}

// syncWriter serializes writes from concurrent workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
