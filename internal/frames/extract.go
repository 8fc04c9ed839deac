// Package frames samples frames from rendered videos and aligns them with
// the steps of analyzed scenes.
package frames

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/manim-dataset/pkg/types"
)

const (
	// framePrefix names the per-video frame directory: frames_<video stem>.
	framePrefix = "frames_"

	// defaultJPEGQuality is used when no quality is configured.
	defaultJPEGQuality = 95
)

// FrameDir returns the directory frames of videoPath are written to.
func FrameDir(videoPath string) string {
	base := filepath.Base(videoPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(videoPath), framePrefix+stem)
}

// FrameName returns the file name of a sampled frame.
func FrameName(index int, timestamp float64) string {
	return fmt.Sprintf("frame_%06d_%.3f.jpg", index, timestamp)
}

// Interval returns the sampling step in frames for a frame rate and a
// requested samples-per-second fraction. It is never below 1.
func Interval(fps, fraction float64) int {
	if fraction <= 0 {
		fraction = 1
	}
	interval := int(fps / fraction)
	if interval < 1 {
		interval = 1
	}
	return interval
}

// Extract samples frames of videoPath into outDir. Every frame whose index
// is a multiple of the sampling interval is written as a JPEG named after
// its index and timestamp. A video that cannot be probed yields no frames
// and an error; a decode failure returns the frames written so far along
// with the error.
func Extract(ctx context.Context, dec Decoder, videoPath, outDir string, fraction float64, quality int, w io.Writer) ([]types.Frame, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", outDir, err)
	}

	info, err := dec.Probe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("opening video %s: %w", videoPath, err)
	}
	if info.FPS <= 0 {
		return nil, fmt.Errorf("opening video %s: unknown frame rate", videoPath)
	}
	if quality <= 0 {
		quality = defaultJPEGQuality
	}

	fmt.Fprintf(w, "video: %s (%.2f fps, %d frames, %.2fs)\n", videoPath, info.FPS, info.FrameCount, info.Duration)

	interval := Interval(info.FPS, fraction)
	var frames []types.Frame
	err = dec.Decode(ctx, videoPath, info, func(index int, img image.Image) error {
		if index%interval != 0 {
			return nil
		}
		timestamp := float64(index) / info.FPS
		path := filepath.Join(outDir, FrameName(index, timestamp))
		if err := writeJPEG(path, img, quality); err != nil {
			return err
		}
		frames = append(frames, types.Frame{FrameIndex: index, Timestamp: timestamp, Path: path})

		if index%100 == 0 && info.FrameCount > 0 {
			log.Debug().
				Str("video", videoPath).
				Int("frame", index).
				Int("of", info.FrameCount).
				Msg("extracted frame")
		}
		return nil
	})
	if err != nil {
		return frames, fmt.Errorf("decoding %s: %w", videoPath, err)
	}
	return frames, nil
}

func writeJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating frame %s: %w", path, err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		return fmt.Errorf("encoding frame %s: %w", path, err)
	}
	return f.Close()
}
