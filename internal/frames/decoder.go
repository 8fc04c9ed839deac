// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package frames

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/manim-dataset/internal/logging"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

// FrameFunc receives each decoded frame in order. Returning an error stops
// decoding.
type FrameFunc func(index int, img image.Image) error

// Decoder reads video properties and frames. Frames are delivered
// sequentially from index 0 in RGB order.
type Decoder interface {
	Probe(ctx context.Context, path string) (types.VideoInfo, error)
	Decode(ctx context.Context, path string, info types.VideoInfo, fn FrameFunc) error
}

// FFmpegDecoder probes with ffprobe and decodes by piping raw rgb24 frames
// out of ffmpeg.
type FFmpegDecoder struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpegDecoder locates ffmpeg and ffprobe on PATH.
func NewFFmpegDecoder() (*FFmpegDecoder, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	return &FFmpegDecoder{
		logger:      logging.WithComponent("ffmpeg"),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}, nil
}

// probeResult matches the parts of ffprobe's JSON output we read.
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// Probe reads size, frame rate, frame count, and duration of the first
// video stream.
func (d *FFmpegDecoder) Probe(ctx context.Context, path string) (types.VideoInfo, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	cmd := exec.CommandContext(ctx, d.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return types.VideoInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe(path, output)
}

func parseProbe(path string, output []byte) (types.VideoInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return types.VideoInfo{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	info := types.VideoInfo{Path: path}
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = dur
	}

	found := false
	for _, s := range probe.Streams {
		if s.CodecType != "video" {
			continue
		}
		found = true
		info.Width = s.Width
		info.Height = s.Height
		info.FPS = ParseFrameRate(s.AvgFrameRate)
		if info.FPS <= 0 {
			info.FPS = ParseFrameRate(s.RFrameRate)
		}
		if n, err := strconv.Atoi(s.NbFrames); err == nil {
			info.FrameCount = n
		}
		if info.Duration == 0 {
			if dur, err := strconv.ParseFloat(s.Duration, 64); err == nil {
				info.Duration = dur
			}
		}
		break
	}
	if !found {
		return types.VideoInfo{}, fmt.Errorf("%s: no video stream", path)
	}
	if info.FrameCount == 0 && info.FPS > 0 {
		info.FrameCount = int(info.Duration * info.FPS)
	}
	return info, nil
}

// ParseFrameRate parses an ffprobe rate such as "30/1" or "29.97".
func ParseFrameRate(rate string) float64 {
	num, den, ok := strings.Cut(rate, "/")
	if !ok {
		f, _ := strconv.ParseFloat(rate, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	m, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || m == 0 {
		return 0
	}
	return n / m
}

// Decode streams every frame of the video through fn.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string, info types.VideoInfo, fn FrameFunc) error {
	if info.Width <= 0 || info.Height <= 0 {
		return fmt.Errorf("%s: invalid frame size %dx%d", path, info.Width, info.Height)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := []string{
		"-v", "error",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	}
	d.logger.Debug().Str("cmd", "ffmpeg").Strs("args", args).Msg("decoding video")

	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	readErr := readRawFrames(bufio.NewReaderSize(stdout, 1<<20), info.Width, info.Height, fn)
	if readErr != nil {
		cancel()
	}
	waitErr := cmd.Wait()

	if readErr != nil {
		return readErr
	}
	if waitErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg %s: %w (%s)", path, waitErr, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// readRawFrames splits a packed rgb24 stream into frames. A trailing
// partial frame ends the stream.
func readRawFrames(r io.Reader, width, height int, fn FrameFunc) error {
	frameSize := width * height * 3
	buf := make([]byte, frameSize)
	for index := 0; ; index++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("reading frame %d: %w", index, err)
		}
		if err := fn(index, rgbImage(buf, width, height)); err != nil {
			return err
		}
	}
}

// rgbImage copies packed rgb24 pixels into an opaque NRGBA image.
func rgbImage(pix []byte, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i+2 < len(pix) && j+3 < len(img.Pix); i, j = i+3, j+4 {
		img.Pix[j] = pix[i]
		img.Pix[j+1] = pix[i+1]
		img.Pix[j+2] = pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}
