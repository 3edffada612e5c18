// Package camera grabs still frames from a local video device through
// the ffmpeg CLI.
package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Camera       = (*FFmpeg)(nil)
	_ domain.CameraStream = (*stream)(nil)
)

// FFmpeg opens a video device and captures frames with ffmpeg.
type FFmpeg struct {
	bin    string
	device string
	goos   string
	log    *logger.Logger
}

// NewFFmpeg creates a camera for device using the ffmpeg binary at bin.
// device is a path such as /dev/video0 on Linux, a device index on macOS
// or a DirectShow name on Windows.
func NewFFmpeg(bin, device string, log *logger.Logger) *FFmpeg {
	return &FFmpeg{bin: bin, device: device, goos: runtime.GOOS, log: log}
}

// Open checks that ffmpeg and the device are usable. It returns
// domain.ErrNoCamera when either is missing and domain.ErrPermissionDenied
// when the device cannot be read.
func (c *FFmpeg) Open(ctx context.Context) (domain.CameraStream, error) {
	bin, err := exec.LookPath(c.bin)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg %q: %w", c.bin, domain.ErrNoCamera)
	}
	if c.goos == "linux" {
		if err := probeDevice(c.device); err != nil {
			return nil, err
		}
	}
	c.log.Debug("camera: opened %s", c.device)
	return &stream{bin: bin, args: inputArgs(c.goos, c.device), log: c.log}, nil
}

// probeDevice maps device access failures to domain errors.
func probeDevice(device string) error {
	f, err := os.Open(device)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w", device, domain.ErrNoCamera)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s: %w", device, domain.ErrPermissionDenied)
	case err != nil:
		return fmt.Errorf("open %s: %w", device, err)
	}
	return f.Close()
}

// inputArgs returns the ffmpeg input options for the platform's
// capture API.
func inputArgs(goos, device string) []string {
	switch goos {
	case "darwin":
		return []string{"-f", "avfoundation", "-framerate", "30", "-i", device}
	case "windows":
		return []string{"-f", "dshow", "-i", "video=" + device}
	default:
		return []string{"-f", "v4l2", "-i", device}
	}
}

type stream struct {
	bin  string
	args []string
	log  *logger.Logger

	mu     sync.Mutex
	closed bool
}

// Frame captures one PNG frame and decodes it.
func (s *stream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, errors.New("camera stream is closed")
	}

	args := append([]string{"-hide_banner", "-loglevel", "error"}, s.args...)
	args = append(args, "-frames:v", "1", "-f", "image2pipe", "-vcodec", "png", "-")

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.bin, args...)
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(strings.ToLower(msg), "permission denied") {
			return nil, fmt.Errorf("ffmpeg: %s: %w", msg, domain.ErrPermissionDenied)
		}
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}

	img, err := png.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	s.log.Debug("camera: captured %dx%d frame", img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

// Close releases the stream. Further frames fail.
func (s *stream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.log.Debug("camera: released")
	return nil
}
