package action

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	"golang.org/x/image/draw"

	"github.com/hammamikhairi/ottovoice/internal/domain"
)

// User-facing capture failures.
const (
	MsgNoCamera     = "No camera is available."
	MsgCameraDenied = "Camera access was denied."
	MsgCaptured     = "Image captured"
	CapturedAlt     = "Captured Image"
)

// Capture grabs a single still from the camera after a short preview.
type Capture struct {
	Deps
	Camera domain.Camera
	Delay  time.Duration
	Width  int
	Height int
}

// Handle opens the camera, shows the preview for Delay, grabs one frame,
// releases the camera, and displays the frame as a PNG data URI.
func (h *Capture) Handle(ctx context.Context, _ string) error {
	if h.Camera == nil {
		h.Display.ShowText(MsgNoCamera)
		return domain.ErrNoCamera
	}

	stream, err := h.Camera.Open(ctx)
	switch {
	case errors.Is(err, domain.ErrNoCamera):
		h.Display.ShowText(MsgNoCamera)
		return err
	case errors.Is(err, domain.ErrPermissionDenied):
		h.Display.ShowText(MsgCameraDenied)
		return err
	case err != nil:
		return fmt.Errorf("open camera: %w", err)
	}

	h.Display.ShowPreview(true)
	frame, err := h.grab(ctx, stream)
	if cerr := stream.Close(); cerr != nil {
		h.Log.Warn("capture: release camera: %v", cerr)
	}
	h.Display.ShowPreview(false)
	if err != nil {
		return err
	}

	uri, err := h.encode(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	h.Display.ShowImage(uri, CapturedAlt)
	h.Speaker.Say(MsgCaptured)
	return nil
}

func (h *Capture) grab(ctx context.Context, stream domain.CameraStream) (image.Image, error) {
	if h.Delay > 0 {
		t := time.NewTimer(h.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	frame, err := stream.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("grab frame: %w", err)
	}
	return frame, nil
}

// encode draws the frame onto a fixed-size raster and returns it as a
// PNG data URI. Without a configured size the frame keeps its own; an
// empty frame is a bad camera response.
func (h *Capture) encode(frame image.Image) (string, error) {
	if frame == nil || frame.Bounds().Empty() {
		return "", fmt.Errorf("empty frame: %w", domain.ErrBadResponse)
	}
	w, ht := h.Width, h.Height
	if w <= 0 || ht <= 0 {
		b := frame.Bounds()
		w, ht = b.Dx(), b.Dy()
	}
	canvas := image.NewRGBA(image.Rect(0, 0, w, ht))
	draw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), frame, frame.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
