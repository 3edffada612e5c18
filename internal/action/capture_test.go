package action

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/hammamikhairi/ottovoice/internal/domain"
)

func TestCapture(t *testing.T) {
	deps, d, s, rec := newDeps()
	cam := &fakeCamera{rec: rec}
	h := &Capture{Deps: deps, Camera: cam, Delay: 20 * time.Millisecond, Width: 64, Height: 48}

	start := time.Now()
	if err := h.Handle(context.Background(), "capture"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("frame grabbed before the preview delay elapsed")
	}

	want := []string{"open", "preview:on", "frame", "close", "preview:off", "image"}
	if got := rec.list(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if len(s.said) != 1 || s.said[0] != MsgCaptured {
		t.Errorf("spoken = %v", s.said)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(d.image, prefix) {
		t.Fatalf("image = %.40q", d.image)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(d.image, prefix))
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("size = %dx%d, want 64x48", b.Dx(), b.Dy())
	}
}

func TestCaptureCameraErrors(t *testing.T) {
	tests := []struct {
		name    string
		openErr error
		want    string
	}{
		{"no camera", domain.ErrNoCamera, MsgNoCamera},
		{"denied", domain.ErrPermissionDenied, MsgCameraDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, d, s, rec := newDeps()
			h := &Capture{Deps: deps, Camera: &fakeCamera{rec: rec, openErr: tt.openErr}}

			err := h.Handle(context.Background(), "capture")
			if !errors.Is(err, tt.openErr) {
				t.Fatalf("err = %v, want %v", err, tt.openErr)
			}
			if d.text != tt.want {
				t.Errorf("display = %q, want %q", d.text, tt.want)
			}
			if len(s.said) != 0 {
				t.Errorf("spoken = %v", s.said)
			}
		})
	}
}

func TestCaptureCancelledReleasesCamera(t *testing.T) {
	deps, d, _, rec := newDeps()
	h := &Capture{Deps: deps, Camera: &fakeCamera{rec: rec}, Delay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.Handle(ctx, "capture"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	want := []string{"open", "preview:on", "close", "preview:off"}
	if got := rec.list(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if d.image != "" {
		t.Error("no image should be shown")
	}
}

func TestCaptureEmptyFrame(t *testing.T) {
	deps, d, s, rec := newDeps()
	h := &Capture{Deps: deps, Camera: &fakeCamera{rec: rec, empty: true}}

	err := h.Handle(context.Background(), "capture")
	if !errors.Is(err, domain.ErrBadResponse) {
		t.Fatalf("err = %v, want ErrBadResponse", err)
	}
	if d.image != "" {
		t.Errorf("an image was shown for an empty frame")
	}
	if len(s.said) != 0 {
		t.Errorf("spoken = %v", s.said)
	}
	want := "open,preview:on,frame,close,preview:off"
	if got := strings.Join(rec.list(), ","); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}
