package action

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// recorder is a shared, ordered event log for the fakes below.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeDisplay struct {
	rec   *recorder
	text  string
	image string
}

func (d *fakeDisplay) ShowText(s string) {
	d.text = s
	d.image = ""
	d.rec.add("text:" + s)
}

func (d *fakeDisplay) ShowImage(uri, alt string) {
	d.image = uri
	d.text = alt
	d.rec.add("image")
}

func (d *fakeDisplay) ShowPreview(on bool) {
	if on {
		d.rec.add("preview:on")
	} else {
		d.rec.add("preview:off")
	}
}

type fakeSpeaker struct {
	said []string
}

func (s *fakeSpeaker) Say(text string) { s.said = append(s.said, text) }

func newDeps() (Deps, *fakeDisplay, *fakeSpeaker, *recorder) {
	rec := &recorder{}
	d := &fakeDisplay{rec: rec}
	s := &fakeSpeaker{}
	return Deps{Display: d, Speaker: s, Log: logger.New(logger.LevelOff, nil)}, d, s, rec
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakeGetter struct {
	body string
	err  error
	urls []string
}

func (g *fakeGetter) GetJSON(_ context.Context, url string) (gjson.Result, error) {
	g.urls = append(g.urls, url)
	if g.err != nil {
		return gjson.Result{}, g.err
	}
	return gjson.Parse(g.body), nil
}

type fakeOpener struct {
	urls []string
	err  error
}

func (o *fakeOpener) Open(url string) error {
	o.urls = append(o.urls, url)
	return o.err
}

type fakeCamera struct {
	rec     *recorder
	openErr error
	empty   bool // streams return 0x0 frames
	opened  int
}

func (c *fakeCamera) Open(context.Context) (domain.CameraStream, error) {
	c.opened++
	if c.openErr != nil {
		return nil, c.openErr
	}
	c.rec.add("open")
	return &fakeStream{rec: c.rec, empty: c.empty}, nil
}

type fakeStream struct {
	rec    *recorder
	empty  bool
	frames int
}

func (s *fakeStream) Frame(context.Context) (image.Image, error) {
	s.frames++
	s.rec.add("frame")
	if s.empty {
		return image.NewRGBA(image.Rect(0, 0, 0, 0)), nil
	}
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	return img, nil
}

func (s *fakeStream) Close() error {
	s.rec.add("close")
	return nil
}
