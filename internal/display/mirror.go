package display

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/hammamikhairi/ottovoice/internal/logger"
)

const mirrorWriteTimeout = 5 * time.Second

// Mirror serves the surface to a browser tab. The page at / opens a
// websocket on /ws and receives every snapshot as JSON.
type Mirror struct {
	surface  *Surface
	log      *logger.Logger
	upgrader ws.Upgrader

	mu      sync.Mutex
	clients map[chan Snapshot]struct{}
	latest  uint64 // version of the newest broadcast snapshot
}

// NewMirror creates a mirror for the surface and starts tracking changes.
func NewMirror(surface *Surface, log *logger.Logger) *Mirror {
	m := &Mirror{
		surface: surface,
		log:     log,
		upgrader: ws.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[chan Snapshot]struct{}),
	}
	surface.Subscribe(m.broadcast)
	return m
}

// Handler returns the HTTP routes for the mirror.
func (m *Mirror) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(mirrorPage))
	})
	mux.HandleFunc("/ws", m.serveWS)
	return mux
}

// ListenAndServe serves the mirror on addr until ctx is cancelled.
func (m *Mirror) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	m.log.Info("[mirror] serving on http://%s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (m *Mirror) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Warn("[mirror] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := make(chan Snapshot, 8)
	m.mu.Lock()
	m.clients[ch] = struct{}{}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.clients, ch)
		m.mu.Unlock()
	}()

	// Reader: only used to notice the tab going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	m.log.Debug("[mirror] client connected from %s", r.RemoteAddr)
	sent := m.surface.Snapshot()
	if !m.write(conn, sent) {
		return
	}
	for {
		select {
		case <-closed:
			m.log.Debug("[mirror] client %s left", r.RemoteAddr)
			return
		case snap := <-ch:
			if snap.Version <= sent.Version {
				continue
			}
			if !m.write(conn, snap) {
				return
			}
			sent = snap
		}
	}
}

func (m *Mirror) write(conn *ws.Conn, snap Snapshot) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(mirrorWriteTimeout))
	if err := conn.WriteJSON(snap); err != nil {
		m.log.Debug("[mirror] write failed: %v", err)
		return false
	}
	return true
}

// broadcast fans a snapshot out to every client. Snapshots older than
// one already sent are dropped. Slow clients skip intermediate snapshots;
// the newest one always wins eventually.
func (m *Mirror) broadcast(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.Version <= m.latest {
		return
	}
	m.latest = snap.Version
	for ch := range m.clients {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

const mirrorPage = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>ottovoice</title>
<style>
body { background:#18181b; color:#bae6fd; font-family:sans-serif; margin:3em; }
#output { font-size:1.6em; min-height:2em; }
#preview { color:#fca5a5; visibility:hidden; }
img { max-width:100%; border:1px solid #52525b; }
</style>
</head>
<body>
<p id="preview">&#9679; camera live</p>
<div id="output"></div>
<script>
const out = document.getElementById("output");
const preview = document.getElementById("preview");
function connect() {
  const sock = new WebSocket("ws://" + location.host + "/ws");
  sock.onmessage = (ev) => {
    const s = JSON.parse(ev.data);
    if (s.image) { out.innerHTML = s.content; } else { out.textContent = s.content; }
    preview.style.visibility = s.preview ? "visible" : "hidden";
  };
  sock.onclose = () => setTimeout(connect, 1000);
}
connect();
</script>
</body>
</html>
`
