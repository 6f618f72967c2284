package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loomui/loom/pkg/loom"
	"github.com/loomui/loom/pkg/middleware"
	"github.com/loomui/loom/pkg/protocol"
	"github.com/loomui/loom/pkg/vdom"
)

// Server hosts a loom application over HTTP: server-side rendered pages
// on GET / and a live patch channel on GET /live.
type Server struct {
	cfg      *Config
	manager  *SessionManager
	dispatch middleware.Dispatcher
	upgrader websocket.Upgrader
	router   chi.Router
	http     *http.Server
}

// New builds a server hosting the given root render function. A nil
// config uses the defaults.
func New(render loom.RenderFunc, cfg *Config) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.withDefaults()

	s := &Server{
		cfg:     cfg,
		manager: NewSessionManager(render, cfg),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}

	base := func(ctx context.Context, sessionID string, event *protocol.Event) error {
		sess, ok := s.manager.Get(sessionID)
		if !ok {
			return fmt.Errorf("server: unknown session %s", sessionID)
		}
		return sess.Dispatch(ctx, event)
	}
	s.dispatch = middleware.Chain(base, cfg.Middlewares...)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Get("/", s.handleIndex)
	r.Get("/live", s.handleLive)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	s.router = r

	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions exposes the session manager.
func (s *Server) Sessions() *SessionManager { return s.manager }

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go s.manager.Sweep(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", s.cfg.Address)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.cfg.Logger.Info("shutting down")
	err := s.http.Shutdown(shutCtx)
	s.manager.CloseAll()
	if err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// handleIndex mounts a session and serves the server-rendered page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Create(r.Context(), nil)
	if err != nil {
		s.cfg.Logger.Error("create session", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	body, err := sess.InitialHTML()
	if err != nil {
		s.cfg.Logger.Error("render page", "session", sess.ID, "err", err)
		s.manager.Remove(sess.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page, err := renderPage(s.cfg.PageTitle, sess.ID, body)
	if err != nil {
		s.cfg.Logger.Error("render page shell", "session", sess.ID, "err", err)
		s.manager.Remove(sess.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, page)
}

// renderPage builds the SSR document around the session's initial body.
// The shell goes through vdom like everything else; body and bootstrap
// script are pre-rendered and embedded raw.
func renderPage(title, sessionID, body string) (string, error) {
	doc := vdom.Html(
		vdom.SetAttr("lang", "en"),
		vdom.Head(
			vdom.Meta(vdom.Charset("utf-8")),
			vdom.Meta(vdom.Name("viewport"), vdom.SetAttr("content", "width=device-width, initial-scale=1")),
			vdom.Link(vdom.Rel("icon"), vdom.Href("data:,")),
			vdom.Title(vdom.Text(title)),
		),
		vdom.Body(
			vdom.SetAttr("data-loom-session", sessionID),
			vdom.Raw(body),
			vdom.Script(vdom.Raw(clientScript)),
		),
	)

	page, err := vdom.RenderToString(doc)
	if err != nil {
		return "", err
	}
	return "<!DOCTYPE html>\n" + page, nil
}

// handleLive upgrades to a websocket and pumps client events into the
// dispatch chain. The session ID comes from the page shell via the
// "session" query parameter; an unknown ID resumes from its snapshot.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}

	sess, ok := s.manager.Get(sessionID)
	if !ok {
		var err error
		sess, err = s.manager.Resume(r.Context(), sessionID)
		if err != nil {
			s.cfg.Logger.Error("resume session", "session", sessionID, "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		sessionID = sess.ID
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.cfg.Logger.Warn("upgrade failed", "err", err)
		return
	}

	sess.Attach(conn)
	s.readLoop(r.Context(), sess, conn)
}

func (s *Server) readLoop(ctx context.Context, sess *Session, conn *websocket.Conn) {
	defer sess.Detach()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.cfg.Logger.Warn("read frame", "session", sess.ID, "err", err)
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			s.cfg.Logger.Warn("bad frame", "session", sess.ID, "err", err)
			sess.sendFrame(protocol.ErrorFrame(protocol.ErrBadFrame, "malformed frame"))
			continue
		}

		switch msg.Type {
		case protocol.MsgEvent:
			if msg.Event == nil {
				sess.sendFrame(protocol.ErrorFrame(protocol.ErrBadFrame, "event frame without event"))
				continue
			}
			if err := s.dispatch(ctx, sess.ID, msg.Event); err != nil {
				s.cfg.Logger.Warn("dispatch", "session", sess.ID, "err", err)
			}
		case protocol.MsgPing:
			sess.sendFrame(&protocol.Message{Type: protocol.MsgPong})
		default:
			s.cfg.Logger.Warn("unexpected frame", "session", sess.ID, "type", msg.Type)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok sessions=%d\n", s.manager.Len())
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		// Same-host only. The page shell and the socket share an origin.
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin] || set["*"]
	}
}

// clientScript is the minimal live-channel bootstrap: connect, forward
// DOM events by hydration ID, apply incoming patches.
const clientScript = `(function () {
  var sid = document.body.getAttribute("data-loom-session");
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/live?session=" + sid);

  function byHid(hid) {
    return document.querySelector('[data-hid="' + hid + '"]');
  }

  function apply(p) {
    var el = byHid(p.hid);
    switch (p.op) {
    case "SetText": if (el) el.textContent = p.value; break;
    case "SetAttr": if (el) el.setAttribute(p.key, p.value); break;
    case "RemoveAttr": if (el) el.removeAttribute(p.key); break;
    case "SetValue": if (el) el.value = p.value; break;
    case "RemoveNode": if (el) el.remove(); break;
    case "ReplaceNode": if (el) el.outerHTML = p.html; break;
    case "InsertNode": {
      var parent = byHid(p.parent) || document.body;
      var tpl = document.createElement("template");
      tpl.innerHTML = p.html;
      var node = tpl.content.firstChild;
      var ref = parent.children[p.index];
      if (ref) parent.insertBefore(node, ref); else parent.appendChild(node);
      break;
    }
    case "MoveNode": {
      var moved = el;
      if (!moved) break;
      var host = moved.parentElement;
      var anchor = host.children[p.index];
      if (anchor && anchor !== moved) host.insertBefore(moved, anchor);
      else if (!anchor) host.appendChild(moved);
      break;
    }
    }
  }

  ws.onmessage = function (e) {
    var msg = JSON.parse(e.data);
    if (msg.type === "patches" && msg.patches) msg.patches.forEach(apply);
  };

  ["click", "input", "change", "submit"].forEach(function (type) {
    document.addEventListener(type, function (e) {
      var target = e.target.closest("[data-hid]");
      if (!target) return;
      if (type === "submit") e.preventDefault();
      var payload = {};
      if (type === "input" || type === "change") payload.value = e.target.value;
      ws.send(JSON.stringify({
        type: "event",
        event: { hid: target.getAttribute("data-hid"), event: type, payload: payload }
      }));
    }, true);
  });

  setInterval(function () {
    if (ws.readyState === 1) ws.send(JSON.stringify({ type: "ping" }));
  }, 30000);
})();
`
