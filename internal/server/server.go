package server

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/soar/thtrack/internal/hub"
)

type Server struct {
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	page        []byte
	addr        string
	httpServer  *http.Server
}

// New prepares the monitor server. The page is read from frontendFS and
// minified once here.
func New(h *hub.Hub, b *hub.Broadcaster, frontendFS fs.FS, addr string) (*Server, error) {
	raw, err := fs.ReadFile(frontendFS, "index.html")
	if err != nil {
		return nil, fmt.Errorf("read monitor page: %w", err)
	}
	page, err := MinifyPage(raw)
	if err != nil {
		return nil, err
	}
	return &Server{
		hub:         h,
		broadcaster: b,
		page:        page,
		addr:        addr,
	}, nil
}

// MinifyPage minifies an HTML page including its inline styles and scripts.
func MinifyPage(raw []byte) ([]byte, error) {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("text/javascript", js.Minify)

	out, err := m.Bytes("text/html", raw)
	if err != nil {
		return nil, fmt.Errorf("minify monitor page: %w", err)
	}
	return out, nil
}

// Handler returns the monitor's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handleWebSocket(s.hub, s.broadcaster))
	mux.HandleFunc("/api/frame", handleFrame(s.broadcaster))
	mux.HandleFunc("/", handlePage(s.page))
	return mux
}

func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	log.Printf("Monitor listening on %s", s.addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		log.Println("Shutting down monitor...")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
