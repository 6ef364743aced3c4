// Package webtui serves the panel to browser players: every tab runs the
// panel for one player in a server-side pty streamed over a websocket.
package webtui

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scenelinks/internal/model"
)

//go:embed templates/*.html static/*.css static/*.js
var assetsFS embed.FS

// PlayerLister returns the players of the served room.
type PlayerLister func(ctx context.Context) ([]model.Player, error)

type ServerConfig struct {
	Addr string
	// Room and Dir select the room for spawned panels; Dir wins when set.
	Room    string
	Dir     string
	Players PlayerLister
	// Secret enables invite links: sessions need a signed ?t= token instead
	// of a bare ?player= id.
	Secret []byte
	// Exe is the binary started per session (default: this executable).
	Exe string
	Log *slog.Logger
}

type Server struct {
	cfg  ServerConfig
	tmpl *template.Template
	log  *slog.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("webtui: missing addr")
	}
	if cfg.Players == nil {
		return nil, errors.New("webtui: missing player lister")
	}
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{cfg: cfg, tmpl: tmpl, log: log}, nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /panel", s.handlePanel)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /docs", s.handleDocs)
	mux.HandleFunc("GET /docs/{topic}", s.handleDocs)

	mux.HandleFunc("GET /static/app.css", s.handleStatic("static/app.css", "text/css; charset=utf-8"))
	mux.HandleFunc("GET /static/app.js", s.handleStatic("static/app.js", "text/javascript; charset=utf-8"))

	return mux
}

func (s *Server) handleStatic(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := assetsFS.ReadFile(path)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(b)
	}
}

// player resolves the request to a room player; only known ids reach a pty.
func (s *Server) player(r *http.Request) (model.Player, int, error) {
	q := r.URL.Query()
	var id string
	if s.invites() {
		tok := strings.TrimSpace(q.Get("t"))
		if tok == "" {
			return model.Player{}, http.StatusUnauthorized, errors.New("invite required")
		}
		inv, err := ParseInvite(s.cfg.Secret, tok, s.cfg.Room, time.Now())
		if err != nil {
			return model.Player{}, http.StatusUnauthorized, err
		}
		id = inv.Player
	} else {
		id = strings.TrimSpace(q.Get("player"))
	}
	if id == "" {
		return model.Player{}, http.StatusBadRequest, errors.New("missing player")
	}
	players, err := s.cfg.Players(r.Context())
	if err != nil {
		return model.Player{}, http.StatusInternalServerError, err
	}
	for _, p := range players {
		if p.ID == id {
			return p, http.StatusOK, nil
		}
	}
	return model.Player{}, http.StatusNotFound, errors.New("unknown player: " + id)
}

func (s *Server) invites() bool { return len(s.cfg.Secret) > 0 }

type indexVM struct {
	Room    string
	Invites bool
	Players []model.Player
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	vm := indexVM{Room: s.roomLabel(), Invites: s.invites()}
	if !vm.Invites {
		players, err := s.cfg.Players(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		vm.Players = players
	}
	s.render(w, "index.html", vm)
}

type panelVM struct {
	Room   string
	Player model.Player
	// Query authenticates the websocket the same way the page was.
	Query string
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	p, status, err := s.player(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	q := url.Values{}
	if s.invites() {
		q.Set("t", r.URL.Query().Get("t"))
	} else {
		q.Set("player", p.ID)
	}
	s.render(w, "panel.html", panelVM{Room: s.roomLabel(), Player: p, Query: q.Encode()})
}

func (s *Server) render(w http.ResponseWriter, name string, vm any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, vm); err != nil {
		s.log.Error("render template", "template", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) roomLabel() string {
	if room := strings.TrimSpace(s.cfg.Room); room != "" {
		return room
	}
	return strings.TrimSpace(s.cfg.Dir)
}
