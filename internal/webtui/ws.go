package webtui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/gorilla/websocket"
)

type wsMsg struct {
	Type string `json:"type"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header (non-browser clients)
// and browser requests from the page this server served.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	host := strings.TrimSpace(r.Host)
	return origin == "http://"+host || origin == "https://"+host
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	p, status, err := s.player(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ptmx, cmd, cleanup, err := s.startPTYSession(p.ID)
	if err != nil {
		s.log.Error("start panel session", "player", p.ID, "err", err)
		_ = conn.WriteMessage(websocket.TextMessage, []byte("failed to start session: "+err.Error()))
		return
	}
	defer cleanup()
	s.log.Info("panel session started", "player", p.ID, "pid", cmd.Process.Pid)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		errCh <- pumpPTYToWS(ctx, ptmx, conn)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errCh <- pumpWSToPTY(ctx, conn, ptmx)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			s.log.Debug("panel session pump stopped", "player", p.ID, "err", err)
		}
	}
	cancel()

	// Unblocks both pumps: the pty read ends with the child, the ws read with the conn.
	_ = cmd.Process.Kill()
	_ = conn.Close()

	wg.Wait()
	s.log.Info("panel session ended", "player", p.ID)
}

// sessionArgs is the panel command line for one player. No subcommand runs the panel.
func (s *Server) sessionArgs(playerID string) []string {
	var args []string
	if dir := strings.TrimSpace(s.cfg.Dir); dir != "" {
		args = append(args, "--dir", dir)
	} else if room := strings.TrimSpace(s.cfg.Room); room != "" {
		args = append(args, "--room", room)
	}
	return append(args, "--player", playerID)
}

func (s *Server) startPTYSession(playerID string) (*os.File, *exec.Cmd, func(), error) {
	exe := strings.TrimSpace(s.cfg.Exe)
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, nil, nil, err
		}
	}

	cmd := exec.Command(exe, s.sessionArgs(playerID)...)
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
	)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: 100, Rows: 32})
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {
		_ = ptmx.Close()
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}

	return ptmx, cmd, cleanup, nil
}

func pumpPTYToWS(ctx context.Context, ptmx *os.File, conn *websocket.Conn) error {
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := ptmx.Read(buf)
		if n > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// parseResize recognizes {"type":"resize","cols":N,"rows":M} control frames.
func parseResize(data []byte) (*pty.Winsize, bool) {
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}
	var m wsMsg
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	if strings.ToLower(strings.TrimSpace(m.Type)) != "resize" || m.Cols <= 0 || m.Rows <= 0 || m.Cols > 0xffff || m.Rows > 0xffff {
		return nil, false
	}
	return &pty.Winsize{Cols: uint16(m.Cols), Rows: uint16(m.Rows)}, true
}

func pumpWSToPTY(ctx context.Context, conn *websocket.Conn, ptmx *os.File) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		// Control messages are JSON text; keystrokes are plain text or binary.
		if mt == websocket.TextMessage {
			if ws, ok := parseResize(data); ok {
				_ = pty.Setsize(ptmx, ws)
				continue
			}
		}

		if len(data) == 0 {
			continue
		}
		if _, err := ptmx.Write(data); err != nil {
			return err
		}
	}
}
