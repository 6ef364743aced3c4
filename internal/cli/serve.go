package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"scenelinks/internal/webtui"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr, baseURL string
	var open bool
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the panel to players in their browsers (PTY + WebSocket)",
		Long: strings.TrimSpace(`
Serve the room's link panel over HTTP. Each player opens the index page,
picks their name, and gets the terminal panel in a browser tab: the server
runs one panel process per tab in a pty and streams it over a websocket.

By default every player gets a signed invite link (printed on start) and the
index page lists nobody. The signing key lives in <room>/web/secret.key;
delete it to revoke all invites. --open drops invites: anyone who can reach
the address can then join as any player, so keep it to localhost.
`),
		Example: strings.TrimSpace(`
# Serve the current room on localhost
scenelinks serve --addr 127.0.0.1:3334

# Serve a room on the table's LAN
scenelinks --room crypt serve --addr :3334
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, ref, err := openRoom(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			var secret []byte
			if !open {
				if secret, err = webtui.LoadOrInitSecretKey(ref.Dir); err != nil {
					return writeErr(cmd, err)
				}
			}

			srv, err := webtui.NewServer(webtui.ServerConfig{
				Addr:    strings.TrimSpace(addr),
				Room:    ref.Name,
				Dir:     dirUnlessNamed(ref),
				Players: st.Players,
				Secret:  secret,
				Log:     app.logger().With("component", "webtui"),
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			listenAddr := srv.Addr()
			base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
			if base == "" {
				base = "http://" + browseHost(listenAddr)
			}

			invites := []map[string]any{}
			if !open {
				players, err := st.Players(cmd.Context())
				if err != nil {
					return writeErr(cmd, err)
				}
				for _, p := range players {
					tok, err := webtui.NewInviteToken(secret, webtui.Invite{Room: ref.Name, Player: p.ID}, ttl)
					if err != nil {
						return writeErr(cmd, err)
					}
					invites = append(invites, map[string]any{
						"player": p.ID,
						"name":   p.Name,
						"role":   p.Role,
						"url":    base + "/panel?t=" + url.QueryEscape(tok),
					})
				}
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      listenAddr,
					"url":       base,
					"room":      ref,
					"invites":   invites,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{"open " + base},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "scenelinks serving %s at %s\n", ref.Label(), base)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			hs := &http.Server{Addr: listenAddr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = hs.Shutdown(shutdownCtx)
			}()

			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3334", "Bind address (host:port or :port)")
	cmd.Flags().StringVar(&baseURL, "url", "", "Public base URL used in invite links (default: http://<addr>)")
	cmd.Flags().BoolVar(&open, "open", false, "No invites: anyone reaching the server may join as any player")
	cmd.Flags().DurationVar(&ttl, "invite-ttl", 12*time.Hour, "How long invite links stay valid")
	return cmd
}

// browseHost turns a bind address into something a browser can open.
func browseHost(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

// dirUnlessNamed keeps spawned panels on the room registry when the room
// was picked by name.
func dirUnlessNamed(ref roomRef) string {
	if ref.Name != "" {
		return ""
	}
	return ref.Dir
}
