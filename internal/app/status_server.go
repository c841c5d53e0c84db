package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vk/forgeci/internal/logstream"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

// healthHandler reports runner liveness for load balancers and probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// startStatusServer initializes and runs the status HTTP server. It serves
// the health endpoint and streams run events to socket.io clients.
func (a *App) startStatusServer(ctx context.Context, port int) {
	a.logger.Debug("Configuring status server.")

	opts := socket.DefaultServerOptions()
	opts.SetCors(&types.Cors{Origin: "*"})
	io := socket.NewServer(nil, opts)
	io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		a.logger.Debug("Status client connected.", "sid", client.Id())
	})
	go logstream.Forward(ctx, a.stream, io)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/socket.io/", io.ServeHandler(nil))

	addr := fmt.Sprintf(":%d", port)

	go func() {
		a.logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			a.logger.Error("Status server failed", "error", err)
		}
	}()
}
