package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sensorhop/relay/internal/server/http/controllers"
	"github.com/sensorhop/relay/internal/ui"
)

// Server is the HTTP face of the relay: the dashboard page, the SSE event
// stream and the JSON endpoints.
type Server struct {
	srv *http.Server
	lis net.Listener
}

// New wires the controller routes and the embedded dashboard into a server.
func New(deps controllers.Deps) *Server {
	mux := http.NewServeMux()
	controllers.NewRegistry(deps).RegisterAllRoutes(mux)
	mux.Handle("/", http.FileServer(ui.FS()))
	return &Server{srv: &http.Server{Handler: cors(mux)}}
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. Live SSE sessions end when the fan-out bus closes.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr returns the bound listen address, useful when addr was ":0".
func (s *Server) Addr() string {
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
