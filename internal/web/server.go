// Package web provides the HTTP server and routing
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"vthell-api/internal/web/handlers"
)

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	handlers *handlers.Handlers
	logger   *slog.Logger
}

// NewServer creates a new HTTP server listening on port
func NewServer(h *handlers.Handlers, port string) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", h.Ping)
	mux.HandleFunc("GET /api/{$}", h.Home)
	mux.HandleFunc("GET /api/echo", h.Echo)

	// Jobs
	mux.HandleFunc("GET /api/jobs", h.ListJobs)
	mux.HandleFunc("POST /api/jobs", h.CreateJob)
	mux.HandleFunc("PUT /api/jobs", h.ReloadJob)
	mux.HandleFunc("DELETE /api/jobs", h.DeleteJob)
	mux.HandleFunc("GET /api/stats/{ids...}", h.JobStats)
	mux.HandleFunc("GET /api/status/{ids...}", h.JobStatus)

	// Archive index
	mux.HandleFunc("GET /api/records", h.Records)
	mux.HandleFunc("POST /api/records/rebuild", h.RebuildRecords)

	logger := slog.Default()
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      withCORS(withRequestLog(mux, logger)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		server:   server,
		handlers: h,
		logger:   logger,
	}
}

// withCORS allows every origin and answers preflight requests
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Methods", "DELETE, GET, POST, PUT")
		if headers := r.Header.Get("Access-Control-Request-Headers"); headers != "" {
			w.Header().Set("Access-Control-Allow-Headers", headers)
		}
		w.WriteHeader(http.StatusOK)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withRequestLog(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Microsecond))
	})
}

// Handler returns the routed handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	localIP := getLocalIP()
	port := strings.TrimPrefix(s.server.Addr, ":")

	s.logger.Info("Starting HTTP server",
		"addr", s.server.Addr,
		"local_ip", localIP,
		"port", port,
		"url", fmt.Sprintf("http://%s:%s", localIP, port))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// getLocalIP returns the first private IPv4 address, for the startup log
func getLocalIP() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "localhost"
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}

			if ip == nil || ip.IsLoopback() {
				continue
			}
			if ip4 := ip.To4(); ip4 != nil && ip4.IsPrivate() {
				return ip4.String()
			}
		}
	}

	return "localhost"
}
