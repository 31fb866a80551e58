// Package devserver serves a build's output directory while the bundler
// watches for changes.
package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 10086
)

type Config struct {
	Host        string
	Port        int
	CORSOrigins []string
	// Root is the directory being served.
	Root string
	// Fallback is served, relative to Root, for unknown extensionless paths
	// so a browser-history router can resolve them. Empty disables it.
	Fallback string
}

// Addr returns the listen address with defaults applied.
func (c Config) Addr() string {
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Handler serves the files under cfg.Root with CORS and request logging
// applied.
func Handler(cfg Config, logger zerolog.Logger) http.Handler {
	var h http.Handler = &staticHandler{
		root:     cfg.Root,
		fallback: cfg.Fallback,
		files:    http.FileServer(http.Dir(cfg.Root)),
	}

	h = withCORS(cfg.CORSOrigins, h)
	h = RequestLogger(logger)(h)

	return h
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, cfg Config, logger zerolog.Logger) error {
	srv := configureHTTPServer(cfg.Addr(), Handler(cfg, logger))

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", "http://"+srv.Addr).Str("root", cfg.Root).Msg("Starting dev server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return h
	}
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	})
	return middleware.Handler(h)
}

type staticHandler struct {
	root     string
	fallback string
	files    http.Handler
}

func (s *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")

	if s.fallback != "" && s.shouldFallback(r.URL.Path) {
		http.ServeFile(w, r, filepath.Join(s.root, s.fallback))
		return
	}

	s.files.ServeHTTP(w, r)
}

func (s *staticHandler) shouldFallback(urlPath string) bool {
	clean := path.Clean("/" + urlPath)
	if clean == "/" || path.Ext(clean) != "" {
		return false
	}

	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
	return errors.Is(err, os.ErrNotExist)
}
