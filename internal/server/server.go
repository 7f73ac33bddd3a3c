// Package server exposes the pipeline as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/valpere/lingobot/internal"
	"github.com/valpere/lingobot/internal/generator"
	"github.com/valpere/lingobot/internal/lang"
	"github.com/valpere/lingobot/internal/logger"
	"github.com/valpere/lingobot/internal/pipeline"
	"github.com/valpere/lingobot/internal/pivot"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type Asker interface {
	Ask(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
}

// Translator is satisfied by *pipeline.Pipeline.
type Translator interface {
	Translate(ctx context.Context, text string, src, tgt lang.Tag) pivot.Result
}

// History is satisfied by *store.Store.
type History interface {
	ListExchanges(ctx context.Context, limit, offset int) ([]internal.Exchange, error)
	GetExchange(ctx context.Context, id string) (*internal.Exchange, error)
}

type Config struct {
	Pipeline   Asker
	Translator Translator
	// Detector resolves "auto" source languages on /api/translate.
	Detector pipeline.LanguageDetector
	// History is optional; without it the history routes answer 404.
	History  History
	Backends []generator.Choice
	Logger   *zap.Logger
}

type Server struct {
	cfg    Config
	log    *zap.Logger
	router *mux.Router
}

func New(cfg Config) *Server {
	s := &Server{
		cfg:    cfg,
		log:    logger.OrNop(cfg.Logger),
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.logging)
	s.router.NotFoundHandler = s.logging(http.HandlerFunc(notFound))
	s.router.MethodNotAllowedHandler = s.logging(http.HandlerFunc(methodNotAllowed))

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/ask", s.handleAsk).Methods(http.MethodPost)
	s.router.HandleFunc("/api/translate", s.handleTranslate).Methods(http.MethodPost)
	s.router.HandleFunc("/api/languages", s.handleLanguages).Methods(http.MethodGet)
	s.router.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)
	s.router.HandleFunc("/api/history/{id}", s.handleExchange).Methods(http.MethodGet)
}

func (s *Server) Handler() http.Handler { return s.router }

type ListenConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, lc ListenConfig) error {
	srv := &http.Server{
		Addr:         lc.Addr,
		Handler:      s.router,
		ReadTimeout:  lc.ReadTimeout,
		WriteTimeout: lc.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.String("addr", lc.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("api request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", time.Since(start)),
		)
	})
}
