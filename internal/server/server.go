// Package server exposes the speech queue over HTTP so other programs can
// make herald talk.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/herald/internal/speech"
	"github.com/dgnsrekt/herald/internal/text"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// MaxTextLength is the longest text accepted by POST /say, in runes.
const MaxTextLength = 4096

// maxBodyBytes fits MaxTextLength runes of any width plus the JSON envelope.
const maxBodyBytes = MaxTextLength*utf8.UTFMax + 1024

// Speaker is the producer side of the speech queue.
type Speaker interface {
	Say(text string) error
	Stats() speech.Stats
	BackendName() string
}

// Server routes HTTP requests onto a Speaker. A nil Speaker means speech
// is unavailable; /say then answers 503.
type Server struct {
	router   chi.Router
	speaker  Speaker
	logger   *log.Logger
	validate *validator.Validate
	metrics  *metrics
	textOpts text.Options
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTextOptions sets how request text is prepared before speaking.
func WithTextOptions(o text.Options) Option {
	return func(s *Server) {
		s.textOpts = o
	}
}

type sayRequest struct {
	Text string `json:"text" validate:"required,max=4096"`
	// Plain skips markdown stripping.
	Plain bool `json:"plain"`
}

type sayResponse struct {
	Status string `json:"status"`
	Text   string `json:"text,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Speech  string `json:"speech"`
	Backend string `json:"backend,omitempty"`
	Worker  string `json:"worker,omitempty"`
	Queued  int    `json:"queued"`
}

// New builds the router.
func New(sp Speaker, opts ...Option) *Server {
	s := &Server{
		speaker:  sp,
		logger:   log.Default(),
		validate: validator.New(),
		textOpts: text.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics(sp)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/say", s.handleSay)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.handler())

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("Listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleSay(w http.ResponseWriter, r *http.Request) {
	var req sayRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.reply(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.reply(w, http.StatusBadRequest, errorResponse{Error: validationMessage(err)})
		return
	}

	opts := s.textOpts
	if req.Plain {
		opts.Markdown = false
	}
	prepared := text.Prepare(req.Text, opts)
	if prepared == "" {
		s.reply(w, http.StatusBadRequest, errorResponse{Error: "nothing to say"})
		return
	}

	if s.speaker == nil {
		s.reply(w, http.StatusServiceUnavailable, errorResponse{Error: "speech is unavailable"})
		return
	}

	switch err := s.speaker.Say(prepared); {
	case err == nil:
		s.reply(w, http.StatusAccepted, sayResponse{Status: "queued", Text: prepared})
	case errors.Is(err, speech.ErrFull):
		w.Header().Set("Retry-After", "1")
		s.reply(w, http.StatusTooManyRequests, errorResponse{Error: "speech queue is full"})
	case errors.Is(err, speech.ErrClosed):
		s.reply(w, http.StatusServiceUnavailable, errorResponse{Error: "speech queue is closed"})
	default:
		s.logger.Error("Failed to enqueue utterance", "error", err)
		s.reply(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Speech: "unavailable"}
	if s.speaker != nil {
		st := s.speaker.Stats()
		resp.Speech = "available"
		resp.Backend = s.speaker.BackendName()
		resp.Worker = st.State.String()
		resp.Queued = st.Queued
		if st.State == speech.StateTerminated {
			resp.Speech = "closed"
		}
	}
	s.reply(w, http.StatusOK, resp)
}

func (s *Server) reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "text is required"
	case "max":
		return "text is too long"
	default:
		return "invalid " + fe.Field()
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.metrics.observe(r, ww.Status())
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
