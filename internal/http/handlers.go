package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"healthbot/internal/core"
	"healthbot/internal/logger"
	"healthbot/internal/outbreak"
	"healthbot/pkg"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds the request body of POST /api/messages.
const maxBodyBytes = 64 << 10

// Asker answers a single user message.
type Asker interface {
	Handle(ctx context.Context, text string) (string, error)
}

// Syncer refreshes the outbreak collection.
type Syncer interface {
	Sync(ctx context.Context) (outbreak.Result, error)
}

// Store is the part of the knowledge store the server reports on.
type Store interface {
	Ping(ctx context.Context) error
	Counts(ctx context.Context) (pkg.Counts, error)
}

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be passed to an http.Server.
type Server struct {
	Agent  Asker
	Syncer Syncer
	Store  Store
	log    *slog.Logger
	router chi.Router
}

// NewServer constructs a Server and its routes.  gatherer backs GET /metrics
// and may be nil to leave the endpoint out.
func NewServer(agent Asker, syncer Syncer, store Store, log *slog.Logger, gatherer prometheus.Gatherer) *Server {
	if log == nil {
		log = logger.Discard()
	}
	s := &Server{Agent: agent, Syncer: syncer, Store: store, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/api/messages", s.handlePostMessage)
	r.Post("/api/outbreaks/sync", s.handleSync)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s
}

// ServeHTTP dispatches to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string     `json:"status"`
	Counts pkg.Counts `json:"counts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	counts, err := s.Store.Counts(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Counts: counts})
}

// handlePostMessage runs one exchange for the JSON body {"text": "..."}.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req pkg.AskRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text must not be empty"})
		return
	}

	reply, err := s.Agent.Handle(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, core.ErrEmptyMessage) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.log.Error("message failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("err", err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "the assistant could not answer right now"})
		return
	}
	writeJSON(w, http.StatusOK, pkg.AskResponse{Reply: reply})
}

type syncResponse struct {
	Fetched    int                   `json:"fetched"`
	Inserted   int                   `json:"inserted"`
	Duplicates int                   `json:"duplicates"`
	Skipped    int                   `json:"skipped"`
	New        []pkg.DiseaseOutbreak `json:"new"`
	Message    string                `json:"message"`
}

// handleSync triggers an outbreak sync outside of a conversation.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.Syncer.Sync(r.Context())
	if err != nil {
		s.log.Error("outbreak sync failed", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	resp := syncResponse{
		Fetched:    res.Fetched,
		Inserted:   res.Inserted,
		Duplicates: res.Duplicates,
		Skipped:    res.Skipped,
		New:        res.New,
		Message:    res.Message(),
	}
	if resp.New == nil {
		resp.New = []pkg.DiseaseOutbreak{}
	}
	status := http.StatusOK
	if res.Err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
