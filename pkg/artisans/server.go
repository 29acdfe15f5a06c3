package artisans

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// ServerOptions configures the artisan API router.
type ServerOptions struct {
	Dataset           *Dataset
	Logger            *zap.Logger
	AllowedOrigins    []string
	ChatRatePerSecond float64
	ChatBurst         int
}

// Server exposes the dataset over HTTP.
type Server struct {
	dataset *Dataset
	logger  *zap.Logger
	limiter *RateLimiter
	policy  *bluemonday.Policy
	origins []string
	handler http.Handler
}

// NewServer builds the router. A nil dataset behaves like an empty one.
func NewServer(opts ServerOptions) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Dataset == nil {
		opts.Dataset = &Dataset{index: map[string]bool{}}
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s := &Server{
		dataset: opts.Dataset,
		logger:  opts.Logger.Named("artisans"),
		limiter: NewRateLimiter(opts.ChatRatePerSecond, opts.ChatBurst),
		policy:  bluemonday.StrictPolicy(),
		origins: origins,
	}
	s.handler = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.With(s.limiter.Middleware).Post("/chat", s.handleChat)
		r.Post("/search", s.handleSearch)
		r.Get("/statistics", s.handleStatistics)
		r.Post("/filter", s.handleFilter)
		r.Get("/similar/{id}", s.handleSimilar)
		r.Get("/unique-values/{column}", s.handleUniqueValues)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "not loaded"
	if !s.dataset.Empty() {
		status = "loaded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"message":        "Kala-Kaart AI Assistant API is running",
		"data_status":    status,
		"total_artisans": s.dataset.Len(),
	})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	message := strings.TrimSpace(s.policy.Sanitize(req.Message))
	resp, err := s.dataset.Reply(message)
	if err != nil {
		s.logger.Error("chat endpoint error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ChatResponse{
			Status:      "error",
			Message:     "Failed to process your request. Please try again.",
			LLMMessage:  "Error: backend server encountered an internal error. Check logs for details.",
			Artists:     []Artisan{},
			Suggestions: []string{},
		})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	artists := s.dataset.Search(req.Query, req.MaxResults)
	writeJSON(w, http.StatusOK, map[string]any{
		"artists": artists,
		"total":   len(artists),
		"query":   req.Query,
	})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.dataset.Statistics()
	if errors.Is(err, ErrNoData) {
		writeJSON(w, http.StatusOK, map[string]any{
			"stats":   map[string]string{"error": "No CSV data loaded"},
			"message": StatisticsMessage,
		})
		return
	}
	if err != nil {
		s.logger.Error("statistics endpoint error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get statistics"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":   stats,
		"message": StatisticsMessage,
	})
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	raw := map[string]any{}
	if err := decodeBody(r, &raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	filters := make(map[string]string, len(raw))
	for k, v := range raw {
		filters[k] = stringify(v)
	}
	artists := s.dataset.Filter(filters)
	writeJSON(w, http.StatusOK, map[string]any{
		"artists":         artists,
		"total":           len(artists),
		"filters_applied": raw,
	})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	limit := defaultSimilar
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	result, err := s.dataset.Similar(chi.URLParam(r, "id"), limit)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Artisan or similar artists not found"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUniqueValues(w http.ResponseWriter, r *http.Request) {
	column := chi.URLParam(r, "column")
	values, ok := s.dataset.UniqueValues(column)
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]any{
		"column": column,
		"values": values,
		"count":  len(values),
	})
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		data, _ := json.Marshal(t)
		return string(data)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
