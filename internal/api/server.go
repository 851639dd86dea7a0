package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sevenofnine/scheduler/internal/domain"
	"github.com/sevenofnine/scheduler/internal/event"
	"github.com/sevenofnine/scheduler/internal/metrics"
)

const maxBodyBytes = 1 << 20

// EventService is the part of event.Service the handlers use.
type EventService interface {
	List(ctx context.Context) ([]domain.WireEvent, error)
	Get(ctx context.Context, id string) (domain.WireEvent, error)
	Create(ctx context.Context, in domain.CreateRequest) (domain.WireEvent, error)
	Update(ctx context.Context, id string, p domain.Patch) (domain.WireEvent, error)
	Delete(ctx context.Context, id string) error
}

type Server struct {
	events  EventService
	metrics *metrics.Metrics
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
	handler http.Handler
	httpSrv *http.Server
}

type Options struct {
	Events EventService
	// Metrics is optional; without it /metrics is not served.
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		events:  opts.Events,
		metrics: opts.Metrics,
		log:     logger,
		timeout: opts.RequestTimeout,
		now:     time.Now,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.HandleFunc("GET /events", s.handleList)
	mux.HandleFunc("POST /events", s.handleCreate)
	mux.HandleFunc("GET /events/{id}", s.handleGet)
	mux.HandleFunc("PUT /events/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /events/{id}", s.handleDelete)
	mux.HandleFunc("GET /events.ics", s.handleICS)

	// legacy /Scheduler paths used by the browser widget
	mux.HandleFunc("GET /Scheduler/GetEvents", s.handleList)
	mux.HandleFunc("POST /Scheduler/CreateEvent", s.handleCreate)
	mux.HandleFunc("PUT /Scheduler/UpdateEvent/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /Scheduler/DeleteEvent/{id}", s.handleDelete)

	s.handler = s.recoverPanics(s.withTimeout(s.instrument(mux)))
	s.httpSrv = &http.Server{Handler: s.handler, ReadHeaderTimeout: 5 * time.Second}
	return s
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) ServeTCP(ctx context.Context, bind string) error {
	if bind == "" {
		return errors.New("bind required")
	}
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}
	s.log.Info("listening", "network", "tcp", "addr", ln.Addr().String())
	go s.shutdownOnContext(ctx)
	return s.serve(ln)
}

func (s *Server) ServeUnix(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("socket path required")
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return err
	}
	s.log.Info("listening", "network", "unix", "addr", path)
	go s.shutdownOnContext(ctx)
	return s.serve(ln)
}

func (s *Server) serve(ln net.Listener) error {
	if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) shutdownOnContext(ctx context.Context) {
	<-ctx.Done()
	timeout, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(timeout)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := s.events.List(r.Context())
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type mutationResponse struct {
	Success   bool              `json:"success"`
	EventData *domain.WireEvent `json:"eventData,omitempty"`
}

type failureResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var in domain.CreateRequest
	if err := json.Unmarshal(body, &in); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	created, err := s.events.Create(r.Context(), in)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Success: true, EventData: &created})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	patch, err := domain.DecodePatch(body)
	if err != nil {
		// an unknown id is reported before a malformed body
		if _, gerr := s.events.Get(r.Context(), id); gerr != nil {
			s.writeServiceErr(w, r, gerr)
			return
		}
		var fe *domain.FieldError
		if errors.As(err, &fe) {
			writeFailure(w, http.StatusBadRequest, "", map[string]string{fe.Field: "has the wrong type"})
			return
		}
		writeFailure(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	updated, err := s.events.Update(r.Context(), id, patch)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Success: true, EventData: &updated})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	e, err := s.events.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.events.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Success: true})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, http.StatusRequestEntityTooLarge, "request body too large", nil)
			return nil, false
		}
		writeFailure(w, http.StatusBadRequest, "unreadable body", nil)
		return nil, false
	}
	return body, true
}

// writeServiceErr maps service errors to responses. Anything that is not a
// client error is logged and reported without detail.
func (s *Server) writeServiceErr(w http.ResponseWriter, r *http.Request, err error) {
	var verr *event.ValidationError
	switch {
	case errors.As(err, &verr):
		writeFailure(w, http.StatusBadRequest, "", verr.Fields)
	case errors.Is(err, event.ErrInvalidInput):
		writeFailure(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, event.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "event not found", nil)
	case errors.Is(err, context.DeadlineExceeded):
		s.log.Warn("request timed out", "method", r.Method, "path", r.URL.Path)
		writeFailure(w, http.StatusServiceUnavailable, "request timed out", nil)
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeFailure(w, http.StatusInternalServerError, "internal server error", nil)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, code int, msg string, fields map[string]string) {
	writeJSON(w, code, failureResponse{Success: false, Error: msg, Errors: fields})
}
