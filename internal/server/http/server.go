package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/osamaakb/tempo/internal/runtime"
	linesvc "github.com/osamaakb/tempo/internal/services/lines"
)

type Server struct {
	rt    *runtime.Runtime
	srv   *http.Server
	lis   net.Listener
	lines *linesvc.Service
}

func New(rt *runtime.Runtime, lines *linesvc.Service) *Server {
	mux := http.NewServeMux()
	s := &Server{rt: rt, lines: lines, srv: &http.Server{Handler: cors(mux)}}
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	mux.HandleFunc("/v1/ns/create", s.handleNSCreate)
	mux.HandleFunc("/v1/lines/create", s.handleCreate)
	mux.HandleFunc("/v1/lines/publish", s.handlePublish)
	mux.HandleFunc("/v1/lines/subscribe", s.handleSubscribeSSE)
	mux.HandleFunc("/v1/lines/close", s.handleClose)
	mux.HandleFunc("/v1/lines/fault", s.handleFault)
	mux.HandleFunc("/v1/lines/stats", s.handleStats)
	mux.HandleFunc("/v1/lines/list", s.handleList)
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

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

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, linesvc.ErrLineNotFound), errors.Is(err, linesvc.ErrUnknownNS):
		return http.StatusNotFound
	case errors.Is(err, linesvc.ErrLineClosed):
		return http.StatusConflict
	case errors.Is(err, linesvc.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, linesvc.ErrRateLimited), errors.Is(err, linesvc.ErrLineFull):
		return http.StatusTooManyRequests
	case errors.Is(err, linesvc.ErrDelayTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_serving"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type nsCreateReq struct {
	Namespace string `json:"namespace"`
}

func (s *Server) handleNSCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req nsCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if _, err := s.lines.EnsureNamespace(r.Context(), req.Namespace); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type createReq struct {
	Namespace string            `json:"namespace"`
	Line      string            `json:"line"`
	DelayMs   int64             `json:"delay_ms"`
	Labels    map[string]string `json:"labels,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := s.lines.CreateLine(r.Context(), req.Namespace, req.Line, req.DelayMs, req.Labels); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type publishReq struct {
	Namespace string            `json:"namespace"`
	Line      string            `json:"line"`
	Payload   []byte            `json:"payload"`
	Headers   map[string]string `json:"headers,omitempty"`
}

type publishResp struct {
	ID    string `json:"id"`
	DueMs int64  `json:"due_ms"`
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req publishReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	id, dueMs, err := s.lines.Publish(r.Context(), req.Namespace, req.Line, req.Payload, req.Headers)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(publishResp{ID: id.String(), DueMs: dueMs})
}

type sseSink struct {
	w http.ResponseWriter
	r *http.Request
}

func (s sseSink) Send(ev linesvc.Event) error {
	b, _ := json.Marshal(map[string]any{
		"id":           ev.ID.String(),
		"line":         ev.Line,
		"payload":      ev.Payload,
		"headers":      ev.Headers,
		"published_ms": ev.PublishedAtMs,
		"due_ms":       ev.DueAtMs,
	})
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	_, err := s.w.Write([]byte("\n\n"))
	return err
}

func (s sseSink) Context() context.Context { return s.r.Context() }

func (s sseSink) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func (s *Server) handleSubscribeSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	ns := q.Get("namespace")
	line := q.Get("line")
	filter := q.Get("filter")
	// Validate before committing to the event stream so missing lines can
	// still get a proper status code.
	if _, err := s.lines.Stats(r.Context(), ns, line); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	sink := sseSink{w: w, r: r}
	err := s.lines.Subscribe(r.Context(), ns, line, linesvc.SubscribeOptions{Filter: filter}, sink)
	switch {
	case err == nil:
		_, _ = w.Write([]byte("event: complete\ndata: {}\n\n"))
		_ = sink.Flush()
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		b, _ := json.Marshal(map[string]string{"error": err.Error()})
		_, _ = w.Write([]byte("event: error\ndata: "))
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n\n"))
		_ = sink.Flush()
	}
}

type lineReq struct {
	Namespace string `json:"namespace"`
	Line      string `json:"line"`
	Reason    string `json:"reason,omitempty"`
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req lineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := s.lines.CloseLine(r.Context(), req.Namespace, req.Line); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFault(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req lineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "line faulted"
	}
	if err := s.lines.Fault(r.Context(), req.Namespace, req.Line, reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	st, err := s.lines.Stats(r.Context(), q.Get("namespace"), q.Get("line"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	names, err := s.lines.ListLines(r.Context(), r.URL.Query().Get("namespace"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"lines": names})
}
