// Package server exposes one loaded Window over HTTP so the toggles can be driven from
// outside the process: clicks arrive as JSON, attribute mutations stream out over a
// WebSocket.
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/heathj/statetoggle/browser"
	"github.com/heathj/statetoggle/parser"
	"github.com/heathj/statetoggle/parser/dom"
	"github.com/heathj/statetoggle/toggle"
)

const (
	tracerName          = "statetoggle/server"
	defaultWriteTimeout = 5 * time.Second
)

// Mutation is the wire form of a dom.MutationRecord.
type Mutation struct {
	Element     string `json:"element"`
	Attribute   string `json:"attribute"`
	OldValue    string `json:"oldValue,omitempty"`
	HadOldValue bool   `json:"hadOldValue"`
	Value       string `json:"value"`
}

// Message is sent to WebSocket clients.
type Message struct {
	Type     string    `json:"type"`
	Mutation *Mutation `json:"mutation,omitempty"`
}

type ClickRequest struct {
	Selector string `json:"selector"`
}

type ClickResponse struct {
	Target           string     `json:"target"`
	DefaultPrevented bool       `json:"defaultPrevented"`
	Mutations        []Mutation `json:"mutations"`
	ActiveElement    string     `json:"activeElement"`
	Navigated        string     `json:"navigated,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Option func(*Server)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithRegistry sets the registry the toggle metrics are registered with and /metrics
// serves (default: a fresh registry).
func WithRegistry(r *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = r
	}
}

// WithWriteTimeout bounds each WebSocket write. A client that cannot take a message in
// time is dropped, so a stalled reader never holds up clicks.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.writeTimeout = d
	}
}

// Server owns a Window. mu serialises every use of it, since a Window has a single
// event loop.
type Server struct {
	mu      sync.Mutex
	window  *browser.Window
	pending []Mutation

	log      logrus.FieldLogger
	registry *prometheus.Registry
	tracer   trace.Tracer
	router   chi.Router

	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	clientsMu    sync.Mutex
	clients      map[*websocket.Conn]bool
}

// New binds the state toggles to w, loads it, and builds the routes.
func New(w *browser.Window, opts ...Option) *Server {
	s := &Server{
		window:       w,
		log:          logrus.StandardLogger(),
		writeTimeout: defaultWriteTimeout,
		clients:      map[*websocket.Conn]bool{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.tracer = otel.Tracer(tracerName)

	toggle.BindStateToggles(w,
		toggle.WithLogger(s.log),
		toggle.WithMetrics(toggle.NewMetrics(toggle.WithRegistry(s.registry))))
	w.Document.Observe(s.record)
	w.Load()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/document", s.handleDocument)
	r.Post("/click", s.handleClick)
	r.Get("/ws", s.handleWebSocket)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// record runs on the window's goroutine, under mu.
func (s *Server) record(r dom.MutationRecord) {
	m := Mutation{
		Element:     r.Target.Describe(),
		Attribute:   r.AttributeName,
		OldValue:    r.OldValue,
		HadOldValue: r.HadOldValue,
		Value:       r.Target.GetAttribute(r.AttributeName),
	}
	s.pending = append(s.pending, m)
	s.broadcast(Message{Type: "mutation", Mutation: &m})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleDocument(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out, err := parser.RenderString(s.window.Document)
	s.mu.Unlock()
	if err != nil {
		s.log.WithError(err).Error("render document")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	_, span := s.tracer.Start(r.Context(), "statetoggle.click",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("statetoggle.selector", req.Selector)))
	defer span.End()

	status, resp, err := s.click(req.Selector)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	span.SetAttributes(
		attribute.Int("statetoggle.mutations", len(resp.Mutations)),
		attribute.Bool("statetoggle.default_prevented", resp.DefaultPrevented),
	)
	span.SetStatus(codes.Ok, "")
	writeJSON(w, status, resp)
}

func (s *Server) click(sel string) (int, *ClickResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, err := s.window.QuerySelector(sel)
	if err != nil {
		return http.StatusBadRequest, nil, err
	}
	if el == nil {
		return http.StatusNotFound, nil, errors.Errorf("no element matches %q", sel)
	}

	s.pending = nil
	navigations := len(s.window.Navigations())
	e := s.window.Click(el)

	resp := &ClickResponse{
		Target:           el.Describe(),
		DefaultPrevented: e.DefaultPrevented(),
		Mutations:        s.pending,
		ActiveElement:    s.window.Document.ActiveElement().Describe(),
	}
	if resp.Mutations == nil {
		resp.Mutations = []Mutation{}
	}
	if navs := s.window.Navigations(); len(navs) > navigations {
		resp.Navigated = navs[len(navs)-1].URL
	}
	s.pending = nil
	s.log.WithFields(logrus.Fields{
		"selector":  sel,
		"mutations": len(resp.Mutations),
		"prevented": resp.DefaultPrevented,
	}).Debug("click")
	return http.StatusOK, resp, nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Debug("websocket upgrade")
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	err = s.write(conn, Message{Type: "hello"})
	s.clientsMu.Unlock()
	if err != nil {
		s.drop(conn)
		return
	}

	// Clients only listen; reading notices when they go away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Debug("websocket closed")
			}
			break
		}
	}
	s.drop(conn)
}

func (s *Server) drop(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
	conn.Close()
}

// broadcast writes msg to every client. Writes happen under clientsMu, so a connection
// never has two writers. Clients whose write fails or times out are dropped.
func (s *Server) broadcast(msg Message) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn := range s.clients {
		if err := s.write(conn, msg); err != nil {
			s.log.WithError(err).Debug("dropping websocket client")
			delete(s.clients, conn)
			conn.Close()
		}
	}
}

func (s *Server) write(conn *websocket.Conn, msg Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
