// Package server exposes the reconstruction pipeline over HTTP. Each
// client gets a session holding its expanded set; the tree and layout
// are shared and computed once at startup. Frames are paginated so
// large views stream to the client batch by batch.
package server

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/canopyviz/canopy/pkg/errors"
	"github.com/canopyviz/canopy/pkg/layout"
	"github.com/canopyviz/canopy/pkg/materialize"
	"github.com/canopyviz/canopy/pkg/store"
	"github.com/canopyviz/canopy/pkg/tree"
	"github.com/canopyviz/canopy/pkg/wire"
)

// Server holds all HTTP handler dependencies. The tree is immutable
// after startup, so positions are computed once and shared by every
// request.
type Server struct {
	logger    *log.Logger
	tree      *tree.Tree
	positions map[string]layout.Position
	chunk     int
	store     store.Store
	sessions  *sessionManager
	router    chi.Router
}

// Options configures a Server.
type Options struct {
	Tree      *tree.Tree
	SpacingX  float64
	SpacingY  float64
	ChunkSize int
	Store     store.Store
	Logger    *log.Logger
}

// New creates a server and registers all routes.
func New(opts Options) *Server {
	if opts.SpacingX == 0 {
		opts.SpacingX = layout.DefaultSpacingX
	}
	if opts.SpacingY == 0 {
		opts.SpacingY = layout.DefaultSpacingY
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = materialize.DefaultChunkSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{
		logger:    opts.Logger,
		tree:      opts.Tree,
		positions: layout.Compute(opts.Tree, opts.SpacingX, opts.SpacingY),
		chunk:     opts.ChunkSize,
		store:     opts.Store,
		sessions:  newSessionManager(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/tree", s.getTree)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.createSession)
			r.Get("/{id}", s.getSession)
			r.Delete("/{id}", s.deleteSession)
			r.Post("/{id}/toggle", s.toggleNode)
			r.Post("/{id}/expand-all", s.expandAll)
			r.Post("/{id}/collapse-all", s.collapseAll)
			r.Get("/{id}/frame", s.getFrame)
		})

		r.Route("/snapshots", func(r chi.Router) {
			r.Post("/", s.saveSnapshot)
			r.Get("/", s.listSnapshots)
			r.Get("/{name}", s.getSnapshot)
			r.Delete("/{name}", s.deleteSnapshot)
			r.Post("/{name}/restore", s.restoreSnapshot)
		})
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// observe records latency per route and logs each request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		elapsed := time.Since(start)
		requestDuration.WithLabelValues(route).Observe(float64(elapsed.Milliseconds()))
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"duration", elapsed)
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /v1/tree - the full reconstructed tree.
func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, wire.FromTree(s.tree))
}

// viewState is the summary returned after any view mutation.
type viewState struct {
	SessionID string   `json:"session_id"`
	Visible   int      `json:"visible"`
	Batches   int      `json:"batches"`
	ChunkSize int      `json:"chunk_size"`
	Expanded  []string `json:"expanded"`
}

func (s *Server) viewState(sess *session) viewState {
	expanded := sess.snapshotExpanded()
	visible := tree.ComputeVisible(s.tree, expanded)
	return viewState{
		SessionID: sess.ID,
		Visible:   len(visible),
		Batches:   materialize.BatchCount(len(visible), s.chunk),
		ChunkSize: s.chunk,
		Expanded:  expanded.IDs(),
	}
}

// POST /v1/sessions - create a session. The optional body seeds the
// expanded set; the default is the collapsed view.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expanded  []string `json:"expanded"`
		ExpandAll bool     `json:"expand_all"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}

	var expanded tree.ExpandedSet
	switch {
	case req.ExpandAll:
		expanded = tree.ExpandAll(s.tree)
	case len(req.Expanded) > 0:
		expanded = tree.NewExpandedSet(req.Expanded...)
	default:
		expanded = tree.CollapseAll(s.tree)
	}

	sess := s.sessions.create(expanded)
	writeJSON(w, http.StatusCreated, s.viewState(sess))
}

// GET /v1/sessions/{id} - current view summary.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, s.viewState(sess))
}

// DELETE /v1/sessions/{id}
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.remove(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/sessions/{id}/toggle - flip one node's expansion.
func (s *Server) toggleNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if _, ok := s.tree.Node(req.ID); !ok {
		writeError(w, http.StatusNotFound, "unknown node: "+req.ID)
		return
	}

	sess.toggle(req.ID)
	togglesTotal.Inc()
	writeJSON(w, http.StatusOK, s.viewState(sess))
}

// POST /v1/sessions/{id}/expand-all
func (s *Server) expandAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	sess.setExpanded(tree.ExpandAll(s.tree))
	writeJSON(w, http.StatusOK, s.viewState(sess))
}

// POST /v1/sessions/{id}/collapse-all
func (s *Server) collapseAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	sess.setExpanded(tree.CollapseAll(s.tree))
	writeJSON(w, http.StatusOK, s.viewState(sess))
}

// frameResponse wraps a frame with its pagination position.
type frameResponse struct {
	wire.Frame
	Batch    int  `json:"batch"`
	Batches  int  `json:"batches"`
	Terminal bool `json:"terminal"`
}

// GET /v1/sessions/{id}/frame?batch=k - one cumulative batch of the
// session's visible view. Batch numbers are 1-based; the last batch
// carries the complete view at progress 100.
func (s *Server) getFrame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	batch := 1
	if raw := r.URL.Query().Get("batch"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "batch must be a positive integer")
			return
		}
		batch = n
	}

	expanded := sess.snapshotExpanded()
	visible := tree.ComputeVisible(s.tree, expanded)
	candNodes, candEdges := materialize.Candidates(s.tree, visible, s.positions, expanded)

	batches := materialize.BatchCount(len(candNodes), s.chunk)
	if batch > batches {
		writeError(w, http.StatusBadRequest, "batch out of range")
		return
	}

	nodes, edges, progress := materialize.Prefix(candNodes, candEdges, s.chunk, batch)
	terminal := batch == batches
	framesServed.WithLabelValues(strconv.FormatBool(terminal)).Inc()

	writeJSON(w, http.StatusOK, frameResponse{
		Frame:    wire.Frame{Nodes: nodes, Edges: edges, Progress: progress},
		Batch:    batch,
		Batches:  batches,
		Terminal: terminal,
	})
}

// POST /v1/snapshots - save a session's view under a name.
func (s *Server) saveSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "snapshot store not configured")
		return
	}

	var req struct {
		Name      string `json:"name"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := errors.ValidateSnapshotName(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, errors.UserMessage(err))
		return
	}
	sess, ok := s.sessions.get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	snap := wire.Snapshot{
		Name:     req.Name,
		SavedAt:  time.Now().UTC(),
		Tree:     wire.FromTree(s.tree),
		Expanded: sess.snapshotExpanded().IDs(),
	}
	if err := s.store.Save(r.Context(), snap); err != nil {
		snapshotOps.WithLabelValues("save", "error").Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	snapshotOps.WithLabelValues("save", "ok").Inc()
	writeJSON(w, http.StatusCreated, map[string]string{"name": snap.Name})
}

// GET /v1/snapshots - list snapshot names.
func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "snapshot store not configured")
		return
	}
	names, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"snapshots": names})
}

// GET /v1/snapshots/{name}
func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "snapshot store not configured")
		return
	}
	snap, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		status := http.StatusInternalServerError
		if stderrors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DELETE /v1/snapshots/{name}
func (s *Server) deleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "snapshot store not configured")
		return
	}
	err := s.store.Delete(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		status := http.StatusInternalServerError
		if stderrors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		snapshotOps.WithLabelValues("delete", "error").Inc()
		writeError(w, status, err.Error())
		return
	}
	snapshotOps.WithLabelValues("delete", "ok").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/snapshots/{name}/restore - apply a saved expanded set to a
// session.
func (s *Server) restoreSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "snapshot store not configured")
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	sess, ok := s.sessions.get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	snap, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		status := http.StatusInternalServerError
		if stderrors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	sess.setExpanded(tree.NewExpandedSet(snap.Expanded...))
	snapshotOps.WithLabelValues("restore", "ok").Inc()
	writeJSON(w, http.StatusOK, s.viewState(sess))
}
