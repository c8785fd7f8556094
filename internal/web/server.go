package web

import (
	"crypto/subtle"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"coursegrid/internal/config"
	appLog "coursegrid/internal/log"
	"coursegrid/internal/schedule"
	"coursegrid/internal/store"
)

// Server provides the HTTP API for event CRUD, week resolution, statistics,
// visibility preferences, shared snapshots and ICS export, plus the embedded
// static week-grid UI.
type Server struct {
	cfg   *config.Config
	st    store.Store
	debug bool
	mux   *http.ServeMux

	// In-memory cache for /api/week responses, keyed by the week's Monday.
	// Resolution is cheap but runs on every grid paint; a short TTL keeps
	// hammering clients off the store. Mutations drop the whole cache.
	weekMu    sync.Mutex
	weekCache map[string]weekCacheEntry
}

type weekCacheEntry struct {
	resp      weekResponse
	updatedAt time.Time
}

const weekCacheTTL = 15 * time.Second

// embeddedStatic contains the static week-grid page served at /.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, st store.Store, debug bool) *Server {
	s := &Server{
		cfg:       cfg,
		st:        st,
		debug:     debug,
		mux:       http.NewServeMux(),
		weekCache: make(map[string]weekCacheEntry),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health and public share
// fetches with HTTP Basic Auth. Shared schedules are view-by-link, so the
// GET side of /api/shares stays open.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/shares/") {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="coursegrid", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	s.mux.HandleFunc("POST /api/events/bulk", s.handleBulkCreate)
	s.mux.HandleFunc("DELETE /api/events", s.handleClearEvents)
	s.mux.HandleFunc("PATCH /api/events/{id}", s.handleUpdateEvent)
	// PUT is accepted with the same partial semantics so clients that only
	// change the theme cannot wipe the rest of the record.
	s.mux.HandleFunc("PUT /api/events/{id}", s.handleUpdateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)

	s.mux.HandleFunc("GET /api/week", s.handleWeek)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)

	s.mux.HandleFunc("GET /api/visibility", s.handleGetVisibility)
	s.mux.HandleFunc("PUT /api/visibility", s.handleSetVisibility)

	s.mux.HandleFunc("POST /api/shares", s.handleCreateShare)
	s.mux.HandleFunc("GET /api/shares/{id}", s.handleGetShare)

	s.mux.HandleFunc("GET /api/export.ics", s.handleExportICS)

	s.mux.HandleFunc("GET /preview.png", s.handlePreview)

	// Static week-grid UI; all non-API paths fall through to it.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer serves the embedded static UI from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// API paths that reach this handler are unknown; they must 404 as
		// JSON-shaped endpoints, not be answered with HTML.
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// handlePreview serves the last rendered PNG preview from disk. The path
// rule matches the capture pipeline in cmd/coursegrid:
//   - default: /var/lib/coursegrid/preview.png
//   - debug:   ./cache/preview.png
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, PreviewPath(s.debug))
}

// PreviewPath is where the capture pipeline writes and this server reads
// the week-grid PNG.
func PreviewPath(debug bool) string {
	if debug {
		return "./cache/preview.png"
	}
	return "/var/lib/coursegrid/preview.png"
}

// invalidateWeekCache drops all cached week responses after any mutation.
func (s *Server) invalidateWeekCache() {
	s.weekMu.Lock()
	s.weekCache = make(map[string]weekCacheEntry)
	s.weekMu.Unlock()
}

// layoutConfig threads the configured grid geometry into the engine.
func (s *Server) layoutConfig() schedule.LayoutConfig {
	g := s.cfg.Grid
	return schedule.LayoutConfig{
		CalendarStartMinutes: g.DayStartHour * 60,
		CalendarEndMinutes:   g.DayEndHour * 60,
		SlotHeightPx:         g.SlotHeightPx,
		MinHeightPx:          g.MinEventHeightPx,
		MarginPct:            g.ColumnMarginPct,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to encode JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
