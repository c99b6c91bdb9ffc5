// Package web provides the HTTP server and handlers for the CRM web UI.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldsales/crm-comercios/internal/auth"
	"github.com/fieldsales/crm-comercios/internal/logging"
	"github.com/fieldsales/crm-comercios/internal/merchant"
	"github.com/fieldsales/crm-comercios/internal/metrics"
	"github.com/fieldsales/crm-comercios/internal/route"
	"github.com/fieldsales/crm-comercios/internal/status"
	"github.com/fieldsales/crm-comercios/internal/visit"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Deps are the collaborators the server needs.
type Deps struct {
	Directory *merchant.Source
	Visits    *visit.Service
	Planner   *route.Planner
	Roles     *auth.Roles
	Sessions  *auth.SessionStore
	Metrics   *metrics.Metrics // optional
}

// Server is the web UI HTTP server.
type Server struct {
	directory *merchant.Source
	visits    *visit.Service
	repo      *visit.Repository
	planner   *route.Planner
	roles     *auth.Roles
	sessions  *auth.SessionStore
	templates *template.Template
	mux       *http.ServeMux
	handler   http.Handler
}

// NewServer creates the web server and registers its routes.
func NewServer(d Deps) (*Server, error) {
	funcMap := template.FuncMap{
		"formatTime":  tmplFormatTime,
		"formatDays":  tmplFormatDays,
		"formatKm":    tmplFormatKm,
		"formatPct":   tmplFormatPct,
		"deref":       tmplDeref,
		"statusClass": tmplStatusClass,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		directory: d.Directory,
		visits:    d.Visits,
		repo:      d.Visits.Repository(),
		planner:   d.Planner,
		roles:     d.Roles,
		sessions:  d.Sessions,
		templates: tmpl,
		mux:       http.NewServeMux(),
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	s.mux.HandleFunc("/health", s.handleHealth)
	if d.Metrics != nil {
		s.mux.Handle("/metrics", d.Metrics.Handler())
	}

	s.mux.HandleFunc("/login", s.handleLogin)
	s.mux.HandleFunc("/logout", s.handleLogout)

	s.mux.HandleFunc("/", s.handleMerchants)
	s.mux.HandleFunc("/gestiones", s.handleVisitSubmit)
	s.mux.HandleFunc("/historial", s.handleHistory)
	s.mux.HandleFunc("/historial.csv", s.handleHistoryCSV)
	s.mux.HandleFunc("/ruta", s.handleRoute)
	s.mux.Handle("/manager", auth.RequireManager(http.HandlerFunc(s.handleManager)))
	s.mux.Handle("/manager/resumen.csv", auth.RequireManager(http.HandlerFunc(s.handleManagerCSV)))

	s.mux.HandleFunc("/api/merchants", s.apiMerchants)
	s.mux.HandleFunc("/api/map", s.apiMap)
	s.mux.HandleFunc("/api/gestiones", s.apiVisits)
	s.mux.HandleFunc("/api/route", s.apiRoute)
	s.mux.Handle("/api/resumen", auth.RequireManager(http.HandlerFunc(s.apiSummary)))

	s.handler = logging.RequestLogger(auth.RequireAuth(s.sessions, s.mux))

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]interface{}{
		"status":    "ok",
		"merchants": s.directory.Current().Len(),
	}, http.StatusOK)
}

// render executes a page template with status 200.
func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	s.renderStatus(w, http.StatusOK, name, data)
}

// renderStatus executes a page template into a buffer so a template error
// can still produce a clean 500.
func (s *Server) renderStatus(w http.ResponseWriter, code int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("writing response", "template", name, "error", err)
	}
}

// Template helper functions

func tmplFormatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02/01/2006 15:04")
}

func tmplFormatDays(days int) string {
	switch days {
	case status.NoContactDays:
		return "Sin gestiones"
	case 1:
		return "1 día"
	default:
		return fmt.Sprintf("%d días", days)
	}
}

func tmplFormatKm(km float64) string {
	return fmt.Sprintf("%.1f km", km)
}

func tmplFormatPct(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}

func tmplDeref(s *string) string {
	if s == nil {
		return "—"
	}
	return *s
}

func tmplStatusClass(s status.Status) string {
	return "status-" + s.String()
}
