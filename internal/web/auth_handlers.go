package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fieldsales/crm-comercios/internal/auth"
)

type loginData struct {
	Legajo string
	Error  string
}

// handleLogin renders the legajo form on GET and starts a session on POST.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, err := s.sessions.Validate(r); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.render(w, "login.html", loginData{})
	case http.MethodPost:
		s.handleLoginSubmit(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	raw := r.FormValue("legajo")
	id, err := s.roles.Login(raw)
	if errors.Is(err, auth.ErrInvalidLegajo) {
		s.renderStatus(w, http.StatusUnprocessableEntity, "login.html", loginData{
			Legajo: raw,
			Error:  "Ingresá un legajo válido.",
		})
		return
	}
	if err != nil {
		http.Error(w, "Error logging in", http.StatusInternalServerError)
		return
	}

	if err := s.sessions.Create(w, r, id); err != nil {
		slog.Error("creating session", "legajo", id.Legajo, "error", err)
		http.Error(w, "Error creating session", http.StatusInternalServerError)
		return
	}
	slog.Info("login", "legajo", id.Legajo, "role", id.Role)

	if id.IsManager() {
		http.Redirect(w, r, "/manager", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout destroys the session and returns to the login page.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.sessions.Destroy(w, r); err != nil {
		slog.Error("destroying session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
