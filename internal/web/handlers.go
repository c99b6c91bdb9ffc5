package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/fieldsales/crm-comercios/internal/auth"
	"github.com/fieldsales/crm-comercios/internal/export"
	"github.com/fieldsales/crm-comercios/internal/geocode"
	"github.com/fieldsales/crm-comercios/internal/logging"
	"github.com/fieldsales/crm-comercios/internal/mapview"
	"github.com/fieldsales/crm-comercios/internal/merchant"
	"github.com/fieldsales/crm-comercios/internal/report"
	"github.com/fieldsales/crm-comercios/internal/route"
	"github.com/fieldsales/crm-comercios/internal/status"
	"github.com/fieldsales/crm-comercios/internal/visit"
)

// User-facing messages.
const (
	msgNoMerchants     = "No tenés comercios asignados."
	msgResponseMissing = "Por favor, completá la respuesta del comercio."
	msgDuplicate       = "Ya registraste una gestión para este comercio hoy."
	msgSaved           = "Gestión registrada exitosamente."
	msgMirrorFailed    = "No se pudo guardar en Google Sheets: %v"
	msgUnknownMerchant = "Seleccioná un comercio de tu cartera."
	msgInvalidInput    = "Revisá los datos de la gestión: %v"
	msgNoHistory       = "Todavía no registraste ninguna gestión."
	msgAddressNotFound = "Dirección no encontrada"
	msgGeocodeFailed   = "No se pudo consultar la dirección. Probá de nuevo en unos minutos."
	msgNoCandidates    = "No quedan comercios pendientes con ubicación para armar la ruta."
)

type flash struct {
	Kind    string // success, warning, error, info
	Message string
}

type pageData struct {
	Identity auth.Identity
	Tab      string
	Flashes  []flash
}

type merchantRow struct {
	Merchant *merchant.Merchant
	Status   status.Status
}

type merchantsData struct {
	pageData
	Rows       []merchantRow
	Categories []string
	Filter     merchant.Filter
	Selected   string
	Channels   []visit.Channel
	Outcomes   []visit.Outcome
	Form       visit.Submission
	HasMap     bool
	Center     geocode.Point
	MapURL     template.URL
}

type historyData struct {
	pageData
	Records []*visit.Record
}

type routeData struct {
	pageData
	Address string
	Stops   []route.Stop
}

type managerData struct {
	pageData
	Rows      []report.Row
	Daily     []visit.DailyCount
	Total     int
	Merchants int
}

// identity returns the request's identity. RequireAuth guarantees one on
// every non-public route.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFrom(r.Context())
	return id
}

// assigned returns the identity's merchants, or renders the "no merchants"
// page and returns false.
func (s *Server) assigned(w http.ResponseWriter, r *http.Request, tab string) ([]*merchant.Merchant, bool) {
	id := identity(r)
	merchants := s.directory.Current().ForRepresentative(id.Legajo)
	if len(merchants) == 0 {
		s.render(w, "empty.html", pageData{
			Identity: id,
			Tab:      tab,
			Flashes:  []flash{{Kind: "warning", Message: msgNoMerchants}},
		})
		return nil, false
	}
	return merchants, true
}

// grouped loads the identity's records keyed by merchant name.
func (s *Server) grouped(ctx context.Context, legajo string) (map[string][]*visit.Record, error) {
	records, err := s.repo.ListByRepresentative(ctx, legajo)
	if err != nil {
		return nil, err
	}
	return status.ByMerchant(records), nil
}

// handleMerchants renders the merchants tab: filters, table, map and form.
func (s *Server) handleMerchants(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if identity(r).IsManager() {
		http.Redirect(w, r, "/manager", http.StatusSeeOther)
		return
	}

	filter := merchant.Filter{
		TaxID:    strings.TrimSpace(r.URL.Query().Get("cuit")),
		Category: r.URL.Query().Get("rubro"),
	}
	s.renderMerchants(w, r, http.StatusOK, filter, visit.Submission{Channel: visit.ChannelInPerson, Outcome: visit.OutcomeReached})
}

func (s *Server) renderMerchants(w http.ResponseWriter, r *http.Request, code int, filter merchant.Filter, form visit.Submission, flashes ...flash) {
	all, ok := s.assigned(w, r, "comercios")
	if !ok {
		return
	}
	id := identity(r)

	grouped, err := s.grouped(r.Context(), id.Legajo)
	if err != nil {
		serverError(w, r, "loading visits", err)
		return
	}

	filtered := filter.Apply(all)
	rows := make([]merchantRow, len(filtered))
	for i, m := range filtered {
		rows[i] = merchantRow{Merchant: m, Status: status.Of(m.Name, grouped)}
	}
	center, hasMap := mapview.Center(filtered)

	q := url.Values{}
	if filter.TaxID != "" {
		q.Set("cuit", filter.TaxID)
	}
	if filter.Category != "" && filter.Category != merchant.AllCategories {
		q.Set("rubro", filter.Category)
	}
	if filter.Category == "" {
		filter.Category = merchant.AllCategories
	}

	s.renderStatus(w, code, "merchants.html", merchantsData{
		pageData:   pageData{Identity: id, Tab: "comercios", Flashes: flashes},
		Rows:       rows,
		Categories: merchant.Categories(all),
		Filter:     filter,
		Selected:   form.MerchantName,
		Channels:   visit.Channels,
		Outcomes:   visit.Outcomes,
		Form:       form,
		HasMap:     hasMap,
		Center:     center,
		MapURL:     template.URL("/api/map?" + q.Encode()),
	})
}

// handleVisitSubmit logs a visit from the merchants form.
func (s *Server) handleVisitSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	id := identity(r)
	sub := visit.Submission{
		RepresentativeID: id.Legajo,
		MerchantName:     r.FormValue("merchant_name"),
		Channel:          visit.Channel(r.FormValue("contact_channel")),
		Outcome:          visit.Outcome(r.FormValue("contact_outcome")),
		Response:         r.FormValue("response_text"),
		RescheduleDate:   r.FormValue("reschedule_date"),
	}
	filter := merchant.Filter{TaxID: r.FormValue("cuit"), Category: r.FormValue("rubro")}

	result, err := s.submit(r.Context(), sub)
	if err != nil {
		code, msg, ok := submitErrorMessage(err)
		if !ok {
			serverError(w, r, "saving visit", err)
			return
		}
		s.renderMerchants(w, r, code, filter, sub, flash{Kind: "warning", Message: msg})
		return
	}

	flashes := []flash{{Kind: "success", Message: msgSaved}}
	if result.MirrorErr != nil {
		flashes = append(flashes, flash{Kind: "error", Message: fmt.Sprintf(msgMirrorFailed, result.MirrorErr)})
	}
	next := visit.Submission{MerchantName: sub.MerchantName, Channel: sub.Channel, Outcome: visit.OutcomeReached}
	s.renderMerchants(w, r, http.StatusOK, filter, next, flashes...)
}

var errUnknownMerchant = errors.New("merchant is not assigned to this representative")

// submit checks the merchant belongs to the representative before handing
// the submission to the visit service.
func (s *Server) submit(ctx context.Context, sub visit.Submission) (*visit.SubmitResult, error) {
	if _, ok := s.directory.Current().Lookup(sub.RepresentativeID, strings.TrimSpace(sub.MerchantName)); !ok {
		return nil, errUnknownMerchant
	}
	return s.visits.Submit(ctx, sub)
}

// submitErrorMessage maps user-correctable submission errors to a status
// code and message. ok is false for anything else.
func submitErrorMessage(err error) (code int, msg string, ok bool) {
	switch {
	case errors.Is(err, visit.ErrResponseRequired):
		return http.StatusUnprocessableEntity, msgResponseMissing, true
	case errors.Is(err, visit.ErrDuplicateToday):
		return http.StatusConflict, msgDuplicate, true
	case errors.Is(err, errUnknownMerchant):
		return http.StatusBadRequest, msgUnknownMerchant, true
	case errors.Is(err, visit.ErrInvalidChannel),
		errors.Is(err, visit.ErrInvalidOutcome),
		errors.Is(err, visit.ErrInvalidDate),
		errors.Is(err, visit.ErrInvalidRecord):
		return http.StatusUnprocessableEntity, fmt.Sprintf(msgInvalidInput, err), true
	}
	return 0, "", false
}

// handleHistory renders the representative's visit log.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := identity(r)

	records, err := s.repo.ListByRepresentative(r.Context(), id.Legajo)
	if err != nil {
		serverError(w, r, "loading history", err)
		return
	}

	data := historyData{pageData: pageData{Identity: id, Tab: "historial"}, Records: records}
	if len(records) == 0 {
		data.Flashes = []flash{{Kind: "info", Message: msgNoHistory}}
	}
	s.render(w, "history.html", data)
}

// handleHistoryCSV downloads the representative's visit log.
func (s *Server) handleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := s.repo.ListByRepresentative(r.Context(), identity(r).Legajo)
	if err != nil {
		serverError(w, r, "loading history", err)
		return
	}

	setCSVHeaders(w, export.HistoryFilename)
	if err := export.WriteHistory(w, records); err != nil {
		slog.ErrorContext(r.Context(), "writing history csv", "error", err, "request_id", logging.RequestID(r.Context()))
	}
}

// handleRoute plans today's route from the address in the query string.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	merchants, ok := s.assigned(w, r, "ruta")
	if !ok {
		return
	}

	id := identity(r)
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	data := routeData{pageData: pageData{Identity: id, Tab: "ruta"}, Address: address}
	if address == "" {
		s.render(w, "route.html", data)
		return
	}

	grouped, err := s.grouped(r.Context(), id.Legajo)
	if err != nil {
		serverError(w, r, "loading visits", err)
		return
	}

	stops, err := s.planner.PlanFromAddress(r.Context(), address, merchants, grouped)
	switch {
	case errors.Is(err, geocode.ErrNotFound):
		data.Flashes = []flash{{Kind: "warning", Message: msgAddressNotFound}}
	case err != nil:
		slog.WarnContext(r.Context(), "planning route", "error", err, "request_id", logging.RequestID(r.Context()))
		data.Flashes = []flash{{Kind: "warning", Message: msgGeocodeFailed}}
	case len(stops) == 0:
		data.Flashes = []flash{{Kind: "info", Message: msgNoCandidates}}
	default:
		data.Stops = stops
	}
	s.render(w, "route.html", data)
}

// handleManager renders the cross-representative dashboard.
func (s *Server) handleManager(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := s.repo.ListAll(r.Context())
	if err != nil {
		serverError(w, r, "loading visits", err)
		return
	}
	daily, err := s.repo.DailyCounts(r.Context())
	if err != nil {
		serverError(w, r, "aggregating visits", err)
		return
	}

	dir := s.directory.Current()
	s.render(w, "manager.html", managerData{
		pageData:  pageData{Identity: identity(r), Tab: "manager"},
		Rows:      report.Build(dir, records),
		Daily:     daily,
		Total:     len(records),
		Merchants: dir.Len(),
	})
}

// handleManagerCSV downloads the per-day, per-representative counts.
func (s *Server) handleManagerCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	daily, err := s.repo.DailyCounts(r.Context())
	if err != nil {
		serverError(w, r, "aggregating visits", err)
		return
	}

	setCSVHeaders(w, export.SummaryFilename)
	if err := export.WriteDailyCounts(w, daily); err != nil {
		slog.ErrorContext(r.Context(), "writing summary csv", "error", err, "request_id", logging.RequestID(r.Context()))
	}
}

func setCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

// serverError logs err and answers 500.
func serverError(w http.ResponseWriter, r *http.Request, what string, err error) {
	slog.ErrorContext(r.Context(), what, "error", err, "request_id", logging.RequestID(r.Context()))
	http.Error(w, "Internal error", http.StatusInternalServerError)
}
