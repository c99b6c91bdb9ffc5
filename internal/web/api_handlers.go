package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fieldsales/crm-comercios/internal/geocode"
	"github.com/fieldsales/crm-comercios/internal/mapview"
	"github.com/fieldsales/crm-comercios/internal/merchant"
	"github.com/fieldsales/crm-comercios/internal/report"
	"github.com/fieldsales/crm-comercios/internal/route"
	"github.com/fieldsales/crm-comercios/internal/status"
	"github.com/fieldsales/crm-comercios/internal/visit"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// merchantJSON is a merchant with its derived status. Coordinates are
// omitted when the directory has none.
type merchantJSON struct {
	TaxID     string        `json:"cuit"`
	Name      string        `json:"merchant_name"`
	Category  string        `json:"rubro"`
	Address   string        `json:"address"`
	Phone     string        `json:"phone"`
	Latitude  *float64      `json:"latitude,omitempty"`
	Longitude *float64      `json:"longitude,omitempty"`
	Status    status.Status `json:"status"`
	Label     string        `json:"label"`
}

func toMerchantJSON(m *merchant.Merchant, st status.Status) merchantJSON {
	out := merchantJSON{
		TaxID:    m.TaxID,
		Name:     m.Name,
		Category: m.Category,
		Address:  m.Address,
		Phone:    m.Phone,
		Status:   st,
		Label:    st.Label(),
	}
	if m.HasLocation() {
		lat, lon := m.Latitude, m.Longitude
		out.Latitude, out.Longitude = &lat, &lon
	}
	return out
}

// apiAssigned returns the identity's filtered merchants and grouped records.
// It writes the error response itself and returns ok=false on failure.
func (s *Server) apiAssigned(w http.ResponseWriter, r *http.Request) ([]*merchant.Merchant, map[string][]*visit.Record, bool) {
	id := identity(r)
	all := s.directory.Current().ForRepresentative(id.Legajo)
	if len(all) == 0 {
		apiError(w, "no merchants assigned", http.StatusNotFound)
		return nil, nil, false
	}

	grouped, err := s.grouped(r.Context(), id.Legajo)
	if err != nil {
		apiError(w, "loading visits failed", http.StatusInternalServerError)
		return nil, nil, false
	}

	filter := merchant.Filter{
		TaxID:    strings.TrimSpace(r.URL.Query().Get("cuit")),
		Category: r.URL.Query().Get("rubro"),
	}
	return filter.Apply(all), grouped, true
}

// apiMerchants lists the identity's merchants with their status.
func (s *Server) apiMerchants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	merchants, grouped, ok := s.apiAssigned(w, r)
	if !ok {
		return
	}

	out := make([]merchantJSON, len(merchants))
	for i, m := range merchants {
		out[i] = toMerchantJSON(m, status.Of(m.Name, grouped))
	}
	apiJSON(w, out, http.StatusOK)
}

// apiMap returns the identity's merchants as GeoJSON.
func (s *Server) apiMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	merchants, grouped, ok := s.apiAssigned(w, r)
	if !ok {
		return
	}

	statuses := make(map[string]status.Status, len(merchants))
	for _, m := range merchants {
		statuses[m.Name] = status.Of(m.Name, grouped)
	}
	data, err := mapview.FeatureCollection(merchants, statuses).MarshalJSON()
	if err != nil {
		apiError(w, "encoding map failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if _, err := w.Write(data); err != nil {
		serverError(w, r, "writing map", err)
	}
}

type submitResponse struct {
	Record      *visit.Record `json:"record"`
	MirrorError string        `json:"mirror_error,omitempty"`
}

// apiVisits lists (GET) or logs (POST) visits for the identity.
func (s *Server) apiVisits(w http.ResponseWriter, r *http.Request) {
	id := identity(r)

	switch r.Method {
	case http.MethodGet:
		records, err := s.repo.ListByRepresentative(r.Context(), id.Legajo)
		if err != nil {
			apiError(w, "loading visits failed", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []*visit.Record{}
		}
		apiJSON(w, records, http.StatusOK)

	case http.MethodPost:
		var sub visit.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			apiError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		sub.RepresentativeID = id.Legajo

		result, err := s.submit(r.Context(), sub)
		if err != nil {
			code, _, ok := submitErrorMessage(err)
			if !ok {
				serverError(w, r, "saving visit", err)
				return
			}
			apiError(w, err.Error(), code)
			return
		}

		resp := submitResponse{Record: result.Record}
		if result.MirrorErr != nil {
			resp.MirrorError = result.MirrorErr.Error()
		}
		apiJSON(w, resp, http.StatusCreated)

	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// apiRoute plans a route from ?address=.
func (s *Server) apiRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		apiError(w, "address is required", http.StatusBadRequest)
		return
	}

	id := identity(r)
	merchants := s.directory.Current().ForRepresentative(id.Legajo)
	if len(merchants) == 0 {
		apiError(w, "no merchants assigned", http.StatusNotFound)
		return
	}
	grouped, err := s.grouped(r.Context(), id.Legajo)
	if err != nil {
		apiError(w, "loading visits failed", http.StatusInternalServerError)
		return
	}

	stops, err := s.planner.PlanFromAddress(r.Context(), address, merchants, grouped)
	if errors.Is(err, geocode.ErrNotFound) {
		apiError(w, "address not found", http.StatusNotFound)
		return
	}
	if err != nil {
		apiError(w, "geocoding failed", http.StatusBadGateway)
		return
	}
	if stops == nil {
		stops = []route.Stop{}
	}
	apiJSON(w, stops, http.StatusOK)
}

type summaryResponse struct {
	Representatives []report.Row       `json:"representatives"`
	Daily           []visit.DailyCount `json:"daily"`
}

// apiSummary returns the manager aggregates.
func (s *Server) apiSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := s.repo.ListAll(r.Context())
	if err != nil {
		apiError(w, "loading visits failed", http.StatusInternalServerError)
		return
	}
	daily, err := s.repo.DailyCounts(r.Context())
	if err != nil {
		apiError(w, "aggregating visits failed", http.StatusInternalServerError)
		return
	}
	if daily == nil {
		daily = []visit.DailyCount{}
	}

	apiJSON(w, summaryResponse{
		Representatives: report.Build(s.directory.Current(), records),
		Daily:           daily,
	}, http.StatusOK)
}
