package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	geojson "github.com/paulmach/go.geojson"

	"github.com/fieldsales/crm-comercios/internal/geocode"
)

func (e *testEnv) postJSON(t *testing.T, cookie *http.Cookie, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("POST", target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, r)
	return w
}

func TestAPIMerchants(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, repLegajo)

	w := env.get(t, cookie, "/api/merchants")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var got []merchantJSON
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Name != "Kiosco Sur" || got[0].Label != "No gestionado" {
		t.Errorf("first = %+v", got[0])
	}
	if got[0].Latitude == nil || *got[0].Latitude != -34.61 {
		t.Errorf("latitude = %v", got[0].Latitude)
	}

	w = env.get(t, cookie, "/api/merchants?rubro=Ferreter%C3%ADa")
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Ferretería Norte" {
		t.Errorf("filtered = %+v", got)
	}
}

func TestAPIMerchantsNoneAssigned(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, loneLegajo)

	if w := env.get(t, cookie, "/api/merchants"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestAPIMap(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, repLegajo)
	env.post(t, cookie, "/gestiones", visitForm("Kiosco Sur", "Sí", "ok", ""))

	w := env.get(t, cookie, "/api/map")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("content-type = %q", ct)
	}

	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("features = %d, want 2", len(fc.Features))
	}
	if got := fc.Features[0].Properties["status"]; got != "contacted" {
		t.Errorf("status = %v, want contacted", got)
	}
}

func TestAPIVisits(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, repLegajo)

	body := `{"merchant_name":"Kiosco Sur","contact_channel":"Teléfono","contact_outcome":"No","response_text":"Llamar el lunes","reschedule_date":"2024-05-10","representative_id":"9999"}`
	w := env.postJSON(t, cookie, "/api/gestiones", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp struct {
		Record struct {
			ID               int64   `json:"id"`
			RepresentativeID string  `json:"representative_id"`
			RescheduleDate   *string `json:"reschedule_date"`
		} `json:"record"`
		MirrorError string `json:"mirror_error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Record.RepresentativeID != repLegajo {
		t.Errorf("representative = %q, want session legajo %q", resp.Record.RepresentativeID, repLegajo)
	}
	if resp.Record.RescheduleDate == nil || *resp.Record.RescheduleDate != "2024-05-10" {
		t.Errorf("reschedule = %v", resp.Record.RescheduleDate)
	}

	w = env.postJSON(t, cookie, "/api/gestiones", body)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want %d", w.Code, http.StatusConflict)
	}

	w = env.get(t, cookie, "/api/gestiones")
	var records []json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want 1", len(records))
	}
}

func TestAPIVisitsErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing response", `{"merchant_name":"Kiosco Sur","contact_channel":"Presencial","contact_outcome":"Sí","response_text":""}`, http.StatusUnprocessableEntity},
		{"bad date", `{"merchant_name":"Kiosco Sur","contact_channel":"Presencial","contact_outcome":"No","response_text":"x","reschedule_date":"10/05/2024"}`, http.StatusUnprocessableEntity},
		{"foreign merchant", `{"merchant_name":"Bazar Centro","contact_channel":"Presencial","contact_outcome":"Sí","response_text":"x"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			cookie := env.login(t, repLegajo)

			w := env.postJSON(t, cookie, "/api/gestiones", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			if env.count(t) != 0 {
				t.Error("rejected submission wrote a row")
			}
		})
	}
}

func TestAPIVisitsMirrorFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mirror.err = errors.New("quota exceeded")
	cookie := env.login(t, repLegajo)

	w := env.postJSON(t, cookie, "/api/gestiones", `{"merchant_name":"Kiosco Sur","contact_channel":"Presencial","contact_outcome":"Sí","response_text":"ok"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if !strings.Contains(w.Body.String(), "quota exceeded") {
		t.Errorf("body = %s, want mirror_error", w.Body.String())
	}
}

func TestAPIRoute(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, repLegajo)

	w := env.get(t, cookie, "/api/route?address=Obelisco")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var stops []struct {
		Order                int     `json:"order"`
		DaysSinceLastContact int     `json:"days_since_last_contact"`
		DistanceKm           float64 `json:"distance_km"`
		Status               string  `json:"status"`
	}
	if err := json.NewDecoder(w.Body).Decode(&stops); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stops) != 2 || stops[0].Order != 1 || stops[0].DistanceKm > stops[1].DistanceKm {
		t.Errorf("stops = %+v", stops)
	}
	if stops[0].DaysSinceLastContact != 999 || stops[0].Status != "not_managed" {
		t.Errorf("first stop = %+v", stops[0])
	}

	if w := env.get(t, cookie, "/api/route"); w.Code != http.StatusBadRequest {
		t.Errorf("missing address status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	env.geocode.err = geocode.ErrNotFound
	if w := env.get(t, cookie, "/api/route?address=nowhere"); w.Code != http.StatusNotFound {
		t.Errorf("not found status = %d, want %d", w.Code, http.StatusNotFound)
	}

	env.geocode.err = errors.New("connection refused")
	if w := env.get(t, cookie, "/api/route?address=Obelisco"); w.Code != http.StatusBadGateway {
		t.Errorf("geocoder failure status = %d, want %d", w.Code, http.StatusBadGateway)
	}
}

func TestAPISummary(t *testing.T) {
	env := newTestEnv(t)
	rep := env.login(t, repLegajo)
	env.post(t, rep, "/gestiones", visitForm("Kiosco Sur", "Sí", "ok", ""))

	mgr := env.login(t, managerLegajo)
	w := env.get(t, mgr, "/api/resumen")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Representatives []struct {
			Legajo    string `json:"legajo"`
			Assigned  int    `json:"assigned"`
			Contacted int    `json:"contacted"`
		} `json:"representatives"`
		Daily []struct {
			Count int `json:"count"`
		} `json:"daily"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Representatives) != 2 {
		t.Fatalf("representatives = %+v", resp.Representatives)
	}
	if r := resp.Representatives[1]; r.Legajo != "55032" || r.Assigned != 2 || r.Contacted != 1 {
		t.Errorf("55032 row = %+v", r)
	}
	if len(resp.Daily) != 1 || resp.Daily[0].Count != 1 {
		t.Errorf("daily = %+v", resp.Daily)
	}
}
