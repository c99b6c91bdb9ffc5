package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/fieldsales/crm-comercios/internal/visit"
)

func sampleRecord() *visit.Record {
	date := "2024-05-10"
	return &visit.Record{
		ID:               7,
		RepresentativeID: "55032",
		MerchantName:     "Kiosco Sur",
		Channel:          visit.ChannelInPerson,
		Outcome:          visit.OutcomeNotReached,
		Response:         "Volver la semana próxima",
		RescheduleDate:   &date,
		CreatedAt:        time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local),
	}
}

func newTestMirror(t *testing.T, handler http.HandlerFunc) *Mirror {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m, err := NewWithOptions(context.Background(),
		Config{SpreadsheetID: "sheet-123", Sheet: "Gestiones"},
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return m
}

func TestAppend(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	var body struct {
		Values [][]interface{} `json:"values"`
	}

	m := newTestMirror(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"valueInputOption": r.URL.Query().Get("valueInputOption"),
			"insertDataOption": r.URL.Query().Get("insertDataOption"),
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-123","updates":{"updatedRows":1}}`))
	})

	require.NoError(t, m.Append(context.Background(), sampleRecord()))

	assert.True(t, strings.HasPrefix(gotPath, "/v4/spreadsheets/sheet-123/values/"), "path %q", gotPath)
	assert.True(t, strings.HasSuffix(gotPath, ":append"), "path %q", gotPath)
	assert.Equal(t, "USER_ENTERED", gotQuery["valueInputOption"])
	assert.Equal(t, "INSERT_ROWS", gotQuery["insertDataOption"])

	require.Len(t, body.Values, 1)
	assert.Equal(t, []interface{}{
		float64(7), "55032", "Kiosco Sur", "Presencial", "No",
		"Volver la semana próxima", "2024-05-10", "2024-05-01 09:30:00.000000",
	}, body.Values[0])
}

func TestAppendFailure(t *testing.T) {
	m := newTestMirror(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	})

	err := m.Append(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "visit 7")
}

func TestNewRequiresTarget(t *testing.T) {
	_, err := NewWithOptions(context.Background(), Config{Sheet: "Gestiones"}, option.WithoutAuthentication())
	assert.Error(t, err)

	_, err = NewWithOptions(context.Background(), Config{SpreadsheetID: "x"}, option.WithoutAuthentication())
	assert.Error(t, err)
}

func TestRowWithoutReschedule(t *testing.T) {
	rec := sampleRecord()
	rec.RescheduleDate = nil

	row := Row(rec)
	require.Len(t, row, 8)
	assert.Equal(t, "", row[6])
}

func TestDisabled(t *testing.T) {
	var m visit.Mirror = Disabled{}
	assert.NoError(t, m.Append(context.Background(), sampleRecord()))
}
