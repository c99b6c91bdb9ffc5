package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{UserAgent: "crm-test"}, false},
		{"missing user agent", Config{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.baseURL != defaultBaseURL {
				t.Errorf("baseURL = %q, want default", c.baseURL)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name       string
		address    string
		response   string
		statusCode int
		want       Point
		wantErr    error
		anyErr     bool
	}{
		{
			name:       "successful lookup",
			address:    "Av. Corrientes 1234, CABA",
			response:   `[{"lat": "-34.6037", "lon": "-58.3816", "display_name": "Corrientes"}]`,
			statusCode: http.StatusOK,
			want:       Point{Latitude: -34.6037, Longitude: -58.3816},
		},
		{
			name:       "no results",
			address:    "Calle Inexistente 99999",
			response:   `[]`,
			statusCode: http.StatusOK,
			wantErr:    ErrNotFound,
		},
		{
			name:    "blank address",
			address: "   ",
			wantErr: ErrNotFound,
		},
		{
			name:       "server error",
			address:    "Av. Corrientes 1234",
			response:   `{}`,
			statusCode: http.StatusInternalServerError,
			anyErr:     true,
		},
		{
			name:       "invalid json",
			address:    "Av. Corrientes 1234",
			response:   `not json`,
			statusCode: http.StatusOK,
			anyErr:     true,
		},
		{
			name:       "bad coordinate",
			address:    "Av. Corrientes 1234",
			response:   `[{"lat": "north", "lon": "-58.3"}]`,
			statusCode: http.StatusOK,
			anyErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search" {
					t.Errorf("path = %q, want /search", r.URL.Path)
				}
				if got := r.URL.Query().Get("q"); got != tt.address {
					t.Errorf("q = %q, want %q", got, tt.address)
				}
				if got := r.URL.Query().Get("countrycodes"); got != "ar" {
					t.Errorf("countrycodes = %q, want ar", got)
				}
				if r.Header.Get("User-Agent") != "crm-test" {
					t.Errorf("missing user agent")
				}
				w.WriteHeader(tt.statusCode)
				fmt.Fprint(w, tt.response)
			}))
			defer srv.Close()

			c, err := NewClient(Config{BaseURL: srv.URL + "/", UserAgent: "crm-test", Country: "AR"})
			if err != nil {
				t.Fatalf("new client: %v", err)
			}

			got, err := c.Lookup(context.Background(), tt.address)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			case tt.anyErr:
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if errors.Is(err, ErrNotFound) {
					t.Errorf("transport failure must not look like not-found: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLookupCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, UserAgent: "crm-test"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Lookup(ctx, "Av. Corrientes 1234"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
