// Package route builds a representative's daily visiting route: the
// merchants still pending, longest-neglected first, nearest first on ties.
package route

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/golang/geo/s2"

	"github.com/fieldsales/crm-comercios/internal/geocode"
	"github.com/fieldsales/crm-comercios/internal/merchant"
	"github.com/fieldsales/crm-comercios/internal/metrics"
	"github.com/fieldsales/crm-comercios/internal/status"
	"github.com/fieldsales/crm-comercios/internal/visit"
)

// MaxStops caps the length of a route.
const MaxStops = 10

// earthRadiusKm is the IUGG mean Earth radius.
const earthRadiusKm = 6371.0088

// Stop is one entry of a route.
type Stop struct {
	Order                int                `json:"order"`
	Merchant             *merchant.Merchant `json:"merchant"`
	Status               status.Status      `json:"status"`
	DaysSinceLastContact int                `json:"days_since_last_contact"`
	DistanceKm           float64            `json:"distance_km"`
}

// Plan ranks merchants for a route starting at origin. grouped holds the
// representative's records keyed by merchant name (see status.ByMerchant).
// Merchants already contacted or closed, and merchants without a usable
// location, are left out.
func Plan(origin geocode.Point, merchants []*merchant.Merchant, grouped map[string][]*visit.Record, now time.Time) []Stop {
	from := s2.LatLngFromDegrees(origin.Latitude, origin.Longitude)

	var stops []Stop
	for _, m := range merchants {
		st := status.Of(m.Name, grouped)
		if !st.IsRouteCandidate() || !m.HasLocation() {
			continue
		}
		stops = append(stops, Stop{
			Merchant:             m,
			Status:               st,
			DaysSinceLastContact: status.DaysSinceLastContact(grouped[m.Name], now),
			DistanceKm:           DistanceKm(from, s2.LatLngFromDegrees(m.Latitude, m.Longitude)),
		})
	}

	sort.SliceStable(stops, func(i, j int) bool {
		if stops[i].DaysSinceLastContact != stops[j].DaysSinceLastContact {
			return stops[i].DaysSinceLastContact > stops[j].DaysSinceLastContact
		}
		return stops[i].DistanceKm < stops[j].DistanceKm
	})

	if len(stops) > MaxStops {
		stops = stops[:MaxStops]
	}
	for i := range stops {
		stops[i].Order = i + 1
	}
	return stops
}

// DistanceKm is the great-circle distance between a and b.
func DistanceKm(a, b s2.LatLng) float64 {
	return a.Distance(b).Radians() * earthRadiusKm
}

// Planner resolves a free-text starting address before planning.
type Planner struct {
	geocoder geocode.Geocoder
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewPlanner creates a planner. m may be nil.
func NewPlanner(g geocode.Geocoder, m *metrics.Metrics) *Planner {
	return &Planner{geocoder: g, metrics: m, now: time.Now}
}

// PlanFromAddress geocodes address and plans from there. An address that does
// not resolve yields geocode.ErrNotFound and no stops.
func (p *Planner) PlanFromAddress(ctx context.Context, address string, merchants []*merchant.Merchant, grouped map[string][]*visit.Record) ([]Stop, error) {
	start := p.now()
	if p.metrics != nil {
		defer func() { p.metrics.RoutePlanDuration.Observe(time.Since(start).Seconds()) }()
	}

	origin, err := p.geocoder.Lookup(ctx, address)
	p.observeLookup(err)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("geocoding %q: %w", address, err)
	}

	return Plan(origin, merchants, grouped, start), nil
}

func (p *Planner) observeLookup(err error) {
	if p.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case errors.Is(err, geocode.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	p.metrics.GeocodeLookups.WithLabelValues(result).Inc()
}
