// Package mapview renders merchants as GeoJSON for the map layer.
package mapview

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/fieldsales/crm-comercios/internal/geocode"
	"github.com/fieldsales/crm-comercios/internal/merchant"
	"github.com/fieldsales/crm-comercios/internal/status"
)

// FeatureCollection builds one point feature per located merchant. statuses
// is keyed by merchant name; missing entries are NotManaged.
func FeatureCollection(merchants []*merchant.Merchant, statuses map[string]status.Status) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range merchants {
		if !m.HasLocation() {
			continue
		}
		st := statuses[m.Name]
		c := st.Color()

		f := geojson.NewPointFeature([]float64{m.Longitude, m.Latitude})
		f.SetProperty("merchant_name", m.Name)
		f.SetProperty("status", st.String())
		f.SetProperty("label", st.Label())
		f.SetProperty("color", []int{int(c[0]), int(c[1]), int(c[2])})
		f.SetProperty("cuit", m.TaxID)
		f.SetProperty("rubro", m.Category)
		fc.AddFeature(f)
	}
	return fc
}

// Center is the mean position of the located merchants. ok is false when
// none has a location.
func Center(merchants []*merchant.Merchant) (p geocode.Point, ok bool) {
	var n int
	for _, m := range merchants {
		if !m.HasLocation() {
			continue
		}
		p.Latitude += m.Latitude
		p.Longitude += m.Longitude
		n++
	}
	if n == 0 {
		return geocode.Point{}, false
	}
	p.Latitude /= float64(n)
	p.Longitude /= float64(n)
	return p, true
}
