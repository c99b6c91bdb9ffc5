// Package merchant provides the merchant directory: the read-only set of
// merchants assigned to each sales representative.
package merchant

import (
	"math"
	"strconv"
	"strings"
)

// Merchant is one row of the directory file.
type Merchant struct {
	TaxID            string  `json:"cuit"`
	Name             string  `json:"merchant_name"`
	RepresentativeID string  `json:"legajo"`
	Category         string  `json:"rubro"`
	Address          string  `json:"address"`
	Phone            string  `json:"phone"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// HasLocation reports whether the merchant has usable coordinates.
func (m *Merchant) HasLocation() bool {
	return m.Latitude >= -90 && m.Latitude <= 90 &&
		m.Longitude >= -180 && m.Longitude <= 180
}

// NormalizeRepresentativeID turns a raw legajo cell into its canonical key:
// numeric values are truncated to an integer, anything else becomes "0".
func NormalizeRepresentativeID(raw string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	return strconv.FormatInt(int64(f), 10)
}

// normalizeTaxID drops a float rendering ("20123456789.0") of an integral
// tax number and leaves every other value trimmed as-is.
func normalizeTaxID(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return s
	}
	return strconv.FormatFloat(f, 'f', 0, 64)
}

func parseCoordinate(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(raw, ",", ".", 1)), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
