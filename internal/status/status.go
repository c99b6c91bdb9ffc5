// Package status derives a merchant's management status from its visit
// history. Nothing here is persisted; callers recompute on every read.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/fieldsales/crm-comercios/internal/visit"
)

// Status is the derived state of a merchant.
type Status int

const (
	NotManaged Status = iota
	Contacted
	Rescheduled
	Closed
)

// NoContactDays is reported when a merchant has never been visited.
const NoContactDays = 999

const closedMarker = "cerrada definitiva"

// Derive maps a merchant's records to a status. Priority, first match wins:
// Closed, Contacted, Rescheduled, NotManaged. Record order is irrelevant.
func Derive(records []*visit.Record) Status {
	var contacted, rescheduled bool
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Response), closedMarker) {
			return Closed
		}
		if r.Outcome == visit.OutcomeReached {
			contacted = true
		}
		if r.RescheduleDate != nil {
			rescheduled = true
		}
	}
	switch {
	case contacted:
		return Contacted
	case rescheduled:
		return Rescheduled
	default:
		return NotManaged
	}
}

// ByMerchant groups one representative's records by merchant name.
func ByMerchant(records []*visit.Record) map[string][]*visit.Record {
	grouped := make(map[string][]*visit.Record)
	for _, r := range records {
		grouped[r.MerchantName] = append(grouped[r.MerchantName], r)
	}
	return grouped
}

// Of returns the status of merchant name within grouped records.
func Of(name string, grouped map[string][]*visit.Record) Status {
	return Derive(grouped[name])
}

// DaysSinceLastContact returns the whole days elapsed since the most recent
// record, or NoContactDays when there is none.
func DaysSinceLastContact(records []*visit.Record, now time.Time) int {
	if len(records) == 0 {
		return NoContactDays
	}
	latest := records[0].CreatedAt
	for _, r := range records[1:] {
		if r.CreatedAt.After(latest) {
			latest = r.CreatedAt
		}
	}
	days := int(now.Sub(latest).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// IsRouteCandidate reports whether a merchant still needs a visit.
func (s Status) IsRouteCandidate() bool {
	return s == NotManaged || s == Rescheduled
}

// String returns the stable identifier used in JSON and CSV output.
func (s Status) String() string {
	switch s {
	case Contacted:
		return "contacted"
	case Rescheduled:
		return "rescheduled"
	case Closed:
		return "closed"
	default:
		return "not_managed"
	}
}

// Label returns the Spanish display label.
func (s Status) Label() string {
	switch s {
	case Contacted:
		return "Contactado"
	case Rescheduled:
		return "Reprogramado"
	case Closed:
		return "Cerrado"
	default:
		return "No gestionado"
	}
}

// Glyph returns the status marker shown next to the label.
func (s Status) Glyph() string {
	switch s {
	case Contacted:
		return "🟢"
	case Rescheduled:
		return "🟠"
	case Closed:
		return "⚫"
	default:
		return "🔴"
	}
}

// Color returns the RGB map colour.
func (s Status) Color() [3]uint8 {
	switch s {
	case Contacted:
		return [3]uint8{0, 200, 0}
	case Rescheduled:
		return [3]uint8{255, 165, 0}
	case Closed:
		return [3]uint8{0, 0, 0}
	default:
		return [3]uint8{255, 0, 0}
	}
}

// MarshalText encodes the status as its String form.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a String form.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Parse is the inverse of String.
func Parse(name string) (Status, error) {
	for _, s := range []Status{NotManaged, Contacted, Rescheduled, Closed} {
		if s.String() == name {
			return s, nil
		}
	}
	return NotManaged, fmt.Errorf("unknown status %q", name)
}
