// Package report aggregates visit activity per representative for the
// manager views.
package report

import (
	"sort"
	"time"

	"github.com/fieldsales/crm-comercios/internal/merchant"
	"github.com/fieldsales/crm-comercios/internal/status"
	"github.com/fieldsales/crm-comercios/internal/visit"
)

// Row summarizes one representative.
type Row struct {
	RepresentativeID string    `json:"legajo"`
	Assigned         int       `json:"assigned"`
	NotManaged       int       `json:"not_managed"`
	Contacted        int       `json:"contacted"`
	Rescheduled      int       `json:"rescheduled"`
	Closed           int       `json:"closed"`
	Visits           int       `json:"visits"`
	LastVisit        time.Time `json:"last_visit,omitempty"`
}

// Coverage is the share of assigned merchants with a status other than
// NotManaged, in [0, 1].
func (r Row) Coverage() float64 {
	if r.Assigned == 0 {
		return 0
	}
	return float64(r.Assigned-r.NotManaged) / float64(r.Assigned)
}

// Build summarizes every representative found in the directory or in the
// records. Rows are ordered by legajo, numerically.
func Build(dir *merchant.Directory, records []*visit.Record) []Row {
	byRep := make(map[string][]*visit.Record)
	for _, r := range records {
		byRep[r.RepresentativeID] = append(byRep[r.RepresentativeID], r)
	}

	reps := make(map[string]bool)
	for _, id := range dir.Representatives() {
		reps[id] = true
	}
	for id := range byRep {
		reps[id] = true
	}

	rows := make([]Row, 0, len(reps))
	for id := range reps {
		recs := byRep[id]
		row := Row{RepresentativeID: id, Visits: len(recs)}
		for _, r := range recs {
			if r.CreatedAt.After(row.LastVisit) {
				row.LastVisit = r.CreatedAt
			}
		}

		grouped := status.ByMerchant(recs)
		for _, m := range dir.ForRepresentative(id) {
			row.Assigned++
			switch status.Of(m.Name, grouped) {
			case status.Contacted:
				row.Contacted++
			case status.Rescheduled:
				row.Rescheduled++
			case status.Closed:
				row.Closed++
			default:
				row.NotManaged++
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].RepresentativeID, rows[j].RepresentativeID
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return rows
}
