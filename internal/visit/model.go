// Package visit provides the visit ("gestión") domain model, the append-only
// visit log store and the submission workflow.
package visit

import "time"

// Stored text layouts.
const (
	TimestampLayout = "2006-01-02 15:04:05.000000"
	DateLayout      = "2006-01-02"
)

// Channel is how the merchant was contacted.
type Channel string

const (
	ChannelInPerson Channel = "Presencial"
	ChannelPhone    Channel = "Teléfono"
	ChannelMixed    Channel = "Mixto (Telefónico y Visita)"
)

// Channels is the set of allowed contact channels, in display order.
var Channels = []Channel{ChannelInPerson, ChannelPhone, ChannelMixed}

// IsValid checks if a channel is recognized.
func (c Channel) IsValid() bool {
	for _, v := range Channels {
		if c == v {
			return true
		}
	}
	return false
}

// Outcome is the result of the contact attempt.
type Outcome string

const (
	OutcomeReached    Outcome = "Sí"
	OutcomeNotReached Outcome = "No"
	OutcomeClosed     Outcome = "Comercio inexistente o cerrada definitiva"
)

// Outcomes is the set of allowed outcomes, in display order.
var Outcomes = []Outcome{OutcomeReached, OutcomeNotReached, OutcomeClosed}

// IsValid checks if an outcome is recognized.
func (o Outcome) IsValid() bool {
	for _, v := range Outcomes {
		if o == v {
			return true
		}
	}
	return false
}

// Record is one logged contact attempt. Records are never updated.
type Record struct {
	ID               int64     `json:"id"`
	RepresentativeID string    `json:"representative_id"`
	MerchantName     string    `json:"merchant_name"`
	Channel          Channel   `json:"contact_channel"`
	Outcome          Outcome   `json:"contact_outcome"`
	Response         string    `json:"response_text"`
	RescheduleDate   *string   `json:"reschedule_date"` // YYYY-MM-DD
	CreatedAt        time.Time `json:"created_at"`
}

// DailyCount is the number of records a representative logged on one day.
type DailyCount struct {
	Date             string `json:"date"`
	RepresentativeID string `json:"representative_id"`
	Count            int    `json:"count"`
}
