package cli

import (
	"fmt"
	"strings"

	"github.com/fieldsales/crm-comercios/internal/auth"
	"github.com/fieldsales/crm-comercios/internal/visit"
)

var channelAliases = map[string]visit.Channel{
	"presencial": visit.ChannelInPerson,
	"telefono":   visit.ChannelPhone,
	"teléfono":   visit.ChannelPhone,
	"phone":      visit.ChannelPhone,
	"mixto":      visit.ChannelMixed,
	"mixed":      visit.ChannelMixed,
}

var outcomeAliases = map[string]visit.Outcome{
	"si":      visit.OutcomeReached,
	"sí":      visit.OutcomeReached,
	"yes":     visit.OutcomeReached,
	"no":      visit.OutcomeNotReached,
	"cerrado": visit.OutcomeClosed,
	"cerrada": visit.OutcomeClosed,
	"closed":  visit.OutcomeClosed,
}

// parseChannel accepts a stored channel value or a short alias.
func parseChannel(s string) (visit.Channel, error) {
	if c := visit.Channel(s); c.IsValid() {
		return c, nil
	}
	if c, ok := channelAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q (use presencial, telefono or mixto)", visit.ErrInvalidChannel, s)
}

// parseOutcome accepts a stored outcome value or a short alias.
func parseOutcome(s string) (visit.Outcome, error) {
	if o := visit.Outcome(s); o.IsValid() {
		return o, nil
	}
	if o, ok := outcomeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return o, nil
	}
	return "", fmt.Errorf("%w: %q (use si, no or cerrado)", visit.ErrInvalidOutcome, s)
}

// parseLegajoArg validates a legajo given on the command line.
func parseLegajoArg(raw string) (string, error) {
	legajo, err := auth.ParseLegajo(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, raw)
	}
	return legajo, nil
}
