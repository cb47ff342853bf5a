package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Leads standard 12-lead vocabulary, in storage order
var Leads = []string{"I", "II", "III", "aVR", "aVL", "aVF", "V1", "V2", "V3", "V4", "V5", "V6"}

// DefaultLead lead II, the rhythm strip lead preselected by the viewer
const DefaultLead = 1

// ParseLead resolves a lead name ("II", "avr", "V5") or a numeric index ("1") to an index
// in Leads. Names are matched case-insensitively.
func ParseLead(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLead, nil
	}
	for i, name := range Leads {
		if strings.EqualFold(name, s) {
			return i, nil
		}
	}
	if idx, err := strconv.Atoi(s); err == nil {
		if idx < 0 || idx >= len(Leads) {
			return 0, fmt.Errorf("%w: index %d", ErrInvalidLead, idx)
		}
		return idx, nil
	}
	return 0, fmt.Errorf("%w: unknown lead %q", ErrInvalidLead, s)
}

// LeadName returns the vocabulary name for an index, or "" when out of range
func LeadName(idx int) string {
	if idx < 0 || idx >= len(Leads) {
		return ""
	}
	return Leads[idx]
}
