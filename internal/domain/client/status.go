package client

import "time"

// ClientType classifies a B2C case and selects its lifecycle
type ClientType string

const (
	ClientTypeSaudiKuwait    ClientType = "saudi-kuwait"
	ClientTypeOtherCountries ClientType = "other-countries"
	ClientTypeOmraVisa       ClientType = "omra-visa"
)

// Status is a step of a B2C visa-processing case
type Status string

const (
	StatusFileReady    Status = "file-ready"
	StatusMedical      Status = "medical"
	StatusMofa         Status = "mofa"
	StatusVisaStamping Status = "visa-stamping"
	StatusFingerprint  Status = "fingerprint"
	StatusManpower     Status = "manpower"
	StatusFlightTicket Status = "flight-ticket"
	StatusCompleted    Status = "completed"
)

// DateLayout is the calendar-date format used in status history and transactions
const DateLayout = "2006-01-02"

// lifecycles lists the legal statuses per client type in their advisory order.
// Any listed status may be assigned at any time; the order is for display.
var lifecycles = map[ClientType][]Status{
	ClientTypeSaudiKuwait: {
		StatusFileReady, StatusMedical, StatusMofa, StatusVisaStamping,
		StatusManpower, StatusFlightTicket, StatusCompleted,
	},
	ClientTypeOtherCountries: {
		StatusManpower, StatusFlightTicket, StatusCompleted,
	},
	ClientTypeOmraVisa: {
		StatusFileReady, StatusFingerprint, StatusFlightTicket, StatusCompleted,
	},
}

// allStatuses is the display order used by reports
var allStatuses = []Status{
	StatusFileReady, StatusMedical, StatusMofa, StatusVisaStamping,
	StatusFingerprint, StatusManpower, StatusFlightTicket, StatusCompleted,
}

// IsValid reports whether the client type is known
func (t ClientType) IsValid() bool {
	_, ok := lifecycles[t]
	return ok
}

// Statuses returns the legal statuses for the type in advisory order
func (t ClientType) Statuses() []Status {
	steps := lifecycles[t]
	out := make([]Status, len(steps))
	copy(out, steps)
	return out
}

// InitialStatus returns the first step of the type's lifecycle
func (t ClientType) InitialStatus() Status {
	steps := lifecycles[t]
	if len(steps) == 0 {
		return ""
	}
	return steps[0]
}

// Allows reports whether status is legal for the type
func (t ClientType) Allows(status Status) bool {
	for _, s := range lifecycles[t] {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status marks a finished case
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// AllStatuses returns every known status in display order
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// StatusEntry is one line of a client's status history
type StatusEntry struct {
	Status Status `json:"status"`
	Date   string `json:"date"`
	Notes  string `json:"notes"`
}

// NewStatusEntry stamps an entry with the calendar date of at
func NewStatusEntry(status Status, at time.Time, notes string) StatusEntry {
	return StatusEntry{
		Status: status,
		Date:   at.Format(DateLayout),
		Notes:  notes,
	}
}

// defaultStatusNote is the note recorded when a status change carries none
func defaultStatusNote(status Status) string {
	return "Status updated to " + string(status)
}

// initialRegistrationNote seeds the history of a new client
const initialRegistrationNote = "Initial client registration"
