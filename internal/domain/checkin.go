package domain

import "time"

// EntryEventType marks an entry or exit scan.
type EntryEventType string

const (
	EventEntry EntryEventType = "ENTRY"
	EventExit  EntryEventType = "EXIT"
)

// EntrySource records how a check-in event was created.
type EntrySource string

const (
	SourceQRCheckin EntrySource = "QR_CHECKIN"
	SourceManual    EntrySource = "MANUAL"
	SourceSystem    EntrySource = "SYSTEM"
)

// VerificationLevel records how trustworthy a check-in's visitor type is.
type VerificationLevel string

const (
	VerifySelfDeclared   VerificationLevel = "SELF_DECLARED"
	VerifyTicketVerified VerificationLevel = "TICKET_VERIFIED"
)

// VisitorType on a check-in may be unknown, unlike on a ticket.
type VisitorType string

const (
	VisitorDomestic      VisitorType = "DOMESTIC"
	VisitorInternational VisitorType = "INTERNATIONAL"
	VisitorUnknown       VisitorType = "UNKNOWN"
)

// GeoPoint is an optional opted-in device location on a check-in.
type GeoPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// EntryEvent is one QR check-in (or manual/system entry) at a location.
// Immutable once created.
type EntryEvent struct {
	ID                string            `json:"id"`
	EventType         EntryEventType    `json:"event_type"`
	Source            EntrySource       `json:"source"`
	TicketID          string            `json:"ticket_id"`
	LocationID        string            `json:"location_id"`
	VisitorType       VisitorType       `json:"visitor_type"`
	VerificationLevel VerificationLevel `json:"verification_level"`
	GeoOptedIn        bool              `json:"geo_opted_in"`
	GeoLocation       *GeoPoint         `json:"geo_location,omitempty"`
	Timestamp         time.Time         `json:"timestamp"`
}

// ValidateEntryEvent fills enum defaults and rejects events missing required
// fields or carrying unknown enum values.
func ValidateEntryEvent(ev EntryEvent) (EntryEvent, error) {
	var reasons []string

	if ev.EventType == "" {
		ev.EventType = EventEntry
	} else if ev.EventType != EventEntry && ev.EventType != EventExit {
		reasons = append(reasons, "event_type must be ENTRY or EXIT")
	}

	if ev.Source == "" {
		ev.Source = SourceQRCheckin
	} else if ev.Source != SourceQRCheckin && ev.Source != SourceManual && ev.Source != SourceSystem {
		reasons = append(reasons, "source must be QR_CHECKIN, MANUAL or SYSTEM")
	}

	if ev.VerificationLevel == "" {
		ev.VerificationLevel = VerifySelfDeclared
	} else if ev.VerificationLevel != VerifySelfDeclared && ev.VerificationLevel != VerifyTicketVerified {
		reasons = append(reasons, "verification_level must be SELF_DECLARED or TICKET_VERIFIED")
	}

	switch ev.VisitorType {
	case VisitorDomestic, VisitorInternational, VisitorUnknown:
	case "":
		reasons = append(reasons, "visitor_type is required")
	default:
		reasons = append(reasons, "visitor_type must be DOMESTIC, INTERNATIONAL or UNKNOWN")
	}

	if NormalizeKeyPart(ev.TicketID) == "" {
		reasons = append(reasons, "ticket_id is required")
	}
	if NormalizeKeyPart(ev.LocationID) == "" {
		reasons = append(reasons, "location_id is required")
	}
	if !ev.GeoOptedIn {
		ev.GeoLocation = nil
	}

	if len(reasons) > 0 {
		return EntryEvent{}, &ValidationError{Reasons: reasons}
	}
	return ev, nil
}
