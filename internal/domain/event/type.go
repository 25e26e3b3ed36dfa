package event

// Type identifies the type of domain event
type Type string

const (
	TypeIssuerUpdated    Type = "party.issuer_updated"
	TypeRecipientUpdated Type = "party.recipient_updated"
	TypeItemsChanged     Type = "items.changed"
	TypeSettingsChanged  Type = "settings.changed"
	TypeTotalsRecomputed Type = "totals.recomputed"
	TypeExportStarted    Type = "export.started"
	TypeExportCompleted  Type = "export.completed"
	TypeExportFailed     Type = "export.failed"
)

// AllTypes lists every defined event type
var AllTypes = []Type{
	TypeIssuerUpdated,
	TypeRecipientUpdated,
	TypeItemsChanged,
	TypeSettingsChanged,
	TypeTotalsRecomputed,
	TypeExportStarted,
	TypeExportCompleted,
	TypeExportFailed,
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Payload keys shared by publishers and subscribers
const (
	PayloadParty    = "party"
	PayloadItems    = "items"
	PayloadSettings = "settings"
	PayloadTotals   = "totals"
	PayloadFilename = "filename"
	PayloadFormat   = "format"
	PayloadSize     = "size"
	PayloadError    = "error"
	PayloadItemID   = "item_id"
	PayloadAction   = "action"
)
