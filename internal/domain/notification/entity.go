package notification

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"homefinder/internal/domain"
)

// Kind is the closed set of notification kinds.
type Kind string

const (
	// Saved searches
	KindSavedSearchMatch Kind = "saved_search_match" // Owner: a new listing inside the search area

	// Appointments
	KindAppointmentRequest   Kind = "appointment_request"   // Listing owner: new viewing request
	KindAppointmentConfirmed Kind = "appointment_confirmed" // Requester: owner accepted
	KindAppointmentRejected  Kind = "appointment_rejected"  // Requester: request rejected
	KindAppointmentCancelled Kind = "appointment_cancelled" // Listing owner: requester withdrew
	KindAppointmentReminder  Kind = "appointment_reminder"  // Requester: viewing is coming up

	// Listing lifecycle
	KindListingExpiringSoon Kind = "listing_expiring_soon" // Listing owner: expires within the window
	KindListingExpired      Kind = "listing_expired"       // Listing owner: expired
)

// Kinds lists every kind in a stable order.
var Kinds = []Kind{
	KindSavedSearchMatch,
	KindAppointmentRequest,
	KindAppointmentConfirmed,
	KindAppointmentRejected,
	KindAppointmentCancelled,
	KindAppointmentReminder,
	KindListingExpiringSoon,
	KindListingExpired,
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

func (k Kind) Validate() error {
	if k.TargetType() == "" {
		return fmt.Errorf("%w: unknown notification kind %q", domain.ErrValidation, string(k))
	}
	return nil
}

// TargetType is the entity a notification of this kind points at. An
// empty result means the kind is unknown.
func (k Kind) TargetType() TargetType {
	switch k {
	case KindSavedSearchMatch:
		return TargetListing
	case KindAppointmentRequest,
		KindAppointmentConfirmed,
		KindAppointmentRejected,
		KindAppointmentCancelled,
		KindAppointmentReminder:
		return TargetAppointment
	case KindListingExpiringSoon, KindListingExpired:
		return TargetListing
	}
	return ""
}

// TargetType discriminates the Target union.
type TargetType string

const (
	TargetNone        TargetType = "none"
	TargetListing     TargetType = "listing"
	TargetSavedSearch TargetType = "saved_search"
	TargetAppointment TargetType = "appointment"
)

// Target references at most one related entity. The fields are
// unexported so a Target can only be built through the constructors.
type Target struct {
	typ TargetType
	id  int64
}

func NoTarget() Target                 { return Target{typ: TargetNone} }
func ListingTarget(id int64) Target     { return Target{typ: TargetListing, id: id} }
func SavedSearchTarget(id int64) Target { return Target{typ: TargetSavedSearch, id: id} }
func AppointmentTarget(id int64) Target { return Target{typ: TargetAppointment, id: id} }

func (t Target) Type() TargetType {
	if t.typ == "" {
		return TargetNone
	}
	return t.typ
}

func (t Target) ID() int64 { return t.id }

func (t Target) ListingID() (int64, bool)     { return t.id, t.typ == TargetListing }
func (t Target) SavedSearchID() (int64, bool) { return t.id, t.typ == TargetSavedSearch }
func (t Target) AppointmentID() (int64, bool) { return t.id, t.typ == TargetAppointment }

func (t Target) validate() error {
	switch t.Type() {
	case TargetNone:
		return nil
	case TargetListing, TargetSavedSearch, TargetAppointment:
		if t.id <= 0 {
			return fmt.Errorf("%w: %s target needs a positive id", domain.ErrValidation, t.typ)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown target type %q", domain.ErrValidation, string(t.typ))
}

type targetJSON struct {
	Type TargetType `json:"type"`
	ID   int64      `json:"id"`
}

func (t Target) MarshalJSON() ([]byte, error) {
	if t.Type() == TargetNone {
		return []byte("null"), nil
	}
	return json.Marshal(targetJSON{Type: t.typ, ID: t.id})
}

func (t *Target) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = NoTarget()
		return nil
	}
	var raw targetJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed := Target{typ: raw.Type, id: raw.ID}
	if err := parsed.validate(); err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Notification is a persisted message for one recipient. Only the read
// flag changes after creation.
type Notification struct {
	ID          int64      `json:"id"`
	RecipientID int64      `json:"recipient_id"`
	Kind        Kind       `json:"kind"`
	Target      Target     `json:"target"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Read        bool       `json:"read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	DedupKey    string     `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
}

// New builds an unsaved notification and checks that the target variant
// is the one the kind expects.
func New(recipientID int64, kind Kind, target Target, title, body string) (*Notification, error) {
	if recipientID <= 0 {
		return nil, fmt.Errorf("%w: recipient is required", domain.ErrValidation)
	}
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if err := target.validate(); err != nil {
		return nil, err
	}
	if want := kind.TargetType(); target.Type() != want {
		return nil, fmt.Errorf("%w: %s notification needs a %s target, got %s",
			domain.ErrValidation, kind, want, target.Type())
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}

	return &Notification{
		RecipientID: recipientID,
		Kind:        kind,
		Target:      target,
		Title:       title,
		Body:        body,
	}, nil
}

// MarkAsRead marks notification as read with timestamp
func (n *Notification) MarkAsRead(at time.Time) {
	n.Read = true
	n.ReadAt = &at
}
