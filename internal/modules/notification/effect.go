// Package notification delivers the side effects of booking operations after
// the HTTP response has been written.
package notification

const (
	EventBookingCreated   = "booking:created"
	EventBookingStatus    = "booking:status"
	EventBookingPaid      = "booking:paid"
	EventDiscountApplied  = "booking:discount"
	EventBookingCancelled = "booking:cancelled"
)

type Kind int

const (
	KindEmail Kind = iota + 1
	KindPush
)

// Effect is one deferred notification. Exactly one of Email or Push is set.
type Effect struct {
	Kind  Kind
	Email *Email
	Push  *Push
}

type Email struct {
	To      string
	Subject string
	HTML    string
}

type Push struct {
	UserID  int64
	Event   string
	Payload any
}

func EmailEffect(to, subject, html string) Effect {
	return Effect{Kind: KindEmail, Email: &Email{To: to, Subject: subject, HTML: html}}
}

func PushEffect(userID int64, event string, payload any) Effect {
	return Effect{Kind: KindPush, Push: &Push{UserID: userID, Event: event, Payload: payload}}
}
