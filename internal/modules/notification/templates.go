package notification

import (
	"bytes"
	"html/template"

	"bikeworkshop/internal/domain"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>{{.Title}}</h2>
<p>Hi {{.Name}},</p>
{{template "body" .}}
<table cellpadding="4" style="border-collapse:collapse">
<tr><td>Booking</td><td>#{{.Booking.ID}}</td></tr>
<tr><td>Bike</td><td>{{.Booking.BikeModel}}</td></tr>
<tr><td>Service</td><td>{{.Booking.ServiceType}}</td></tr>
<tr><td>Date</td><td>{{.Booking.Date.Format "02 Jan 2006"}}</td></tr>
<tr><td>Amount</td><td>Rs. {{printf "%.2f" .Booking.FinalAmount}}</td></tr>
</table>
<p>Thank you for riding with us.</p>
</body></html>{{end}}`

var (
	confirmedTmpl = mustTemplate(`{{define "body"}}<p>Your payment via {{.Booking.PaymentMethod}} has been received.{{if gt .Points 0}} You earned <b>{{.Points}}</b> loyalty points.{{end}}</p>{{end}}`)
	completedTmpl = mustTemplate(`{{define "body"}}<p>Your bike service is complete and ready for collection.</p>{{end}}`)
	cancelledTmpl = mustTemplate(`{{define "body"}}<p>Your booking has been cancelled by the workshop.</p>{{if .Refund}}<p>Your online payment of Rs. {{printf "%.2f" .Booking.FinalAmount}} will be refunded to the original payment method.</p>{{end}}{{end}}`)
	discountTmpl  = mustTemplate(`{{define "body"}}<p>A loyalty discount of Rs. {{printf "%.2f" .Booking.DiscountAmount}} was applied. Your remaining balance is <b>{{.Points}}</b> points.</p>{{end}}`)
)

func mustTemplate(body string) *template.Template {
	t := template.Must(template.New("email").Parse(layout))
	return template.Must(t.Parse(body))
}

type emailData struct {
	Title   string
	Name    string
	Booking *domain.Booking
	Points  int64
	Refund  bool
}

func render(t *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func emailEffect(to, subject string, t *template.Template, data emailData) Effect {
	data.Title = subject
	html, err := render(t, data)
	if err != nil {
		html = "<p>" + template.HTMLEscapeString(subject) + "</p>"
	}
	return EmailEffect(to, subject, html)
}

func BookingConfirmedEmail(to, name string, b *domain.Booking) Effect {
	return emailEffect(to, "Booking payment confirmed", confirmedTmpl, emailData{Name: name, Booking: b, Points: b.PointsAwarded})
}

func BookingCompletedEmail(to, name string, b *domain.Booking) Effect {
	return emailEffect(to, "Your bike service is complete", completedTmpl, emailData{Name: name, Booking: b})
}

// BookingCancelledEmail adds a refund note when refund is set.
func BookingCancelledEmail(to, name string, b *domain.Booking, refund bool) Effect {
	return emailEffect(to, "Booking cancelled", cancelledTmpl, emailData{Name: name, Booking: b, Refund: refund})
}

func DiscountAppliedEmail(to, name string, b *domain.Booking, balance int64) Effect {
	return emailEffect(to, "Loyalty discount applied", discountTmpl, emailData{Name: name, Booking: b, Points: balance})
}
