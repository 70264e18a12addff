package models

import (
	"time"
)

// User is the identity reconstructed from an Airtable record on every
// successful login. It is read-only from this application's point of view
// and lives in the session cookie for the duration of a browser session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// LinkRequest carries the input for a new payment link.
// Amount is in major currency units (dollars, euros, ...).
type LinkRequest struct {
	Name        string
	Description string
	Amount      float64
	Currency    string
	Quantity    int64
	Metadata    map[string]string
}

// PaymentLink is the normalized result of a link creation or listing.
// Name, Amount and Currency echo what the caller submitted rather than a
// provider round-trip value; Stripe owns the canonical record.
type PaymentLink struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Active   bool      `json:"active"`
	Created  time.Time `json:"created"`
	Name     string    `json:"name"`
	Amount   float64   `json:"amount"`
	Currency string    `json:"currency"`
}
