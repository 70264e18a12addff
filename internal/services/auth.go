package services

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/ovaisilyas/stripe-payment-links/internal/models"
)

// Record is a raw row from the record store. Fields are the named cells
// of the row; absent columns are simply missing from the map.
type Record struct {
	ID     string
	Fields map[string]any
}

// RecordStore is the read-only slice of Airtable this app needs.
// FindByEmail returns (nil, nil) when no record matches.
type RecordStore interface {
	FindByEmail(ctx context.Context, email string) (*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
}

// Field names in the user table.
const (
	fieldEmail    = "Email"
	fieldName     = "Name"
	fieldRole     = "Role"
	fieldPassword = "Password"
)

// AuthService verifies credentials against the record store.
type AuthService struct {
	Store RecordStore
}

func NewAuthService(store RecordStore) *AuthService {
	return &AuthService{Store: store}
}

// Authenticate looks up the first record whose Email equals email and
// verifies password against the stored bcrypt hash.
//
// It returns models.ErrInvalidCredentials for an unknown email, a missing
// Password field and a wrong password alike, and wraps store failures in
// models.ErrServiceUnavailable so callers can log "service down"
// separately from "bad credentials".
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	rec, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		slog.Error("record store query failed", "error", err)
		return nil, models.ErrServiceUnavailable
	}
	if rec == nil {
		return nil, models.ErrInvalidCredentials
	}

	hash, ok := rec.Fields[fieldPassword].(string)
	if !ok || hash == "" {
		// Account row exists but was never given a password hash.
		slog.Warn("user record has no password hash", "record_id", rec.ID)
		return nil, models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return userFromRecord(rec), nil
}

// GetByID fetches a user record directly by its opaque identifier, for
// session re-hydration. Any store error collapses into ErrNotFound; the
// real cause is only logged. Lossy on purpose.
func (s *AuthService) GetByID(ctx context.Context, id string) (*models.User, error) {
	rec, err := s.Store.GetByID(ctx, id)
	if err != nil {
		slog.Error("record store get failed", "record_id", id, "error", err)
		return nil, models.ErrNotFound
	}
	if rec == nil {
		return nil, models.ErrNotFound
	}
	return userFromRecord(rec), nil
}

func userFromRecord(rec *Record) *models.User {
	email, _ := rec.Fields[fieldEmail].(string)

	name, _ := rec.Fields[fieldName].(string)
	if name == "" {
		name = email
	}

	role, _ := rec.Fields[fieldRole].(string)
	if role == "" {
		role = "user"
	}

	return &models.User{
		ID:    rec.ID,
		Email: email,
		Name:  name,
		Role:  role,
	}
}
