// Package gateway holds the outbound adapters for the two external
// collaborators: the Airtable record store and the Stripe payment
// provider. Everything here is a thin translation layer; behavior lives
// in internal/services.
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/mehanizm/airtable"

	"github.com/ovaisilyas/stripe-payment-links/internal/services"
)

// AirtableStore implements services.RecordStore over a single table.
type AirtableStore struct {
	table *airtable.Table
}

func NewAirtableStore(apiKey, baseID, tableName string) *AirtableStore {
	client := airtable.NewClient(apiKey)
	return &AirtableStore{table: client.GetTable(baseID, tableName)}
}

// FindByEmail returns the first record whose Email field equals email,
// or (nil, nil) when there is none. Case-sensitive exact match, capped
// at one record, mirroring the filterByFormula/maxRecords query the
// original app issued.
func (s *AirtableStore) FindByEmail(ctx context.Context, email string) (*services.Record, error) {
	formula := fmt.Sprintf(`{Email} = "%s"`, escapeFormulaString(email))
	records, err := s.table.GetRecords().
		WithFilterFormula(formula).
		MaxRecords(1).
		Do()
	if err != nil {
		return nil, fmt.Errorf("airtable query: %w", err)
	}
	if len(records.Records) == 0 {
		return nil, nil
	}
	rec := records.Records[0]
	return &services.Record{ID: rec.ID, Fields: rec.Fields}, nil
}

// GetByID fetches a record directly by its Airtable record id.
func (s *AirtableStore) GetByID(ctx context.Context, id string) (*services.Record, error) {
	rec, err := s.table.GetRecord(id)
	if err != nil {
		return nil, fmt.Errorf("airtable get %s: %w", id, err)
	}
	if rec == nil {
		return nil, nil
	}
	return &services.Record{ID: rec.ID, Fields: rec.Fields}, nil
}

// escapeFormulaString keeps user input from terminating the quoted
// string inside the filter formula.
func escapeFormulaString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
