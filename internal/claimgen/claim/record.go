package claim

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/refdata"
)

// Kind selects the generation policy family for a claim.
type Kind string

const (
	KindLegitimate Kind = "legitimate"
	KindFraudulent Kind = "fraudulent"
)

// Patient is the synthetic patient identity attached to a claim.
type Patient struct {
	Name        string `json:"name"`
	ID          string `json:"patient_id"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
	Address     string `json:"address"`
}

// LineItem is one charged service or product on a claim.
type LineItem struct {
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"` // UnitPrice * Quantity, 2 dp
}

// ClaimRecord is one complete generated claim. Records are built whole by the
// generator, handed to the renderer, and never mutated or persisted.
type ClaimRecord struct {
	ClaimID     string               `json:"claim_id"`
	Kind        Kind                 `json:"kind"`
	Patient     Patient              `json:"patient"`
	Clinic      refdata.ClinicRecord `json:"clinic"`
	Doctor      refdata.DoctorRecord `json:"doctor"`
	Disease     string               `json:"disease"`
	Items       []LineItem           `json:"items"`
	Total       decimal.Decimal      `json:"total"`
	ServiceDate time.Time            `json:"service_date"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// SumItems recomputes the grand total from the line totals.
func (r *ClaimRecord) SumItems() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range r.Items {
		sum = sum.Add(it.LineTotal)
	}
	return sum
}
