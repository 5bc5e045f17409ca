package claim

import (
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/logger"
	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/refdata"
)

// ErrConstraintUnsatisfiable indicates disease selection could not satisfy
// the doctor's specialty within the retry budget.
var ErrConstraintUnsatisfiable = errors.New("no disease satisfies the doctor's specialty")

// Generator assembles ClaimRecords from the shared reference tables. The
// tables are read-only, so one Generator is safe to use from many goroutines;
// the caller supplies a Faker per call as the explicit random source.
type Generator struct {
	tables      *refdata.Tables
	maxRetries  int
	serviceDate time.Time
}

func NewGenerator(tables *refdata.Tables, maxRetries int, serviceDate time.Time) *Generator {
	return &Generator{tables: tables, maxRetries: maxRetries, serviceDate: serviceDate}
}

// Generate produces one complete ClaimRecord of the given kind under the
// given policy. Legitimate claims always satisfy the specialty and template
// constraints; fraudulent claims violate whatever the policy dictates.
func (g *Generator) Generate(f *gofakeit.Faker, kind Kind, pol Policy) (*ClaimRecord, error) {
	clinic := g.tables.Clinics[f.Number(0, len(g.tables.Clinics)-1)]
	doctor := g.tables.Doctors[f.Number(0, len(g.tables.Doctors)-1)]

	disease, err := g.pickDisease(f, doctor, pol)
	if err != nil {
		return nil, err
	}

	templates := g.tables.TemplatesFor(disease)
	items := pol.SelectItems(f, templates)
	if len(items) == 0 {
		return nil, fmt.Errorf("policy %s selected no items for disease %q", pol.Name(), disease)
	}

	rec := &ClaimRecord{
		ClaimID:     uuid.NewString(),
		Kind:        kind,
		Patient:     g.fakePatient(f),
		Clinic:      clinic,
		Doctor:      doctor,
		Disease:     disease,
		Items:       items,
		ServiceDate: g.serviceDate,
		GeneratedAt: time.Now().UTC(),
	}
	rec.Total = rec.SumItems()

	logger.L().Debugw("generated claim",
		"claim_id", rec.ClaimID,
		"kind", rec.Kind,
		"policy", pol.Name(),
		"clinic", clinic.Name,
		"doctor", doctor.Name,
		"disease", disease,
		"items", len(items),
		"total", rec.Total.StringFixed(2))
	return rec, nil
}

// pickDisease samples a disease from the full disease set. When the policy
// requires a specialty match it rejects and resamples, bounded by the retry
// budget.
func (g *Generator) pickDisease(f *gofakeit.Faker, doctor refdata.DoctorRecord, pol Policy) (string, error) {
	diseases := g.tables.Diseases()
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		disease := diseases[f.Number(0, len(diseases)-1)]
		if !pol.RequireSpecialtyMatch() || g.tables.TreatsDisease(doctor.Specialty, disease) {
			return disease, nil
		}
	}
	return "", fmt.Errorf("doctor %s (%s) after %d attempts: %w",
		doctor.Name, doctor.Specialty, g.maxRetries, ErrConstraintUnsatisfiable)
}

func (g *Generator) fakePatient(f *gofakeit.Faker) Patient {
	dob := f.DateRange(
		time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC))
	return Patient{
		Name:        f.Name(),
		ID:          fmt.Sprintf("%06d", f.Number(100000, 999999)),
		DateOfBirth: dob.Format("2006-01-02"),
		Address:     fmt.Sprintf("%s, %s, %s %s", f.Street(), f.City(), f.StateAbr(), f.Zip()),
	}
}
