package refdata

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ClinicRecord is one row of the clinic reference table.
type ClinicRecord struct {
	ID        string `json:"clinic_id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Location  string `json:"location"`
	Telephone string `json:"telephone"`
	Email     string `json:"email"`
}

// DoctorRecord is one row of the doctor reference table.
type DoctorRecord struct {
	ID        string `json:"doctor_id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// BillingTemplate describes one chargeable item for a disease: what it is,
// what a unit costs, and the typical quantity range.
type BillingTemplate struct {
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	MinQuantity int             `json:"min_quantity"`
	MaxQuantity int             `json:"max_quantity"`
}

// Tables holds the four reference tables. It is built once by Load and
// read-only afterwards, so it is safe to share across generation tasks.
type Tables struct {
	Clinics []ClinicRecord
	Doctors []DoctorRecord

	// SpecialtyDiseases maps a specialty tag to the diseases it treats.
	SpecialtyDiseases map[string][]string

	// DiseaseBilling maps a disease to its ordered billing templates.
	DiseaseBilling map[string][]BillingTemplate

	// diseases is the sorted union of all mapped diseases.
	diseases []string
}

// NewTables assembles a table set from already-parsed data and indexes it.
// Load performs file parsing and validation on top of this.
func NewTables(clinics []ClinicRecord, doctors []DoctorRecord,
	specialtyDiseases map[string][]string, diseaseBilling map[string][]BillingTemplate) *Tables {
	t := &Tables{
		Clinics:           clinics,
		Doctors:           doctors,
		SpecialtyDiseases: specialtyDiseases,
		DiseaseBilling:    diseaseBilling,
	}
	t.indexDiseases()
	return t
}

// TreatsDisease reports whether the given specialty treats the given disease.
func (t *Tables) TreatsDisease(specialty, disease string) bool {
	for _, d := range t.SpecialtyDiseases[specialty] {
		if d == disease {
			return true
		}
	}
	return false
}

// Diseases returns all diseases across every specialty, sorted.
func (t *Tables) Diseases() []string {
	return t.diseases
}

// TemplatesFor returns the billing templates for a disease.
func (t *Tables) TemplatesFor(disease string) []BillingTemplate {
	return t.DiseaseBilling[disease]
}

func (t *Tables) indexDiseases() {
	seen := make(map[string]struct{})
	for _, diseases := range t.SpecialtyDiseases {
		for _, d := range diseases {
			seen[d] = struct{}{}
		}
	}
	t.diseases = make([]string, 0, len(seen))
	for d := range seen {
		t.diseases = append(t.diseases, d)
	}
	sort.Strings(t.diseases)
}

// DataLoadError reports a reference table that could not be loaded: which
// file, and why. A load either succeeds for all four tables or fails with
// one of these; no partial reference set is ever returned.
type DataLoadError struct {
	File   string
	Reason string
	Err    error
}

func (e *DataLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.File, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.File, e.Reason)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

func loadErr(file, reason string, err error) *DataLoadError {
	return &DataLoadError{File: file, Reason: reason, Err: err}
}

func loadErrf(file string, format string, args ...interface{}) *DataLoadError {
	return &DataLoadError{File: file, Reason: fmt.Sprintf(format, args...)}
}
