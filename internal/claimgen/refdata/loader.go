package refdata

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/logger"
)

// Paths names the four reference table files.
type Paths struct {
	Clinics      string
	Doctors      string
	SpecialtyMap string
	BillingMap   string
}

var clinicHeader = []string{"clinic_id", "name", "address", "location", "telephone", "email"}
var doctorHeader = []string{"doctor_id", "name", "specialty"}

// Load reads all four reference tables and cross-validates them. It returns
// the complete table set or a *DataLoadError naming the offending file; no
// partial load is ever returned.
func Load(p Paths) (*Tables, error) {
	logger.L().Debugw("loading reference tables",
		"clinics", p.Clinics,
		"doctors", p.Doctors,
		"specialty_map", p.SpecialtyMap,
		"billing_map", p.BillingMap)

	clinics, err := loadClinics(p.Clinics)
	if err != nil {
		return nil, err
	}
	doctors, err := loadDoctors(p.Doctors)
	if err != nil {
		return nil, err
	}
	specialties, err := loadSpecialtyMap(p.SpecialtyMap)
	if err != nil {
		return nil, err
	}
	billing, err := loadBillingMap(p.BillingMap)
	if err != nil {
		return nil, err
	}

	// Cross-validation: downstream selection must never dead-end on a doctor
	// whose specialty is unmapped, or a disease with no billable items.
	for _, d := range doctors {
		if _, ok := specialties[d.Specialty]; !ok {
			return nil, loadErrf(p.Doctors, "doctor %s has specialty %q not present in %s", d.ID, d.Specialty, p.SpecialtyMap)
		}
	}
	for specialty, diseases := range specialties {
		for _, disease := range diseases {
			if len(billing[disease]) == 0 {
				return nil, loadErrf(p.SpecialtyMap, "disease %q (specialty %q) has no billing items in %s", disease, specialty, p.BillingMap)
			}
		}
	}

	t := NewTables(clinics, doctors, specialties, billing)

	logger.L().Infow("reference tables loaded",
		"clinics", len(clinics),
		"doctors", len(doctors),
		"specialties", len(specialties),
		"diseases", len(t.diseases))
	return t, nil
}

// readCSV opens a CSV file, validates its header against expected, and
// returns the data rows.
func readCSV(path string, expected []string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, loadErr(path, "open file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, loadErr(path, "read CSV header", err)
	}
	if len(header) != len(expected) {
		return nil, loadErrf(path, "invalid CSV header: expected %v, got %v", expected, header)
	}
	for i, col := range header {
		if strings.TrimSpace(col) != expected[i] {
			return nil, loadErrf(path, "invalid CSV header at position %d: expected %s, got %s", i, expected[i], col)
		}
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, loadErr(path, fmt.Sprintf("read CSV row %d", len(rows)+2), err)
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, loadErrf(path, "no data rows")
	}
	return rows, nil
}

func loadClinics(path string) ([]ClinicRecord, error) {
	rows, err := readCSV(path, clinicHeader)
	if err != nil {
		return nil, err
	}
	clinics := make([]ClinicRecord, 0, len(rows))
	for i, row := range rows {
		c := ClinicRecord{
			ID:        strings.TrimSpace(row[0]),
			Name:      strings.TrimSpace(row[1]),
			Address:   strings.TrimSpace(row[2]),
			Location:  strings.TrimSpace(row[3]),
			Telephone: strings.TrimSpace(row[4]),
			Email:     strings.TrimSpace(row[5]),
		}
		if c.ID == "" || c.Name == "" {
			return nil, loadErrf(path, "row %d: clinic_id and name are required", i+2)
		}
		clinics = append(clinics, c)
	}
	return clinics, nil
}

func loadDoctors(path string) ([]DoctorRecord, error) {
	rows, err := readCSV(path, doctorHeader)
	if err != nil {
		return nil, err
	}
	doctors := make([]DoctorRecord, 0, len(rows))
	for i, row := range rows {
		d := DoctorRecord{
			ID:        strings.TrimSpace(row[0]),
			Name:      strings.TrimSpace(row[1]),
			Specialty: strings.TrimSpace(row[2]),
		}
		if d.ID == "" || d.Name == "" || d.Specialty == "" {
			return nil, loadErrf(path, "row %d: doctor_id, name and specialty are required", i+2)
		}
		doctors = append(doctors, d)
	}
	return doctors, nil
}

// loadSpecialtyMap reads the specialty -> diseases mapping:
//
//	{ "Cardiology": ["Hypertension", ...], ... }
func loadSpecialtyMap(path string) (map[string][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, loadErr(path, "open file", err)
	}
	defer file.Close()

	var m map[string][]string
	if err := json.NewDecoder(file).Decode(&m); err != nil {
		return nil, loadErr(path, "decode JSON", err)
	}
	if len(m) == 0 {
		return nil, loadErrf(path, "no specialties defined")
	}
	for specialty, diseases := range m {
		if specialty == "" {
			return nil, loadErrf(path, "empty specialty name")
		}
		if len(diseases) == 0 {
			return nil, loadErrf(path, "specialty %q has no diseases", specialty)
		}
		for i, d := range diseases {
			if strings.TrimSpace(d) == "" {
				return nil, loadErrf(path, "specialty %q has empty disease at index %d", specialty, i)
			}
		}
	}
	return m, nil
}

// billingFile mirrors the disease_consultation.json contract.
type billingFile struct {
	Diagnoses map[string]struct {
		BillingItems []billingItemRow `json:"billing_items"`
	} `json:"diagnoses"`
}

type billingItemRow struct {
	Description string `json:"description"`
	UnitPrice   string `json:"unit_price"`
	MinQuantity int    `json:"min_quantity"`
	MaxQuantity int    `json:"max_quantity"`
}

// loadBillingMap reads the disease -> billing templates mapping. Unit prices
// are decimal strings with at most two decimal places.
func loadBillingMap(path string) (map[string][]BillingTemplate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, loadErr(path, "open file", err)
	}
	defer file.Close()

	var bf billingFile
	if err := json.NewDecoder(file).Decode(&bf); err != nil {
		return nil, loadErr(path, "decode JSON", err)
	}
	if len(bf.Diagnoses) == 0 {
		return nil, loadErrf(path, "no diagnoses defined")
	}

	out := make(map[string][]BillingTemplate, len(bf.Diagnoses))
	for disease, entry := range bf.Diagnoses {
		if len(entry.BillingItems) == 0 {
			return nil, loadErrf(path, "diagnosis %q has no billing_items", disease)
		}
		templates := make([]BillingTemplate, 0, len(entry.BillingItems))
		for i, row := range entry.BillingItems {
			tpl, err := parseBillingItem(path, disease, i, row)
			if err != nil {
				return nil, err
			}
			templates = append(templates, tpl)
		}
		out[disease] = templates
	}
	return out, nil
}

func parseBillingItem(path, disease string, idx int, row billingItemRow) (BillingTemplate, error) {
	if strings.TrimSpace(row.Description) == "" {
		return BillingTemplate{}, loadErrf(path, "diagnosis %q item %d: description is required", disease, idx)
	}
	price, err := decimal.NewFromString(row.UnitPrice)
	if err != nil {
		return BillingTemplate{}, loadErr(path, fmt.Sprintf("diagnosis %q item %d: bad unit_price %q", disease, idx, row.UnitPrice), err)
	}
	if price.IsNegative() {
		return BillingTemplate{}, loadErrf(path, "diagnosis %q item %d: negative unit_price %s", disease, idx, row.UnitPrice)
	}
	if !price.Equal(price.Round(2)) {
		return BillingTemplate{}, loadErrf(path, "diagnosis %q item %d: unit_price %s has more than 2 decimal places", disease, idx, row.UnitPrice)
	}
	if row.MinQuantity < 1 || row.MaxQuantity < row.MinQuantity {
		return BillingTemplate{}, loadErrf(path, "diagnosis %q item %d: quantity range must satisfy 1 <= min <= max, got [%d, %d]",
			disease, idx, row.MinQuantity, row.MaxQuantity)
	}
	return BillingTemplate{
		Description: strings.TrimSpace(row.Description),
		UnitPrice:   price,
		MinQuantity: row.MinQuantity,
		MaxQuantity: row.MaxQuantity,
	}, nil
}
