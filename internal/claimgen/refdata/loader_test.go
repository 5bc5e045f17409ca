package refdata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validClinicsCSV = `clinic_id,name,address,location,telephone,email
C001,City General Hospital,12 Harbour Road,Cape Town,+27 21 555 0100,info@citygeneral.example
C002,Sunrise Medical Centre,48 Acacia Avenue,Johannesburg,+27 11 555 0148,reception@sunrisemed.example
`

const validDoctorsCSV = `doctor_id,name,specialty
D001,Dr. Naledi Khumalo,Cardiology
D002,Dr. Amara Okafor,Endocrinology
`

const validSpecialtyJSON = `{
    "Cardiology": ["Hypertension"],
    "Endocrinology": ["Type 2 Diabetes"]
}`

const validBillingJSON = `{
    "diagnoses": {
        "Hypertension": {
            "billing_items": [
                {"description": "Consultation", "unit_price": "50.00", "min_quantity": 1, "max_quantity": 1},
                {"description": "Blood Test", "unit_price": "30.00", "min_quantity": 2, "max_quantity": 2}
            ]
        },
        "Type 2 Diabetes": {
            "billing_items": [
                {"description": "HbA1c Test", "unit_price": "35.50", "min_quantity": 1, "max_quantity": 2}
            ]
        }
    }
}`

// writeRefSet writes a full valid reference set into dir, then applies
// overrides (file base name -> replacement content).
func writeRefSet(t *testing.T, dir string, overrides map[string]string) Paths {
	t.Helper()
	files := map[string]string{
		"clinics.csv":      validClinicsCSV,
		"doctors.csv":      validDoctorsCSV,
		"specialties.json": validSpecialtyJSON,
		"billing.json":     validBillingJSON,
	}
	for name, content := range overrides {
		files[name] = content
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return Paths{
		Clinics:      filepath.Join(dir, "clinics.csv"),
		Doctors:      filepath.Join(dir, "doctors.csv"),
		SpecialtyMap: filepath.Join(dir, "specialties.json"),
		BillingMap:   filepath.Join(dir, "billing.json"),
	}
}

func TestLoadValid(t *testing.T) {
	paths := writeRefSet(t, t.TempDir(), nil)

	tables, err := Load(paths)
	require.NoError(t, err)

	require.Len(t, tables.Clinics, 2)
	assert.Equal(t, "C001", tables.Clinics[0].ID)
	assert.Equal(t, "City General Hospital", tables.Clinics[0].Name)
	assert.Equal(t, "info@citygeneral.example", tables.Clinics[0].Email)

	require.Len(t, tables.Doctors, 2)
	assert.Equal(t, "Cardiology", tables.Doctors[0].Specialty)

	assert.True(t, tables.TreatsDisease("Cardiology", "Hypertension"))
	assert.False(t, tables.TreatsDisease("Cardiology", "Type 2 Diabetes"))
	assert.Equal(t, []string{"Hypertension", "Type 2 Diabetes"}, tables.Diseases())

	tpls := tables.TemplatesFor("Hypertension")
	require.Len(t, tpls, 2)
	assert.Equal(t, "Consultation", tpls[0].Description)
	assert.True(t, tpls[0].UnitPrice.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, 2, tpls[1].MinQuantity)
	assert.Equal(t, 2, tpls[1].MaxQuantity)
}

func TestLoadIdempotent(t *testing.T) {
	paths := writeRefSet(t, t.TempDir(), nil)

	first, err := Load(paths)
	require.NoError(t, err)
	second, err := Load(paths)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoadMissingFile(t *testing.T) {
	paths := writeRefSet(t, t.TempDir(), nil)
	paths.Clinics = filepath.Join(t.TempDir(), "nope.csv")

	_, err := Load(paths)
	require.Error(t, err)
	var loadErr *DataLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, paths.Clinics, loadErr.File)
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
	}{
		{
			name: "clinics_wrong_header",
			overrides: map[string]string{
				"clinics.csv": "id,name\nC1,Clinic\n",
			},
		},
		{
			name: "clinics_missing_required_field",
			overrides: map[string]string{
				"clinics.csv": "clinic_id,name,address,location,telephone,email\n,No ID Clinic,addr,loc,tel,mail\n",
			},
		},
		{
			name: "clinics_no_rows",
			overrides: map[string]string{
				"clinics.csv": "clinic_id,name,address,location,telephone,email\n",
			},
		},
		{
			name: "doctors_missing_specialty",
			overrides: map[string]string{
				"doctors.csv": "doctor_id,name,specialty\nD001,Dr. X,\n",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := writeRefSet(t, t.TempDir(), tt.overrides)
			_, err := Load(paths)
			require.Error(t, err)
			var loadErr *DataLoadError
			assert.True(t, errors.As(err, &loadErr))
		})
	}
}

func TestLoadMappingErrors(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
	}{
		{
			name: "specialty_map_empty",
			overrides: map[string]string{
				"specialties.json": `{}`,
			},
		},
		{
			name: "specialty_without_diseases",
			overrides: map[string]string{
				"specialties.json": `{"Cardiology": [], "Endocrinology": ["Type 2 Diabetes"]}`,
			},
		},
		{
			name: "billing_bad_decimal",
			overrides: map[string]string{
				"billing.json": `{"diagnoses": {"Hypertension": {"billing_items": [
					{"description": "Consultation", "unit_price": "fifty", "min_quantity": 1, "max_quantity": 1}
				]}}}`,
			},
		},
		{
			name: "billing_three_decimal_places",
			overrides: map[string]string{
				"billing.json": `{"diagnoses": {"Hypertension": {"billing_items": [
					{"description": "Consultation", "unit_price": "50.005", "min_quantity": 1, "max_quantity": 1}
				]}}}`,
			},
		},
		{
			name: "billing_bad_quantity_range",
			overrides: map[string]string{
				"billing.json": `{"diagnoses": {"Hypertension": {"billing_items": [
					{"description": "Consultation", "unit_price": "50.00", "min_quantity": 3, "max_quantity": 1}
				]}}}`,
			},
		},
		{
			name: "billing_missing_description",
			overrides: map[string]string{
				"billing.json": `{"diagnoses": {"Hypertension": {"billing_items": [
					{"description": "", "unit_price": "50.00", "min_quantity": 1, "max_quantity": 1}
				]}}}`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := writeRefSet(t, t.TempDir(), tt.overrides)
			_, err := Load(paths)
			require.Error(t, err)
			var loadErr *DataLoadError
			assert.True(t, errors.As(err, &loadErr))
		})
	}
}

func TestLoadCrossValidation(t *testing.T) {
	t.Run("doctor_specialty_unmapped", func(t *testing.T) {
		paths := writeRefSet(t, t.TempDir(), map[string]string{
			"doctors.csv": "doctor_id,name,specialty\nD001,Dr. X,Neurology\n",
		})
		_, err := Load(paths)
		require.Error(t, err)
		var loadErr *DataLoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Contains(t, loadErr.Reason, "Neurology")
	})

	t.Run("disease_without_billing_items", func(t *testing.T) {
		paths := writeRefSet(t, t.TempDir(), map[string]string{
			"specialties.json": `{"Cardiology": ["Hypertension", "Angina"], "Endocrinology": ["Type 2 Diabetes"]}`,
		})
		_, err := Load(paths)
		require.Error(t, err)
		var loadErr *DataLoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Contains(t, loadErr.Reason, "Angina")
	})
}
