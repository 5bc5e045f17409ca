package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	require.NoError(t, Load(v))

	cfg := Get()
	assert.Equal(t, "hospitals_and_clinics.csv", cfg.Input.Clinics)
	assert.Equal(t, "doctors_and_specialists_list.csv", cfg.Input.Doctors)
	assert.Equal(t, "specialities_diseases.json", cfg.Input.Specialties)
	assert.Equal(t, "disease_consultation.json", cfg.Input.Billing)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, "design.json", cfg.Output.DesignFile)
	assert.Equal(t, 4, cfg.Generator.Workers)
	assert.Equal(t, 25, cfg.Generator.MaxRetries)
	assert.Equal(t, "inflated_amounts", cfg.Generator.FraudPolicy)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "claim_generation.log", cfg.Logging.File)
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("input.clinics", "custom/clinics.csv")
	v.Set("generator.workers", 8)
	v.Set("generator.fraud_policy", "combined")
	require.NoError(t, Load(v))

	cfg := Get()
	assert.Equal(t, "custom/clinics.csv", cfg.Input.Clinics)
	assert.Equal(t, 8, cfg.Generator.Workers)
	assert.Equal(t, "combined", cfg.Generator.FraudPolicy)
}

func TestLoadRejectsBadValues(t *testing.T) {
	v := viper.New()
	v.Set("generator.workers", 0)
	assert.Error(t, Load(v))

	v = viper.New()
	v.Set("generator.max_retries", -1)
	assert.Error(t, Load(v))
}

func TestServiceDate(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
	}{
		{"2024-06-05", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)},
		{"June 5, 2024", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)},
		{"05/06/2024", time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c := &Config{Generator: GeneratorCfg{ServiceDate: tt.input}}
			got, err := c.ServiceDate()
			require.NoError(t, err)
			assert.Equal(t, tt.expected.Year(), got.Year())
			assert.Equal(t, tt.expected.Month(), got.Month())
			assert.Equal(t, tt.expected.Day(), got.Day())
		})
	}

	t.Run("empty_means_today", func(t *testing.T) {
		c := &Config{}
		got, err := c.ServiceDate()
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), got, time.Minute)
	})

	t.Run("garbage_fails", func(t *testing.T) {
		c := &Config{Generator: GeneratorCfg{ServiceDate: "not a date"}}
		_, err := c.ServiceDate()
		assert.Error(t, err)
	})
}
