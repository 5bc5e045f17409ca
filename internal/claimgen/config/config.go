package config

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/viper"
)

type InputCfg struct {
	Clinics     string `mapstructure:"clinics"`
	Doctors     string `mapstructure:"doctors"`
	Specialties string `mapstructure:"specialties"`
	Billing     string `mapstructure:"billing"`
}

type OutputCfg struct {
	Dir        string `mapstructure:"dir"`
	DesignFile string `mapstructure:"design_file"`
}

type GeneratorCfg struct {
	Workers     int    `mapstructure:"workers"`
	MaxRetries  int    `mapstructure:"max_retries"`
	Seed        uint64 `mapstructure:"seed"`
	FraudPolicy string `mapstructure:"fraud_policy"`
	PolicyFile  string `mapstructure:"policy_file"`
	ServiceDate string `mapstructure:"service_date"`
}

type LoggingCfg struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	RunLog string `mapstructure:"run_log"`
}

type Config struct {
	Version   string       `mapstructure:"version"`
	Input     InputCfg     `mapstructure:"input"`
	Output    OutputCfg    `mapstructure:"output"`
	Generator GeneratorCfg `mapstructure:"generator"`
	Logging   LoggingCfg   `mapstructure:"logging"`
}

var cfg *Config

// Load populates global config from a viper instance
func Load(v *viper.Viper) error {
	// set defaults; input file names follow the reference-table contract
	v.SetDefault("version", "0.1")
	v.SetDefault("input.clinics", "hospitals_and_clinics.csv")
	v.SetDefault("input.doctors", "doctors_and_specialists_list.csv")
	v.SetDefault("input.specialties", "specialities_diseases.json")
	v.SetDefault("input.billing", "disease_consultation.json")
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.design_file", "design.json")
	v.SetDefault("generator.workers", 4)
	v.SetDefault("generator.max_retries", 25)
	v.SetDefault("generator.fraud_policy", "inflated_amounts")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "claim_generation.log")
	v.SetDefault("logging.run_log", "claim_runs.ndjson")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Generator.Workers < 1 {
		return fmt.Errorf("generator.workers must be >= 1, got %d", c.Generator.Workers)
	}
	if c.Generator.MaxRetries < 1 {
		return fmt.Errorf("generator.max_retries must be >= 1, got %d", c.Generator.MaxRetries)
	}
	cfg = &c
	return nil
}

func Get() *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg
}

// ServiceDate resolves the configured service date. The value is accepted in
// any common date format; empty means "today".
func (c *Config) ServiceDate() (time.Time, error) {
	if c.Generator.ServiceDate == "" {
		return time.Now(), nil
	}
	t, err := dateparse.ParseAny(c.Generator.ServiceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse generator.service_date %q: %w", c.Generator.ServiceDate, err)
	}
	return t, nil
}
