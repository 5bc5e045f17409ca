package claim

import (
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/refdata"
)

// Policy decides how a claim's disease and line items are sampled. The
// legitimate policy honors the reference-table constraints; fraud policies
// deliberately violate at least one of them.
type Policy interface {
	Name() string

	// RequireSpecialtyMatch reports whether the chosen disease must be
	// treatable by the chosen doctor's specialty.
	RequireSpecialtyMatch() bool

	// SelectItems builds the charged line items from a disease's billing
	// templates. Must return at least one item.
	SelectItems(f *gofakeit.Faker, templates []refdata.BillingTemplate) []LineItem
}

// FraudParams tunes the inflated_amounts policy. Loaded from policies.yaml.
type FraudParams struct {
	PriceMultiplierMin float64 `yaml:"price_multiplier_min"`
	PriceMultiplierMax float64 `yaml:"price_multiplier_max"`
	QuantityOverRange  int     `yaml:"quantity_over_range"`
	DuplicateChance    float64 `yaml:"duplicate_chance"`
}

// PolicyFile is the on-disk fraud policy parameter file.
type PolicyFile struct {
	InflatedAmounts FraudParams `yaml:"inflated_amounts"`
}

// DefaultPolicyFile returns the parameters used when no policies.yaml is
// configured.
func DefaultPolicyFile() *PolicyFile {
	return &PolicyFile{
		InflatedAmounts: FraudParams{
			PriceMultiplierMin: 2.0,
			PriceMultiplierMax: 5.0,
			QuantityOverRange:  10,
			DuplicateChance:    0.5,
		},
	}
}

// LoadPolicies reads fraud policy parameters from a YAML file. An empty path
// yields the defaults.
func LoadPolicies(path string) (*PolicyFile, error) {
	if path == "" {
		return DefaultPolicyFile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file %s: %w", path, err)
	}
	pf := DefaultPolicyFile()
	if err := yaml.Unmarshal(data, pf); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	p := pf.InflatedAmounts
	if p.PriceMultiplierMin < 1 || p.PriceMultiplierMax < p.PriceMultiplierMin {
		return nil, fmt.Errorf("policy file %s: price multiplier range must satisfy 1 <= min <= max, got [%v, %v]",
			path, p.PriceMultiplierMin, p.PriceMultiplierMax)
	}
	if p.QuantityOverRange < 1 {
		return nil, fmt.Errorf("policy file %s: quantity_over_range must be >= 1, got %d", path, p.QuantityOverRange)
	}
	if p.DuplicateChance < 0 || p.DuplicateChance > 1 {
		return nil, fmt.Errorf("policy file %s: duplicate_chance must be in [0, 1], got %v", path, p.DuplicateChance)
	}
	return pf, nil
}

// ForKind resolves the policy for a claim kind. Legitimate claims always use
// the legitimate policy; fraudulent claims pick the named fraud policy.
func ForKind(kind Kind, fraudPolicy string, pf *PolicyFile) (Policy, error) {
	if kind == KindLegitimate {
		return LegitimatePolicy{}, nil
	}
	switch fraudPolicy {
	case "inflated_amounts":
		return InflatedAmountsPolicy{Params: pf.InflatedAmounts}, nil
	case "specialty_mismatch":
		return SpecialtyMismatchPolicy{}, nil
	case "combined":
		return CombinedPolicy{Params: pf.InflatedAmounts}, nil
	default:
		return nil, fmt.Errorf("unknown fraud policy %q", fraudPolicy)
	}
}

// LegitimatePolicy charges every template for the disease, at the template
// unit price, with a quantity inside the template's typical range.
type LegitimatePolicy struct{}

func (LegitimatePolicy) Name() string                { return "legitimate" }
func (LegitimatePolicy) RequireSpecialtyMatch() bool { return true }

func (LegitimatePolicy) SelectItems(f *gofakeit.Faker, templates []refdata.BillingTemplate) []LineItem {
	items := make([]LineItem, 0, len(templates))
	for _, tpl := range templates {
		qty := f.Number(tpl.MinQuantity, tpl.MaxQuantity)
		items = append(items, newLineItem(tpl.Description, tpl.UnitPrice, qty))
	}
	return items
}

// InflatedAmountsPolicy keeps the specialty constraint intact but inflates
// unit prices, samples quantities above the template range, and may charge
// items twice.
type InflatedAmountsPolicy struct {
	Params FraudParams
}

func (InflatedAmountsPolicy) Name() string                { return "inflated_amounts" }
func (InflatedAmountsPolicy) RequireSpecialtyMatch() bool { return true }

func (p InflatedAmountsPolicy) SelectItems(f *gofakeit.Faker, templates []refdata.BillingTemplate) []LineItem {
	return inflateItems(f, templates, p.Params)
}

// SpecialtyMismatchPolicy bills normally but draws the disease without regard
// to the doctor's specialty.
type SpecialtyMismatchPolicy struct{}

func (SpecialtyMismatchPolicy) Name() string                { return "specialty_mismatch" }
func (SpecialtyMismatchPolicy) RequireSpecialtyMatch() bool { return false }

func (SpecialtyMismatchPolicy) SelectItems(f *gofakeit.Faker, templates []refdata.BillingTemplate) []LineItem {
	return LegitimatePolicy{}.SelectItems(f, templates)
}

// CombinedPolicy violates both constraints: unconstrained disease selection
// plus inflated amounts.
type CombinedPolicy struct {
	Params FraudParams
}

func (CombinedPolicy) Name() string                { return "combined" }
func (CombinedPolicy) RequireSpecialtyMatch() bool { return false }

func (p CombinedPolicy) SelectItems(f *gofakeit.Faker, templates []refdata.BillingTemplate) []LineItem {
	return inflateItems(f, templates, p.Params)
}

func inflateItems(f *gofakeit.Faker, templates []refdata.BillingTemplate, params FraudParams) []LineItem {
	var items []LineItem
	for _, tpl := range templates {
		mult := f.Float64Range(params.PriceMultiplierMin, params.PriceMultiplierMax)
		price := tpl.UnitPrice.Mul(decimal.NewFromFloat(mult)).Round(2)
		qty := tpl.MaxQuantity + f.Number(1, params.QuantityOverRange)
		items = append(items, newLineItem(tpl.Description, price, qty))
		if f.Float64Range(0, 1) < params.DuplicateChance {
			items = append(items, newLineItem(tpl.Description, price, qty))
		}
	}
	return items
}

// newLineItem computes the line total at fixed 2-dp precision so grand totals
// never drift from the rendered rows.
func newLineItem(desc string, unitPrice decimal.Decimal, qty int) LineItem {
	return LineItem{
		Description: desc,
		UnitPrice:   unitPrice,
		Quantity:    qty,
		LineTotal:   unitPrice.Mul(decimal.NewFromInt(int64(qty))),
	}
}
