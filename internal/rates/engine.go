package rates

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	UnitKg = "kg"
	UnitLb = "lb"

	KgPerLb       = 0.453592
	InsuranceRate = 0.05
	TaxRate       = 0.16
)

// Input is what the quote form collects.
type Input struct {
	Origin       string
	Destination  string
	Option       string
	Weight       float64
	WeightUnit   string
	PackageCount int
	Insured      bool
	// PickupDate is optional for a quote; without it no delivery
	// estimate is produced.
	PickupDate time.Time
}

type Quote struct {
	Option            Option    `json:"option"`
	WeightKg          float64   `json:"weight_kg"`
	PackageCount      int       `json:"package_count"`
	ShippingCost      float64   `json:"shipping_cost"`
	InsuranceCost     float64   `json:"insurance_cost"`
	Tax               float64   `json:"tax"`
	Total             float64   `json:"total"`
	PickupDate        time.Time `json:"-"`
	EstimatedDelivery time.Time `json:"-"`
}

// Bounds caps the inputs of a quote, a zero value disables the bound.
type Bounds struct {
	MaxWeightKg     float64
	MaxPackageCount int
}

type Engine struct {
	bounds Bounds
}

func NewEngine(b Bounds) *Engine {
	return &Engine{bounds: b}
}

// Calculate quotes without upper bounds.
func Calculate(in Input) (*Quote, error) {
	return NewEngine(Bounds{}).Quote(in)
}

// Validate checks the required fields and configured bounds.
func (e *Engine) Validate(in Input) *ValidationError {
	v := &ValidationError{}
	if strings.TrimSpace(in.Origin) == "" {
		v.Add("origin", "origin is required")
	}
	if strings.TrimSpace(in.Destination) == "" {
		v.Add("destination", "destination is required")
	}
	if !(in.Weight > 0) || math.IsInf(in.Weight, 0) {
		v.Add("package_weight", "weight must be greater than 0")
	}
	if in.WeightUnit != "" && in.WeightUnit != UnitKg && in.WeightUnit != UnitLb {
		v.Add("weight_unit", "weight unit must be kg or lb")
	}
	if in.Option == "" {
		v.Add("shipping_option", "shipping option is required")
	} else if _, ok := Lookup(in.Option); !ok {
		v.Add("shipping_option", "unknown shipping option "+strconv.Quote(in.Option))
	}

	if e.bounds.MaxWeightKg > 0 && !v.Has("package_weight") && !v.Has("weight_unit") {
		if ToKg(in.Weight, in.WeightUnit) > e.bounds.MaxWeightKg {
			v.Add("package_weight", "weight exceeds "+strconv.FormatFloat(e.bounds.MaxWeightKg, 'f', -1, 64)+" kg")
		}
	}
	if e.bounds.MaxPackageCount > 0 && in.PackageCount > e.bounds.MaxPackageCount {
		v.Add("package_count", "package count exceeds "+strconv.Itoa(e.bounds.MaxPackageCount))
	}
	return v
}

// Quote computes the cost breakdown. The order of operations is fixed:
// insurance is a share of shipping, tax applies to shipping plus insurance.
func (e *Engine) Quote(in Input) (*Quote, error) {
	if in.PackageCount <= 0 {
		in.PackageCount = 1
	}
	if err := e.Validate(in).Err(); err != nil {
		return nil, err
	}

	opt, _ := Lookup(in.Option)
	weightKg := ToKg(in.Weight, in.WeightUnit)

	shipping := opt.BasePricePerKg * weightKg * float64(in.PackageCount)
	insurance := 0.0
	if in.Insured {
		insurance = shipping * InsuranceRate
	}
	tax := (shipping + insurance) * TaxRate

	q := &Quote{
		Option:        opt,
		WeightKg:      weightKg,
		PackageCount:  in.PackageCount,
		ShippingCost:  shipping,
		InsuranceCost: insurance,
		Tax:           tax,
		Total:         shipping + insurance + tax,
	}
	if !in.PickupDate.IsZero() {
		q.PickupDate = DateOf(in.PickupDate)
		q.EstimatedDelivery = EstimateDelivery(in.PickupDate, opt)
	}
	return q, nil
}

// ToKg normalizes a weight to kilograms, anything but lb is taken as kg.
func ToKg(weight float64, unit string) float64 {
	if unit == UnitLb {
		return weight * KgPerLb
	}
	return weight
}

// EstimateDelivery adds the transit days as calendar days, weekends and
// holidays included.
func EstimateDelivery(pickup time.Time, opt Option) time.Time {
	return DateOf(pickup).AddDate(0, 0, opt.TransitDays)
}

// DateOf drops the clock part, keeping the calendar date as seen in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RoundCents rounds a monetary amount half away from zero to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseWeight reads a form value, anything non numeric is 0.
func ParseWeight(raw string) float64 {
	w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0
	}
	return w
}

// ParseCount reads a form value, anything but a positive integer is 1.
func ParseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}
