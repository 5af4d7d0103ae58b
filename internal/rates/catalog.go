package rates

// Option is one tier of the shipping catalog.
type Option struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	TransitDays    int     `json:"transit_days"`
	BasePricePerKg float64 `json:"base_price_per_kg"`
}

const (
	OptionExpress  = "express"
	OptionStandard = "standard"
	OptionEconomy  = "economy"
)

// catalog is fixed, it is not user editable.
var catalog = []Option{
	{ID: OptionExpress, Name: "Express", TransitDays: 1, BasePricePerKg: 800},
	{ID: OptionStandard, Name: "Standard", TransitDays: 3, BasePricePerKg: 450},
	{ID: OptionEconomy, Name: "Economy", TransitDays: 5, BasePricePerKg: 250},
}

// Options returns a copy of the catalog in display order.
func Options() []Option {
	out := make([]Option, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a catalog option by id.
func Lookup(id string) (Option, bool) {
	for _, o := range catalog {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}
