package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/geocoder89/marathonreg/internal/domain/registration"
)

var (
	ErrUnknownPlan       = errors.New("unknown plan")
	ErrDuplicatePlan     = errors.New("duplicate plan")
	ErrNegativePrice     = errors.New("negative price")
	ErrIncompleteCatalog = errors.New("catalog must list every plan")
	ErrInvalidPriceList  = errors.New("invalid price list")
)

// PlanOption is one entry of the plan select: the enum tag, what the user sees, and the base price in THB.
type PlanOption struct {
	Value registration.Plan `json:"value"`
	Label string            `json:"label"`
	Price float64           `json:"price"`
}

// Catalog is the ordered, read-only list of plans. Build it once at start up.
type Catalog struct {
	options []PlanOption
	byPlan  map[registration.Plan]PlanOption
}

func NewCatalog(opts []PlanOption) (*Catalog, error) {
	byPlan := make(map[registration.Plan]PlanOption, len(opts))

	for _, o := range opts {
		if !o.Value.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, o.Value)
		}
		if _, dup := byPlan[o.Value]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePlan, o.Value)
		}
		if o.Price < 0 || math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
			return nil, fmt.Errorf("%w: %q costs %v", ErrNegativePrice, o.Value, o.Price)
		}
		byPlan[o.Value] = o
	}

	for _, p := range registration.Plans() {
		if _, ok := byPlan[p]; !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrIncompleteCatalog, p)
		}
	}

	cp := make([]PlanOption, len(opts))
	copy(cp, opts)

	return &Catalog{options: cp, byPlan: byPlan}, nil
}

func defaultOptions() []PlanOption {
	return []PlanOption{
		{Value: registration.PlanFunRun, Label: "Fun Run 5.5 Km", Price: 500},
		{Value: registration.PlanMini, Label: "Mini Marathon 10 Km", Price: 800},
		{Value: registration.PlanHalf, Label: "Half Marathon 21 Km", Price: 1000},
		{Value: registration.PlanFull, Label: "Full Marathon 42.195 Km", Price: 1500},
	}
}

// DefaultCatalog returns the race's standard plans.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultOptions())
	if err != nil {
		panic(err)
	}
	return c
}

// Options returns a copy of the plans in display order.
func (c *Catalog) Options() []PlanOption {
	out := make([]PlanOption, len(c.options))
	copy(out, c.options)
	return out
}

func (c *Catalog) Lookup(p registration.Plan) (PlanOption, bool) {
	o, ok := c.byPlan[p]
	return o, ok
}

// PriceOf returns the base price of p, or 0 when p is unset or not listed.
func (c *Catalog) PriceOf(p registration.Plan) float64 {
	return c.byPlan[p].Price
}

// WithPrices returns a new catalog with the given base prices replaced.
func (c *Catalog) WithPrices(prices map[registration.Plan]float64) (*Catalog, error) {
	opts := c.Options()
	for plan := range prices {
		if _, ok := c.byPlan[plan]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
		}
	}
	for i := range opts {
		if p, ok := prices[opts[i].Value]; ok {
			opts[i].Price = p
		}
	}
	return NewCatalog(opts)
}

// ParsePrices reads "funrun=500,mini=800" style overrides.
func ParsePrices(list string) (map[registration.Plan]float64, error) {
	out := map[registration.Plan]float64{}

	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, raw, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPriceList, part)
		}

		plan := registration.Plan(strings.TrimSpace(name))
		if !plan.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPriceList, part, err)
		}
		out[plan] = price
	}

	return out, nil
}
