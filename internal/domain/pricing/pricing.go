package pricing

import (
	"math"

	"github.com/geocoder89/marathonreg/internal/domain/registration"
)

const (
	Currency               = "THB"
	DefaultDiscountPercent = 30
)

// Quote is a computed price with its breakdown.
type Quote struct {
	Plan            registration.Plan `json:"plan"`
	BasePrice       float64           `json:"basePrice"`
	DiscountApplied bool              `json:"discountApplied"`
	Discount        float64           `json:"discount"`
	Total           float64           `json:"total"`
	Currency        string            `json:"currency"`
	Display         string            `json:"display"`
}

type Engine struct {
	catalog         *Catalog
	couponCode      string
	discountPercent int
}

// NewEngine wires the catalog with the discount coupon. A percent outside
// (0,100] falls back to DefaultDiscountPercent.
func NewEngine(catalog *Catalog, couponCode string, discountPercent int) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if couponCode == "" {
		couponCode = registration.DefaultCouponCode
	}
	if discountPercent <= 0 || discountPercent > 100 {
		discountPercent = DefaultDiscountPercent
	}

	return &Engine{
		catalog:         catalog,
		couponCode:      couponCode,
		discountPercent: discountPercent,
	}
}

func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// DiscountApplies reports whether the coupon checkbox and code earn the discount.
// The match is exact and case sensitive.
func (e *Engine) DiscountApplies(hasCoupon bool, coupon string) bool {
	return hasCoupon && coupon == e.couponCode
}

// ComputePrice returns the total in THB rounded to the satang.
func (e *Engine) ComputePrice(plan registration.Plan, hasCoupon bool, coupon string) float64 {
	price := e.catalog.PriceOf(plan)

	if e.DiscountApplies(hasCoupon, coupon) {
		price = price * float64(100-e.discountPercent) / 100
	}

	return roundSatang(price)
}

func (e *Engine) Quote(plan registration.Plan, hasCoupon bool, coupon string) Quote {
	base := roundSatang(e.catalog.PriceOf(plan))
	total := e.ComputePrice(plan, hasCoupon, coupon)

	return Quote{
		Plan:            plan,
		BasePrice:       base,
		DiscountApplied: e.DiscountApplies(hasCoupon, coupon),
		Discount:        roundSatang(base - total),
		Total:           total,
		Currency:        Currency,
		Display:         FormatTHB(total),
	}
}

// half away from zero, two decimals
func roundSatang(v float64) float64 {
	return math.Round(v*100) / 100
}

var defaultEngine = NewEngine(DefaultCatalog(), registration.DefaultCouponCode, DefaultDiscountPercent)

// ComputePrice prices against the default catalog and coupon.
func ComputePrice(plan registration.Plan, hasCoupon bool, coupon string) float64 {
	return defaultEngine.ComputePrice(plan, hasCoupon, coupon)
}
