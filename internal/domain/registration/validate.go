package registration

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a field name to the message shown next to it.
// An empty Errors means the record is valid.
type Errors map[string]string

func (e Errors) Valid() bool {
	return len(e) == 0
}

// Fields returns the failing field names sorted.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e.Fields() {
		parts = append(parts, f+": "+e[f])
	}
	return "invalid registration: " + strings.Join(parts, "; ")
}

// RecordRule is a whole-record predicate whose failure is reported on Field.
type RecordRule struct {
	Field   string
	Message string
	Holds   func(Record) bool
}

// messages for per-field rules, keyed by "<field>.<tag>" first and "<field>" second
var fieldMessages = map[string]string{
	FieldFirstName:           "First name must have at least 3 characters",
	FieldLastName:            "Last name must have at least 3 characters",
	FieldEmail:               "Invalid email format",
	FieldPlan:                "Please select a plan",
	FieldGender:              "Please choose a gender",
	FieldAcceptTermsAndConds: "You must accept terms and conditions",
	FieldPassword + ".min":   "Password must contain at least 6 characters",
	FieldPassword + ".max":   "Password must not exceed 12 characters",
}

const (
	msgInvalidCoupon    = "Invalid coupon code"
	msgPasswordMismatch = "Password does not match"
)

type Engine struct {
	v          *validator.Validate
	couponCode string
	rules      []RecordRule
}

func NewEngine(couponCode string) *Engine {
	if couponCode == "" {
		couponCode = DefaultCouponCode
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return sf.Name
		}
		return name
	})

	return &Engine{
		v:          v,
		couponCode: couponCode,
		rules:      crossFieldRules(couponCode),
	}
}

func crossFieldRules(couponCode string) []RecordRule {
	return []RecordRule{
		{
			Field:   FieldCoupon,
			Message: msgInvalidCoupon,
			Holds: func(r Record) bool {
				return !r.HasCoupon || r.Coupon == couponCode
			},
		},
		{
			Field:   FieldConfirmPassword,
			Message: msgPasswordMismatch,
			Holds: func(r Record) bool {
				return r.ConfirmPassword == r.Password
			},
		},
	}
}

func (e *Engine) CouponCode() string {
	return e.couponCode
}

// Validate checks every rule against r and returns all failures at once.
func (e *Engine) Validate(r Record) Errors {
	out := Errors{}

	err := e.v.Struct(r)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = messageFor(fe.Field(), fe.Tag())
		}
	}

	for _, rule := range e.rules {
		if !rule.Holds(r) {
			out[rule.Field] = rule.Message
		}
	}

	return out
}

func messageFor(field, tag string) string {
	if m, ok := fieldMessages[field+"."+tag]; ok {
		return m
	}
	if m, ok := fieldMessages[field]; ok {
		return m
	}
	return field + " is invalid"
}

var defaultEngine = NewEngine(DefaultCouponCode)

// Validate runs the default engine (coupon code CMU2023).
func Validate(r Record) Errors {
	return defaultEngine.Validate(r)
}
