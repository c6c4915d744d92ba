package form

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/geocoder89/marathonreg/internal/domain/pricing"
	"github.com/geocoder89/marathonreg/internal/domain/registration"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidValue = errors.New("invalid field value")
)

// AcknowledgmentMessage is what a successful submission answers with.
const AcknowledgmentMessage = "See you at CMU Marathon"

type Validator interface {
	Validate(r registration.Record) registration.Errors
}

type Pricer interface {
	ComputePrice(plan registration.Plan, hasCoupon bool, coupon string) float64
}

type Acknowledgment struct {
	Message string            `json:"message"`
	Plan    registration.Plan `json:"plan"`
	Total   float64           `json:"total"`
	Display string            `json:"display"`
}

// Snapshot is the client facing view of a State. Password fields are masked.
type Snapshot struct {
	Record registration.Record `json:"record"`
	Errors registration.Errors `json:"errors"`
	Price  float64             `json:"price"`
	Valid  bool                `json:"valid"`
}

// State holds the record of one form session and keeps errors and price
// in step with it. A State is not safe for concurrent use.
type State struct {
	rec   registration.Record
	errs  registration.Errors
	price float64

	validator Validator
	pricer    Pricer
}

func New(v Validator, p Pricer) *State {
	return Restore(registration.Empty(), v, p)
}

// Restore rebuilds a State around a previously saved record.
func Restore(rec registration.Record, v Validator, p Pricer) *State {
	s := &State{rec: rec, validator: v, pricer: p}
	s.recompute()
	return s
}

func (s *State) recompute() {
	s.errs = s.validator.Validate(s.rec)
	s.price = s.pricer.ComputePrice(s.rec.Plan, s.rec.HasCoupon, s.rec.Coupon)
}

// SetField applies one edit. value takes the shapes JSON decoding produces:
// string for text and choices, bool for checkboxes, nil to clear a choice.
func (s *State) SetField(name string, value any) error {
	rec := s.rec
	var err error

	switch name {
	case registration.FieldFirstName:
		rec.FirstName, err = text(name, value)
	case registration.FieldLastName:
		rec.LastName, err = text(name, value)
	case registration.FieldEmail:
		rec.Email, err = text(name, value)
	case registration.FieldCoupon:
		rec.Coupon, err = text(name, value)
	case registration.FieldPassword:
		rec.Password, err = text(name, value)
	case registration.FieldConfirmPassword:
		rec.ConfirmPassword, err = text(name, value)
	case registration.FieldPlan:
		var v string
		v, err = choice(name, value)
		rec.Plan = registration.Plan(v)
	case registration.FieldGender:
		var v string
		v, err = choice(name, value)
		rec.Gender = registration.Gender(v)
	case registration.FieldAcceptTermsAndConds:
		rec.AcceptTermsAndConds, err = flag(name, value)
	case registration.FieldHasCoupon:
		rec.HasCoupon, err = flag(name, value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	if err != nil {
		return err
	}

	s.rec = rec
	s.recompute()
	return nil
}

func text(name string, value any) (string, error) {
	v, ok := value.(string)
	if !ok {
		return "", invalid(name, "a string", value)
	}
	return v, nil
}

func flag(name string, value any) (bool, error) {
	v, ok := value.(bool)
	if !ok {
		return false, invalid(name, "a boolean", value)
	}
	return v, nil
}

func choice(name string, value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", invalid(name, "a string or null", value)
	}
}

func invalid(name, want string, got any) error {
	return fmt.Errorf("%w: %s must be %s, got %T", ErrInvalidValue, name, want, got)
}

func (s *State) Record() registration.Record {
	return s.rec
}

// Errors returns a copy of the current field errors.
func (s *State) Errors() registration.Errors {
	out := make(registration.Errors, len(s.errs))
	for k, v := range s.errs {
		out[k] = v
	}
	return out
}

func (s *State) Price() float64 {
	return s.price
}

func (s *State) Valid() bool {
	return s.errs.Valid()
}

func (s *State) Snapshot() Snapshot {
	rec := s.rec
	rec.Password = mask(rec.Password)
	rec.ConfirmPassword = mask(rec.ConfirmPassword)

	return Snapshot{
		Record: rec,
		Errors: s.Errors(),
		Price:  s.price,
		Valid:  s.Valid(),
	}
}

func mask(v string) string {
	return strings.Repeat("*", utf8.RuneCountInString(v))
}

// Submit acknowledges a valid record. An invalid one yields its registration.Errors.
func (s *State) Submit() (Acknowledgment, error) {
	if !s.Valid() {
		return Acknowledgment{}, s.Errors()
	}

	return Acknowledgment{
		Message: AcknowledgmentMessage,
		Plan:    s.rec.Plan,
		Total:   s.price,
		Display: pricing.FormatTHB(s.price),
	}, nil
}
