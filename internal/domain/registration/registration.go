package registration

type Plan string

const (
	PlanFunRun Plan = "funrun"
	PlanMini   Plan = "mini"
	PlanHalf   Plan = "half"
	PlanFull   Plan = "full"
)

// Plans returns every plan in display order.
func Plans() []Plan {
	return []Plan{PlanFunRun, PlanMini, PlanHalf, PlanFull}
}

func (p Plan) IsValid() bool {
	switch p {
	case PlanFunRun, PlanMini, PlanHalf, PlanFull:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// field names as they appear on the wire and as keys of Errors
const (
	FieldFirstName           = "firstName"
	FieldLastName            = "lastName"
	FieldEmail               = "email"
	FieldPlan                = "plan"
	FieldGender              = "gender"
	FieldAcceptTermsAndConds = "acceptTermsAndConds"
	FieldHasCoupon           = "hasCoupon"
	FieldCoupon              = "coupon"
	FieldPassword            = "password"
	FieldConfirmPassword     = "confirmPassword"
)

// Fields lists every record field in form order.
func Fields() []string {
	return []string{
		FieldFirstName,
		FieldLastName,
		FieldEmail,
		FieldPassword,
		FieldConfirmPassword,
		FieldPlan,
		FieldGender,
		FieldHasCoupon,
		FieldCoupon,
		FieldAcceptTermsAndConds,
	}
}

// DefaultCouponCode is the single code that grants the discount.
const DefaultCouponCode = "CMU2023"

// Record is one registration attempt as entered on the form.
// An empty Plan or Gender means "not selected yet".
// validate tags hold the form rules; binding tags only bound request payloads.
type Record struct {
	FirstName           string `json:"firstName" validate:"min=3" binding:"max=256"`
	LastName            string `json:"lastName" validate:"min=3" binding:"max=256"`
	Email               string `json:"email" validate:"email" binding:"max=320"`
	Plan                Plan   `json:"plan" validate:"required,oneof=funrun mini half full" binding:"max=32"`
	Gender              Gender `json:"gender" validate:"required,oneof=male female" binding:"max=32"`
	AcceptTermsAndConds bool   `json:"acceptTermsAndConds" validate:"required"`
	HasCoupon           bool   `json:"hasCoupon"`
	Coupon              string `json:"coupon" binding:"max=64"`
	Password            string `json:"password" validate:"min=6,max=12" binding:"max=256"`
	ConfirmPassword     string `json:"confirmPassword" binding:"max=256"`
}

// Empty returns the record a fresh form starts with.
func Empty() Record {
	return Record{}
}
