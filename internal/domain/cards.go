package domain

import (
	"strings"
	"time"
)

// ============================================================
// Credit Card portfolio
// ============================================================

// AllMerchants is the merchant sentinel meaning "every merchant".
const AllMerchants = "all"

// RewardRule is one earn rule of a card. Multiplier is kept as the free-form
// text found on the card terms ("10X", "5%", "2 travel credits") and resolved
// at scoring time.
type RewardRule struct {
	Category        string   `json:"category" validate:"required"`
	Multiplier      string   `json:"multiplier" validate:"required"`
	RateDescription string   `json:"reward_rate_description,omitempty"`
	Merchants       []string `json:"merchants" validate:"required,min=1,dive,notblank"`
	Cap             string   `json:"cap,omitempty"`
	Period          string   `json:"period,omitempty"`
}

// AppliesToAll reports whether the rule carries the "all" merchant sentinel.
func (r RewardRule) AppliesToAll() bool {
	for _, m := range r.Merchants {
		if strings.EqualFold(strings.TrimSpace(m), AllMerchants) {
			return true
		}
	}
	return false
}

// Milestone is a "spend X to get Y" benefit.
type Milestone struct {
	SpendThreshold string `json:"spend_threshold"`
	Reward         string `json:"reward"`
	Period         string `json:"period"`
}

// Eligibility groups the issuer's applicant constraints.
type Eligibility struct {
	MinIncomeSalaried     string   `json:"min_income_salaried,omitempty"`
	MinIncomeSelfEmployed string   `json:"min_income_self_employed,omitempty"`
	AgeRequirement        string   `json:"age_requirement,omitempty"`
	LocationConstraints   []string `json:"location_constraints,omitempty"`
	OtherConditions       []string `json:"other_conditions,omitempty"`
}

// Card is a credit card owned by exactly one user. Only Name,
// ExcludedCategories and RewardRules take part in scoring; the rest is
// descriptive data kept from the card terms.
type Card struct {
	ID                 string       `json:"id,omitempty"`
	UserID             string       `json:"user_id,omitempty"`
	Name               string       `json:"card_name" validate:"required,notblank"`
	Issuer             string       `json:"issuer,omitempty"`
	CardType           string       `json:"card_type,omitempty"`
	AnnualFee          string       `json:"annual_fee,omitempty"`
	FeeWaiverCondition string       `json:"fee_waiver_condition,omitempty"`
	WelcomeBonus       string       `json:"welcome_bonus,omitempty"`
	RewardProgramName  string       `json:"reward_program_name,omitempty"`
	RewardRules        []RewardRule `json:"reward_rules" validate:"dive"`
	Milestones         []Milestone  `json:"milestone_benefits,omitempty"`
	Eligibility        *Eligibility `json:"eligibility_criteria,omitempty"`
	ExcludedCategories []string     `json:"excluded_categories,omitempty"`
	KeyBenefits        []string     `json:"key_benefits,omitempty"`
	LiabilityPolicy    string       `json:"liability_policy,omitempty"`
	CreatedAt          time.Time    `json:"created_at,omitempty"`
}
