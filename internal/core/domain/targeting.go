package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Well-known criteria types. Other types are matched against
// UserContext.Attributes.
const (
	CriteriaAge      = "age"
	CriteriaGender   = "gender"
	CriteriaLocation = "location"
	CriteriaInterest = "interest"
	CriteriaDevice   = "device"
	CriteriaPlatform = "platform"
)

// Operator is the comparison a criterion applies to a context value.
type Operator string

const (
	OpEquals   Operator = "equals"
	OpContains Operator = "contains"
	OpIn       Operator = "in"
	OpBetween  Operator = "between"
)

// TargetingCriterion is one targeting rule of an ad group. CriteriaValue is a
// scalar, a comma list (in) or a "min-max" range (between).
type TargetingCriterion struct {
	ID            int64     `json:"id"`
	AdGroupID     int64     `json:"ad_group_id"`
	CriteriaType  string    `json:"criteria_type"`
	Operator      Operator  `json:"operator"`
	CriteriaValue string    `json:"criteria_value"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate rejects criteria that could never be compiled into a rule.
func (c *TargetingCriterion) Validate() error {
	if c.AdGroupID <= 0 {
		return fmt.Errorf("%w: ad_group_id is required", ErrValidation)
	}
	if strings.TrimSpace(c.CriteriaType) == "" {
		return fmt.Errorf("%w: criteria_type is required", ErrInvalidCriterion)
	}
	_, err := Compile(*c)
	return err
}

// Rule is a compiled criterion operand. The set of implementations is closed:
// Equals, Contains, InSet and Between.
type Rule interface {
	rule()
}

// Equals matches a context value equal to Value, ignoring case.
type Equals struct{ Value string }

// Contains matches a context value containing Substr, ignoring case.
type Contains struct{ Substr string }

// InSet matches a context value that is one of Members.
type InSet struct{ Members map[string]struct{} }

// Between matches a numeric context value in [Min, Max]. It is only defined
// for the age criteria type.
type Between struct{ Min, Max float64 }

func (Equals) rule()   {}
func (Contains) rule() {}
func (InSet) rule()    {}
func (Between) rule()  {}

// Compile turns a stored criterion into its rule. Unknown operators and
// malformed operands yield ErrInvalidCriterion.
func Compile(c TargetingCriterion) (Rule, error) {
	value := strings.TrimSpace(c.CriteriaValue)
	if value == "" {
		return nil, fmt.Errorf("%w: empty value for %s", ErrInvalidCriterion, c.CriteriaType)
	}
	switch Operator(strings.ToLower(string(c.Operator))) {
	case OpEquals:
		return Equals{Value: normalize(value)}, nil
	case OpContains:
		return Contains{Substr: strings.ToLower(value)}, nil
	case OpIn:
		members := make(map[string]struct{})
		for _, part := range strings.Split(value, ",") {
			if m := normalize(part); m != "" {
				members[m] = struct{}{}
			}
		}
		if len(members) == 0 {
			return nil, fmt.Errorf("%w: empty list %q", ErrInvalidCriterion, c.CriteriaValue)
		}
		return InSet{Members: members}, nil
	case OpBetween:
		lo, hi, ok := strings.Cut(value, "-")
		if !ok {
			return nil, fmt.Errorf("%w: range %q is not min-max", ErrInvalidCriterion, value)
		}
		minV, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: range min %q", ErrInvalidCriterion, lo)
		}
		maxV, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: range max %q", ErrInvalidCriterion, hi)
		}
		if minV > maxV {
			return nil, fmt.Errorf("%w: range %q has min above max", ErrInvalidCriterion, value)
		}
		return Between{Min: minV, Max: maxV}, nil
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidCriterion, c.Operator)
	}
}

// Matches reports whether the criterion admits the user. Criteria that do not
// compile and users without the attribute never match.
func (c TargetingCriterion) Matches(user UserContext) bool {
	r, err := Compile(c)
	if err != nil {
		return false
	}
	criteriaType := normalize(c.CriteriaType)
	for _, v := range user.Values(criteriaType) {
		if matchRule(criteriaType, r, v) {
			return true
		}
	}
	return false
}

func matchRule(criteriaType string, r Rule, value string) bool {
	switch r := r.(type) {
	case Equals:
		return normalize(value) == r.Value
	case Contains:
		return strings.Contains(strings.ToLower(value), r.Substr)
	case InSet:
		_, ok := r.Members[normalize(value)]
		return ok
	case Between:
		// TODO: confirm with product whether ranges should apply beyond age.
		if criteriaType != CriteriaAge {
			return false
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return false
		}
		return n >= r.Min && n <= r.Max
	}
	// unreachable: Rule is sealed
	return false
}

// Evaluate decides whether user matches a set of criteria. Criteria of the
// same type are OR-ed, distinct types are AND-ed, and an empty set matches
// everyone.
func Evaluate(criteria []TargetingCriterion, user UserContext) bool {
	matched := make(map[string]bool)
	for _, c := range criteria {
		key := normalize(c.CriteriaType)
		if matched[key] {
			continue
		}
		matched[key] = c.Matches(user)
	}
	for _, ok := range matched {
		if !ok {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
