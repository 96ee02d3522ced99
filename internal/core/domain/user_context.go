package domain

import (
	"strconv"
	"strings"
)

// UserContext describes the viewer of an ad request. Well-known targeting
// attributes have their own fields; anything else travels in Attributes and
// is looked up by criteria type.
type UserContext struct {
	UserID     string            `json:"user_id"`
	Age        *int              `json:"age,omitempty"`
	Gender     string            `json:"gender,omitempty"`
	Location   string            `json:"location,omitempty"`
	Device     string            `json:"device,omitempty"`
	Platform   string            `json:"platform,omitempty"`
	Interests  []string          `json:"interests,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Values returns the context values that a criterion of type criteriaType is
// compared against. A nil result means the attribute is missing.
func (u UserContext) Values(criteriaType string) []string {
	switch strings.ToLower(strings.TrimSpace(criteriaType)) {
	case CriteriaAge:
		if u.Age == nil {
			return nil
		}
		return []string{strconv.Itoa(*u.Age)}
	case CriteriaGender:
		return nonEmpty(u.Gender)
	case CriteriaLocation:
		return nonEmpty(u.Location)
	case CriteriaDevice:
		return nonEmpty(u.Device)
	case CriteriaPlatform:
		return nonEmpty(u.Platform)
	case CriteriaInterest:
		out := make([]string, 0, len(u.Interests))
		for _, v := range u.Interests {
			if strings.TrimSpace(v) != "" {
				out = append(out, v)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return u.attribute(criteriaType)
	}
}

// attribute looks up a free-form attribute. An exact key wins; otherwise keys
// are matched case-insensitively and the lexically smallest match is used.
func (u UserContext) attribute(name string) []string {
	if v, ok := u.Attributes[name]; ok {
		return nonEmpty(v)
	}
	var (
		best  string
		found bool
	)
	for k := range u.Attributes {
		if strings.EqualFold(k, name) && (!found || k < best) {
			best, found = k, true
		}
	}
	if !found {
		return nil
	}
	return nonEmpty(u.Attributes[best])
}

func nonEmpty(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return []string{v}
}
