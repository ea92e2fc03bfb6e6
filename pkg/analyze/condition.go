package analyze

import (
	"strings"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// structuredConditions maps the marketplace's structured condition values
// to normalized conditions. Anything else structured means USED.
var structuredConditions = map[string]domain.Condition{
	"new":              domain.ConditionNew,
	"as_good_as_new":   domain.ConditionLikeNew,
	"has_given_it_all": domain.ConditionBroken,
	"does_not_work":    domain.ConditionBroken,
}

// ResolveCondition normalizes a listing's condition. Structured attributes
// from the detail lookup win, then the refurbished flag, then free text.
func ResolveCondition(l *domain.Listing, fullText string) domain.Condition {
	if l != nil {
		if ta := l.TypeAttributes; ta != nil && ta.Condition != nil && ta.Condition.Value != "" {
			if c, ok := structuredConditions[ta.Condition.Value]; ok {
				return c
			}
			return domain.ConditionUsed
		}
		if l.IsRefurbished != nil && l.IsRefurbished.Flag {
			return domain.ConditionLikeNew
		}
	}
	return ConditionFromText(fullText)
}

// ConditionFromText derives the condition from free text alone. BROKEN
// wins over NEW wins over LIKE_NEW: a listing that says both "como nuevo"
// and "no enciende" is broken.
func ConditionFromText(fullText string) domain.Condition {
	lower := strings.ToLower(fullText)
	switch {
	case conditionBrokenRe.MatchString(lower):
		return domain.ConditionBroken
	case conditionNewRe.MatchString(likeNewQualifierRe.ReplaceAllString(lower, " ")):
		return domain.ConditionNew
	case conditionLikeNewRe.MatchString(lower):
		return domain.ConditionLikeNew
	default:
		return domain.ConditionUsed
	}
}
