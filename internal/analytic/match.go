// Package analytic assigns cost centers to document lines and manages the
// analytic accounts and rules that drive the assignment.
package analytic

import (
	"slices"
	"strings"

	"github.com/spendiq/spendiq/internal/model"
)

// Match returns the target of the first active rule, by descending priority,
// whose conditions all hold for mc. Rules with equal priority keep their
// input order. A rule without conditions never matches.
func Match(rules []model.AutoAnalyticalRule, mc model.MatchContext) (string, bool) {
	ordered := slices.Clone(rules)
	slices.SortStableFunc(ordered, func(a, b model.AutoAnalyticalRule) int {
		return b.Priority - a.Priority
	})

	for _, r := range ordered {
		if r.Active && ruleMatches(r, mc) {
			return r.TargetAccountID, true
		}
	}
	return "", false
}

func ruleMatches(r model.AutoAnalyticalRule, mc model.MatchContext) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for _, c := range r.Conditions {
		if !conditionHolds(c, mc) {
			return false
		}
	}
	return true
}

func conditionHolds(c model.Condition, mc model.MatchContext) bool {
	v := fieldValue(c.Field, mc)
	if v == "" {
		return false
	}
	switch c.Operator {
	case model.OpEquals:
		return v == c.Value
	case model.OpContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(c.Value))
	case model.OpStartsWith:
		return strings.HasPrefix(strings.ToLower(v), strings.ToLower(c.Value))
	}
	return false
}

func fieldValue(f model.ConditionField, mc model.MatchContext) string {
	switch f {
	case model.FieldVendor:
		return mc.VendorID
	case model.FieldProductCategory:
		return mc.ProductCategoryID
	case model.FieldDescription:
		return mc.Description
	case model.FieldAccount:
		return mc.AccountID
	}
	return ""
}

// ValidField reports whether f is a known condition field.
func ValidField(f model.ConditionField) bool {
	switch f {
	case model.FieldVendor, model.FieldProductCategory, model.FieldDescription, model.FieldAccount:
		return true
	}
	return false
}

// ValidOperator reports whether op is a known condition operator.
func ValidOperator(op model.ConditionOperator) bool {
	switch op {
	case model.OpEquals, model.OpContains, model.OpStartsWith:
		return true
	}
	return false
}
