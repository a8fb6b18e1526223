package model

// ConditionField names the match-context attribute a condition inspects.
type ConditionField string

const (
	FieldVendor          ConditionField = "VENDOR"
	FieldProductCategory ConditionField = "PRODUCT_CATEGORY"
	FieldDescription     ConditionField = "DESCRIPTION"
	FieldAccount         ConditionField = "ACCOUNT"
)

// ConditionOperator is the comparison applied to a condition value.
type ConditionOperator string

const (
	OpEquals     ConditionOperator = "EQUALS"
	OpContains   ConditionOperator = "CONTAINS"
	OpStartsWith ConditionOperator = "STARTS_WITH"
)

// Condition is one clause of an auto-analytical rule.
type Condition struct {
	ID       string
	Field    ConditionField
	Operator ConditionOperator
	Value    string
}

// AutoAnalyticalRule assigns TargetAccountID to lines matching all of its
// conditions. Higher Priority is evaluated first.
type AutoAnalyticalRule struct {
	ID              string
	Name            string
	Priority        int
	Active          bool
	TargetAccountID string
	Conditions      []Condition
}

// MatchContext carries the attributes of a line being classified. Empty
// strings mean the attribute is absent.
type MatchContext struct {
	VendorID          string
	ProductCategoryID string
	Description       string
	AccountID         string
}
