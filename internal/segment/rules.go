// internal/segment/rules.go
package segment

// Rule is a single (field, operator, value) condition over the customer
// store. Value is always carried as a raw string; the translator parses it
// according to the field.
type Rule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// RuleGroup is one flat list of rules under one combinator. No nesting.
type RuleGroup struct {
	Rules      []Rule `json:"rules"`
	Combinator string `json:"combinator"`
}

const (
	CombinatorAnd = "AND"
	CombinatorOr  = "OR"
)

// Segment rule fields exposed to the rule builder.
const (
	FieldTotalSpend = "totalSpend"
	FieldVisits     = "visits"
	FieldLastActive = "lastActive"
)

// columnFor maps rule fields to customer columns.
var columnFor = map[string]string{
	FieldTotalSpend: "total_spend",
	FieldVisits:     "visits",
	FieldLastActive: "last_active",
}

// normalizeOperator accepts both plain comparison operators and the
// Mongo-style aliases the web rule builder emits.
var normalizeOperator = map[string]string{
	">":    ">",
	"<":    "<",
	"=":    "=",
	">=":   ">=",
	"<=":   "<=",
	"$gt":  ">",
	"$lt":  "<",
	"$eq":  "=",
	"$gte": ">=",
	"$lte": "<=",
}
