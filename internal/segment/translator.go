// internal/segment/translator.go
package segment

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/engagecrm/engage-backend/internal/apperrors"
)

// Predicate is a translated rule group: a parameterized SQL fragment over the
// customers table plus its arguments. Empty means "no rules"; callers treat
// that as an empty audience rather than an unrestricted query.
type Predicate struct {
	Where string
	Args  []interface{}
	Empty bool
}

// Translator converts rule groups into Predicates. The clock is injectable so
// lastActive cutoffs are deterministic under test.
type Translator struct {
	Now func() time.Time
}

func NewTranslator() *Translator {
	return &Translator{Now: time.Now}
}

// Translate builds a Predicate from one flat rule group. Placeholders start
// at $1; callers appending further conditions must renumber accordingly.
//
// lastActive rules are inactivity-only: the value is a number of days and the
// comparison is always last_active < now - value days, regardless of the
// operator the client sent. This mirrors the rule builder UI, where the
// lastActive input is labeled "days inactive" and the operator is ignored.
func (t *Translator) Translate(group RuleGroup) (Predicate, error) {
	if len(group.Rules) == 0 {
		return Predicate{Empty: true}, nil
	}

	combinator := group.Combinator
	if combinator == "" {
		combinator = CombinatorAnd
	}
	if combinator != CombinatorAnd && combinator != CombinatorOr {
		return Predicate{}, apperrors.NewValidation(fmt.Sprintf("unknown combinator %q", group.Combinator))
	}

	parts := make([]string, 0, len(group.Rules))
	args := make([]interface{}, 0, len(group.Rules))

	for i, rule := range group.Rules {
		column, ok := columnFor[rule.Field]
		if !ok {
			return Predicate{}, apperrors.NewRuleValidation(i, fmt.Sprintf("unknown field %q", rule.Field))
		}

		op, ok := normalizeOperator[rule.Operator]
		if !ok {
			return Predicate{}, apperrors.NewRuleValidation(i, fmt.Sprintf("unknown operator %q", rule.Operator))
		}

		if rule.Field == FieldLastActive {
			days, err := strconv.ParseFloat(strings.TrimSpace(rule.Value), 64)
			if err != nil {
				return Predicate{}, apperrors.NewRuleValidation(i, fmt.Sprintf("value %q is not a number of days", rule.Value))
			}
			cutoff := t.Now().Add(-time.Duration(days * 24 * float64(time.Hour)))
			args = append(args, cutoff)
			parts = append(parts, fmt.Sprintf("%s < $%d", column, len(args)))
			continue
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(rule.Value), 64)
		if err != nil {
			return Predicate{}, apperrors.NewRuleValidation(i, fmt.Sprintf("value %q is not numeric", rule.Value))
		}
		args = append(args, value)
		parts = append(parts, fmt.Sprintf("%s %s $%d", column, op, len(args)))
	}

	joiner := " AND "
	if combinator == CombinatorOr {
		joiner = " OR "
	}

	return Predicate{
		Where: "(" + strings.Join(parts, joiner) + ")",
		Args:  args,
	}, nil
}
