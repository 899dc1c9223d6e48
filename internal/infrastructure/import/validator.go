package csvimport

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldRule describes the checks applied to one column
type FieldRule struct {
	Column    string
	Required  bool
	MaxLength int // in runes
	Decimal   bool
	MinValue  *decimal.Decimal
	MaxValue  *decimal.Decimal
	Unique    bool // within the file
}

// FieldRuleBuilder builds a FieldRule fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a rule for column
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column}}
}

// Required rejects blank cells
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// MaxLength caps the cell length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Decimal requires a number
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Decimal = true
	return b
}

// Range requires a number within [min, max]
func (b *FieldRuleBuilder) Range(min, max decimal.Decimal) *FieldRuleBuilder {
	b.rule.Decimal = true
	b.rule.MinValue = &min
	b.rule.MaxValue = &max
	return b
}

// Unique rejects a value already seen in an earlier row
func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder {
	b.rule.Unique = true
	return b
}

// Build returns the rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// Validator applies rules to successive rows of one file. It is not safe
// for concurrent use.
type Validator struct {
	rules []FieldRule
	seen  map[string]map[string]int // column -> value -> first row
}

// NewValidator creates a validator; rules run in the given order
func NewValidator(rules ...FieldRule) *Validator {
	return &Validator{rules: rules, seen: make(map[string]map[string]int)}
}

// ValidateRow returns every rule violation in row
func (v *Validator) ValidateRow(row *Row) []RowError {
	var errs []RowError
	for _, rule := range v.rules {
		if e := v.check(rule, row); e != nil {
			errs = append(errs, *e)
		}
	}
	return errs
}

func (v *Validator) check(rule FieldRule, row *Row) *RowError {
	value := row.Get(rule.Column)
	if value == "" {
		if rule.Required {
			return NewRowError(row.Line, rule.Column, CodeRequired, "value is required")
		}
		return nil
	}

	if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
		e := NewRowError(row.Line, rule.Column, CodeTooLong,
			fmt.Sprintf("must be at most %d characters", rule.MaxLength))
		e.Value = value
		return e
	}

	if rule.Decimal {
		d, err := decimal.NewFromString(value)
		if err != nil {
			e := NewRowError(row.Line, rule.Column, CodeInvalidNumber, "must be a number")
			e.Value = value
			return e
		}
		if (rule.MinValue != nil && d.LessThan(*rule.MinValue)) || (rule.MaxValue != nil && d.GreaterThan(*rule.MaxValue)) {
			e := NewRowError(row.Line, rule.Column, CodeOutOfRange, rangeMessage(rule))
			e.Value = value
			return e
		}
	}

	if rule.Unique {
		if v.seen[rule.Column] == nil {
			v.seen[rule.Column] = make(map[string]int)
		}
		if first, ok := v.seen[rule.Column][value]; ok {
			e := NewRowError(row.Line, rule.Column, CodeDuplicate,
				fmt.Sprintf("duplicate value (first seen in row %d)", first))
			e.Value = value
			return e
		}
		v.seen[rule.Column][value] = row.Line
	}
	return nil
}

func rangeMessage(rule FieldRule) string {
	switch {
	case rule.MinValue != nil && rule.MaxValue != nil:
		return fmt.Sprintf("must be between %s and %s", rule.MinValue, rule.MaxValue)
	case rule.MinValue != nil:
		return fmt.Sprintf("must be at least %s", rule.MinValue)
	default:
		return fmt.Sprintf("must be at most %s", rule.MaxValue)
	}
}
