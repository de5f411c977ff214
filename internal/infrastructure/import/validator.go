package csvimport

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldType represents the expected type of a column
type FieldType string

const (
	TypeText   FieldType = "text"
	TypeAmount FieldType = "amount"
	TypeDate   FieldType = "date"
)

// FieldRule defines validation rules for a column
type FieldRule struct {
	Column    string
	Type      FieldType
	Required  bool
	MaxLength int
	MinValue  *decimal.Decimal
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new field rule builder for a text column
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeText}}
}

// Required marks the column as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Amount sets the column type to a decimal amount in either locale
func (b *FieldRuleBuilder) Amount() *FieldRuleBuilder {
	b.rule.Type = TypeAmount
	return b
}

// Date sets the column type to a flexible date
func (b *FieldRuleBuilder) Date() *FieldRuleBuilder {
	b.rule.Type = TypeDate
	return b
}

// MaxLength sets the maximum length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// NonNegative rejects amounts below zero
func (b *FieldRuleBuilder) NonNegative() *FieldRuleBuilder {
	zero := decimal.Zero
	b.rule.MinValue = &zero
	return b
}

// Build returns the built field rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator checks the shape of each column before a row is mapped
type FieldValidator struct {
	rules  []FieldRule
	errors *RowErrors
}

// NewFieldValidator creates a validator that reports into errs
func NewFieldValidator(rules []FieldRule, errs *RowErrors) *FieldValidator {
	return &FieldValidator{rules: rules, errors: errs}
}

// ValidateRow checks every rule and reports whether the row passed all of them
func (v *FieldValidator) ValidateRow(row *Row) bool {
	ok := true
	for _, rule := range v.rules {
		value := row.Get(rule.Column)
		if value == "" {
			if rule.Required {
				v.errors.Required(row.LineNumber, rule.Column)
				ok = false
			}
			continue
		}

		switch rule.Type {
		case TypeAmount:
			d, err := ParseDecimal(value)
			if err != nil {
				v.errors.BadFormat(row.LineNumber, rule.Column, "an amount such as 1.234,56", value)
				ok = false
				continue
			}
			if rule.MinValue != nil && d.LessThan(*rule.MinValue) {
				v.errors.Add(RowError{Row: row.LineNumber, Column: rule.Column, Code: CodeInvalidRange,
					Message: fmt.Sprintf("value must be at least %s", rule.MinValue.String()), Value: value})
				ok = false
			}
		case TypeDate:
			if _, err := ParseFlexibleDate(value); err != nil {
				v.errors.BadFormat(row.LineNumber, rule.Column, "a date as YYYY-MM-DD, DD/MM/YYYY or a spreadsheet serial", value)
				ok = false
			}
		}

		if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
			v.errors.Add(RowError{Row: row.LineNumber, Column: rule.Column, Code: CodeInvalidLength,
				Message: fmt.Sprintf("length must be at most %d", rule.MaxLength)})
			ok = false
		}
	}
	return ok
}
