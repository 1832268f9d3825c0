// Package flags provides reusable command-line flag values.
package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefixConstant  = "<"
	choicePlaceholderSuffixConstant  = ">"
	choiceSeparatorLiteralConstant   = "|"
	choiceUsageEmptyTemplateConstant = "`%s`"
	choiceUsageFullTemplateConstant  = "`%s` %s"
	choiceTypeNameConstant           = "choice"
	invalidChoiceTemplateConstant    = "invalid value %q (expected one of %s)"
	allowedChoicesSeparatorConstant  = ", "
)

// InvalidChoiceError reports a flag value outside the allowed set.
type InvalidChoiceError struct {
	Value   string
	Choices []string
}

// Error describes the rejected value and the accepted options.
func (invalidChoiceError InvalidChoiceError) Error() string {
	return fmt.Sprintf(invalidChoiceTemplateConstant, invalidChoiceError.Value, strings.Join(invalidChoiceError.Choices, allowedChoicesSeparatorConstant))
}

// ChoiceValue is a pflag.Value restricted to a fixed, case-insensitive set of options.
type ChoiceValue struct {
	target  *string
	choices []string
}

// NewChoiceValue binds target to a choice flag seeded with defaultChoice.
func NewChoiceValue(target *string, defaultChoice string, choices []string) *ChoiceValue {
	*target = strings.TrimSpace(defaultChoice)
	return &ChoiceValue{target: target, choices: normalizeChoices(choices)}
}

// String returns the current selection.
func (value *ChoiceValue) String() string {
	if value == nil || value.target == nil {
		return ""
	}
	return *value.target
}

// Set validates and stores the selection in its canonical lower-case form.
func (value *ChoiceValue) Set(candidate string) error {
	normalizedCandidate := strings.ToLower(strings.TrimSpace(candidate))
	for _, choice := range value.choices {
		if choice == normalizedCandidate {
			*value.target = choice
			return nil
		}
	}
	return InvalidChoiceError{Value: candidate, Choices: value.choices}
}

// Type names the flag type in help output.
func (value *ChoiceValue) Type() string {
	return choiceTypeNameConstant
}

// AddChoiceFlag registers a validated choice flag whose usage highlights the default.
func AddChoiceFlag(flagSet *pflag.FlagSet, target *string, name string, defaultChoice string, choices []string, description string) {
	if flagSet == nil || target == nil {
		return
	}
	flagSet.Var(NewChoiceValue(target, defaultChoice, choices), name, FormatChoiceUsage(defaultChoice, choices, description))
}

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := buildChoicePlaceholder(defaultChoice, choices)
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplateConstant, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplateConstant, placeholder, description)
}

func normalizeChoices(choices []string) []string {
	normalized := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		normalizedChoice := strings.ToLower(strings.TrimSpace(choice))
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}
		normalized = append(normalized, normalizedChoice)
	}
	return normalized
}

func buildChoicePlaceholder(defaultChoice string, choices []string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	normalizedChoices := normalizeChoices(choices)
	highlighted := make([]string, 0, len(normalizedChoices))
	for _, choice := range normalizedChoices {
		if choice == normalizedDefault {
			choice = strings.ToUpper(choice)
		}
		highlighted = append(highlighted, choice)
	}
	return choicePlaceholderPrefixConstant + strings.Join(highlighted, choiceSeparatorLiteralConstant) + choicePlaceholderSuffixConstant
}
