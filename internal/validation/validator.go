// =============================================================================
// Excursion POS - Validation Engine
// =============================================================================
//
// This module checks an operator's quote request before anything is priced
// or written to the ledger.
//
// RULES:
//   - client name       : required, at most MaxNameLength characters
//   - contact           : optional, at most MaxContactLength characters
//   - circuit           : required
//   - party size        : at least 1 (and at most MaxPartySize when set)
//   - margin            : within [0, 100] when given
//   - site visits       : not negative
//
// SEVERITY:
//   Errors block the request. Warnings are informational: add-ons selected on
//   a sea excursion are reported and then ignored by the pricing engine.
//
// ERROR HANDLING:
//   - Errors are collected, not returned on the first failure
//   - ValidationResult.Err() returns them as types.ValidationErrors, which
//     callers match with errors.As
//
// =============================================================================

package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/shopspring/decimal"
)

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no blocking errors.
	IsValid bool

	// Errors contains the blocking errors.
	Errors []*types.ValidationError

	// Warnings contains the non-blocking findings.
	Warnings []*types.ValidationError
}

// Err returns the blocking errors as a single error, or nil.
func (r *ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return types.ValidationErrors(r.Errors)
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks quote requests.
type Validator struct {
	options ValidationOptions
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// StopOnFirstError stops validation after the first blocking error.
	// Default: false
	StopOnFirstError bool

	// TreatWarningsAsErrors makes warnings block the request.
	// Default: false
	TreatWarningsAsErrors bool

	// MaxNameLength bounds the client name, in characters. 0 means no limit.
	// Default: 80
	MaxNameLength int

	// MaxContactLength bounds the contact field, in characters. 0 means no limit.
	// Default: 60
	MaxContactLength int

	// MaxPartySize bounds the party size. 0 means no limit.
	// Default: 0
	MaxPartySize int
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		MaxNameLength:    80,
		MaxContactLength: 60,
	}
}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{options: DefaultValidationOptions()}
}

// NewValidatorWithOptions creates a new Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// ValidateQuote checks every field of a quote request.
//
// PARAMETERS:
//   - req: The request as entered by the operator.
//
// RETURNS:
//   - A ValidationResult listing errors and warnings.
func (v *Validator) ValidateQuote(req types.QuoteRequest) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	checks := []func(types.QuoteRequest) *types.ValidationError{
		v.checkClient,
		v.checkContact,
		checkCircuit,
		v.checkPartySize,
		checkMargin,
		checkSiteVisits,
	}
	for _, check := range checks {
		if err := check(req); err != nil {
			result.Errors = append(result.Errors, err)
			result.IsValid = false
			if v.options.StopOnFirstError {
				return result
			}
		}
	}

	if req.Category == types.Sea && (req.Meal || req.Guide || req.SiteVisits > 0) {
		result.Warnings = append(result.Warnings, &types.ValidationError{
			Field:   "addons",
			Value:   addonText(req),
			Rule:    "category",
			Message: "add-ons are not offered on sea excursions and will be ignored",
		})
		if v.options.TreatWarningsAsErrors {
			result.Errors = append(result.Errors, result.Warnings...)
			result.IsValid = false
		}
	}

	return result
}

// ValidateQuote checks a request with the default options and returns the
// blocking errors, or nil.
func ValidateQuote(req types.QuoteRequest) error {
	return NewValidator().ValidateQuote(req).Err()
}

// =============================================================================
// FIELD CHECKS
// =============================================================================

func (v *Validator) checkClient(req types.QuoteRequest) *types.ValidationError {
	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		return &types.ValidationError{Field: "client", Value: req.ClientName, Rule: "required", Message: "client name is required"}
	}
	return checkLength("client", name, v.options.MaxNameLength)
}

func (v *Validator) checkContact(req types.QuoteRequest) *types.ValidationError {
	return checkLength("contact", strings.TrimSpace(req.Contact), v.options.MaxContactLength)
}

func checkCircuit(req types.QuoteRequest) *types.ValidationError {
	if strings.TrimSpace(req.Circuit) == "" {
		return &types.ValidationError{Field: "circuit", Rule: "required", Message: "circuit is required"}
	}
	return nil
}

func (v *Validator) checkPartySize(req types.QuoteRequest) *types.ValidationError {
	if req.PartySize < 1 {
		return &types.ValidationError{Field: "party_size", Value: strconv.Itoa(req.PartySize), Rule: "min", Message: "party size must be at least 1"}
	}
	if limit := v.options.MaxPartySize; limit > 0 && req.PartySize > limit {
		return &types.ValidationError{Field: "party_size", Value: strconv.Itoa(req.PartySize), Rule: "max", Message: fmt.Sprintf("party size cannot exceed %d", limit)}
	}
	return nil
}

func checkMargin(req types.QuoteRequest) *types.ValidationError {
	if req.MarginPercent == nil {
		return nil
	}
	m := *req.MarginPercent
	if m.IsNegative() || m.GreaterThan(decimal.NewFromInt(100)) {
		return &types.ValidationError{Field: "margin", Value: m.String(), Rule: "range", Message: "margin must be within [0, 100]"}
	}
	return nil
}

func checkSiteVisits(req types.QuoteRequest) *types.ValidationError {
	if req.SiteVisits < 0 {
		return &types.ValidationError{Field: "site_visits", Value: strconv.Itoa(req.SiteVisits), Rule: "min", Message: "number of sites cannot be negative"}
	}
	return nil
}

func checkLength(field, value string, limit int) *types.ValidationError {
	if n := utf8.RuneCountInString(value); limit > 0 && n > limit {
		return &types.ValidationError{
			Field:   field,
			Value:   value,
			Rule:    "max_length",
			Message: fmt.Sprintf("value exceeds maximum length of %d characters (actual: %d)", limit, n),
		}
	}
	return nil
}

func addonText(req types.QuoteRequest) string {
	var parts []string
	if req.Meal {
		parts = append(parts, "meal")
	}
	if req.Guide {
		parts = append(parts, "guide")
	}
	if req.SiteVisits > 0 {
		parts = append(parts, fmt.Sprintf("%d site(s)", req.SiteVisits))
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// REPORTING
// =============================================================================

// FormatErrors formats validation errors for display.
//
// PARAMETERS:
//   - errors: The validation errors to format.
//
// RETURNS:
//   - A numbered list, one error per line.
func FormatErrors(errors []*types.ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation failed with %d error(s):\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
