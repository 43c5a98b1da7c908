package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryProvider represents remote ledger API errors
	CategoryProvider ErrorCategory = "provider"
	// CategoryIntegrity represents data-integrity violations in pipeline records
	CategoryIntegrity ErrorCategory = "integrity"
	// CategoryExport represents tabular export errors
	CategoryExport ErrorCategory = "export"
	// CategoryCache represents errors reading a cached artifact
	CategoryCache ErrorCategory = "cache"
	// CategoryValidation represents invalid input parameters
	CategoryValidation ErrorCategory = "validation"
	// CategorySystem represents everything else
	CategorySystem ErrorCategory = "system"
)

// CategorizedError represents an error with a category and a stable code.
// StatusCode holds the upstream HTTP status for provider errors and is zero otherwise.
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// Provider Errors

// NewProviderStatusError creates an error for a non-success HTTP response
func NewProviderStatusError(endpoint string, statusCode int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: statusCode,
		Code:       "PROVIDER_STATUS",
		Message:    fmt.Sprintf("unexpected HTTP status %d from %s", statusCode, endpoint),
		Details: map[string]interface{}{
			"endpoint":   endpoint,
			"statusCode": statusCode,
		},
	}
}

// NewProviderResponseError creates an error for a response missing a required key
func NewProviderResponseError(endpoint string, key string) *CategorizedError {
	return &CategorizedError{
		Category: CategoryProvider,
		Code:     "PROVIDER_RESPONSE",
		Message:  fmt.Sprintf("response from %s is missing key '%s'", endpoint, key),
		Details: map[string]interface{}{
			"endpoint": endpoint,
			"key":      key,
		},
	}
}

// Integrity Errors

// NewNoRewardActivityError creates an error for an account without reward activity
func NewNoRewardActivityError(account string) *CategorizedError {
	return &CategorizedError{
		Category: CategoryIntegrity,
		Code:     "NO_REWARD_ACTIVITY",
		Message:  fmt.Sprintf("no reward activity found for account %s", account),
		Details: map[string]interface{}{
			"account": account,
		},
	}
}

// NewMissingUSDTotalError creates an error for a block lacking its usd_total value
func NewMissingUSDTotalError(height int64) *CategorizedError {
	return &CategorizedError{
		Category: CategoryIntegrity,
		Code:     "MISSING_USD_TOTAL",
		Message:  fmt.Sprintf("block %d is lacking a usd_total value, this is a required key", height),
		Details: map[string]interface{}{
			"height": height,
		},
	}
}

// NewRewardTotalNotCompiledError creates an error for a block priced before aggregation
func NewRewardTotalNotCompiledError(height int64) *CategorizedError {
	return &CategorizedError{
		Category: CategoryIntegrity,
		Code:     "REWARD_TOTAL_NOT_COMPILED",
		Message:  fmt.Sprintf("block %d has no reward_total, compile rewards before pricing", height),
		Details: map[string]interface{}{
			"height": height,
		},
	}
}

// Export and Cache Errors

// NewEmptyExportError creates an error for an export with no records
func NewEmptyExportError(path string) *CategorizedError {
	return &CategorizedError{
		Category: CategoryExport,
		Code:     "EMPTY_EXPORT",
		Message:  fmt.Sprintf("refusing to export zero records to %s", path),
		Details: map[string]interface{}{
			"path": path,
		},
	}
}

// NewCacheParseError creates an error for a malformed cell in a cached artifact
func NewCacheParseError(path string, row int, column string, cause error) *CategorizedError {
	return &CategorizedError{
		Category: CategoryCache,
		Code:     "CACHE_PARSE",
		Message:  fmt.Sprintf("malformed %s value in %s row %d", column, path, row),
		Cause:    cause,
		Details: map[string]interface{}{
			"path":   path,
			"row":    row,
			"column": column,
		},
	}
}

// Validation Errors

// NewInvalidParameterError creates an invalid parameter error
func NewInvalidParameterError(param string, reason string) *CategorizedError {
	return &CategorizedError{
		Category: CategoryValidation,
		Code:     "INVALID_PARAMETER",
		Message:  fmt.Sprintf("invalid parameter '%s': %s", param, reason),
		Details: map[string]interface{}{
			"parameter": param,
			"reason":    reason,
		},
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr
	}

	return &CategorizedError{
		Category: CategorySystem,
		Code:     "INTERNAL_ERROR",
		Message:  "unexpected error",
		Cause:    err,
	}
}

// IsCategory reports whether err carries the given category anywhere in its chain
func IsCategory(err error, category ErrorCategory) bool {
	var catErr *CategorizedError
	if !stderrors.As(err, &catErr) {
		return false
	}
	return catErr.Category == category
}

// IsProviderStatus reports whether err is a non-success HTTP response from the ledger API
func IsProviderStatus(err error) bool {
	var catErr *CategorizedError
	if !stderrors.As(err, &catErr) {
		return false
	}
	return catErr.Code == "PROVIDER_STATUS"
}
