// Package errors provides structured error handling for storyseek.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Validation errors (caller input)
//   - 3XX: Provider errors (embedding / summarization)
//   - 4XX: Store errors (index / database)
//   - 5XX: Ingestion item errors
//   - 9XX: Internal errors
package errors

// Category classifies errors by the subsystem that produced them.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryValidation indicates caller input errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryProvider indicates embedding or summarization provider errors.
	CategoryProvider Category = "PROVIDER"
	// CategoryStore indicates search index or database errors.
	CategoryStore Category = "STORE"
	// CategoryIngest indicates per-entry ingestion errors.
	CategoryIngest Category = "INGEST"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Configuration error codes (1XX).
const (
	ErrCodeConfigInvalid  = "ERR_101_CONFIG_INVALID"
	ErrCodeConfigNotFound = "ERR_102_CONFIG_NOT_FOUND"
)

// Validation error codes (2XX).
const (
	ErrCodeInvalidQuery = "ERR_201_INVALID_QUERY"
	ErrCodeInvalidMode  = "ERR_202_INVALID_MODE"
	ErrCodeInvalidInput = "ERR_203_INVALID_INPUT"
)

// Provider error codes (3XX).
const (
	ErrCodeProviderUnreachable = "ERR_301_PROVIDER_UNREACHABLE"
	ErrCodeEmptyEmbedding      = "ERR_302_EMPTY_EMBEDDING"
	ErrCodeModelNotLoaded      = "ERR_303_MODEL_NOT_LOADED"
	ErrCodeEmptySummary        = "ERR_304_EMPTY_SUMMARY"
)

// Store error codes (4XX).
const (
	ErrCodeStoreQuery       = "ERR_401_STORE_QUERY"
	ErrCodeStoreUnavailable = "ERR_402_STORE_UNAVAILABLE"
	ErrCodeStoreWrite       = "ERR_403_STORE_WRITE"
)

// Ingestion item error codes (5XX).
const (
	ErrCodeSourceMissing    = "ERR_501_SOURCE_MISSING"
	ErrCodeSourceUnreadable = "ERR_502_SOURCE_UNREADABLE"
	ErrCodeManifestInvalid  = "ERR_503_MANIFEST_INVALID"
	ErrCodeDuplicateTitle   = "ERR_504_DUPLICATE_TITLE"
)

// Internal error codes (9XX).
const (
	ErrCodeInternal = "ERR_901_INTERNAL"
)

// categoryFromCode derives the error category from its numeric range.
func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryValidation
	case '3':
		return CategoryProvider
	case '4':
		return CategoryStore
	case '5':
		return CategoryIngest
	default:
		return CategoryInternal
	}
}

// retryableCodes lists codes for transient conditions worth retrying upstream.
// The core never retries these itself; the flag is advisory for callers.
var retryableCodes = map[string]bool{
	ErrCodeProviderUnreachable: true,
	ErrCodeStoreUnavailable:    true,
}

func isRetryableCode(code string) bool {
	return retryableCodes[code]
}
