package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors for provider operations.
var (
	// ErrUnsupported indicates the request uses a feature or ordering the
	// provider cannot express.
	ErrUnsupported = errors.New("unsupported functionality")

	// ErrInvalidArgument indicates a malformed call option or prompt part.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTooManyValues indicates an embedding call exceeded the per-call cap.
	ErrTooManyValues = errors.New("too many values for a single embedding call")

	// ErrLoadAPIKey indicates no API key was configured or found in the environment.
	ErrLoadAPIKey = errors.New("api key not found")

	// ErrSchemaValidation indicates a response body did not have the expected shape.
	ErrSchemaValidation = errors.New("response failed schema validation")

	// ErrAPICall indicates the provider rejected the call.
	ErrAPICall = errors.New("provider api call failed")

	// ErrRateLimit indicates the provider returned a rate limit response.
	ErrRateLimit = errors.New("provider rate limited")

	// ErrAuthentication indicates the provider rejected the credentials.
	ErrAuthentication = errors.New("provider authentication failed")

	// ErrProviderDown indicates the provider is temporarily unavailable.
	ErrProviderDown = errors.New("provider unavailable")

	// ErrResponseTooLarge indicates a response body exceeded the read limit.
	ErrResponseTooLarge = errors.New("provider response too large")
)

// APIError is returned when the provider answers with a non-2xx status or
// an error-shaped body.
type APIError struct {
	StatusCode   int
	Code         *int
	Message      string
	Status       string
	URL          string
	ResponseBody string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("api error (HTTP %d, %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("api error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Unwrap classifies the error by status code so callers can use errors.Is
// with ErrRateLimit, ErrAuthentication, ErrProviderDown or ErrAPICall.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == 429:
		return ErrRateLimit
	case e.StatusCode == 401 || e.StatusCode == 403:
		return ErrAuthentication
	case e.StatusCode >= 500:
		return ErrProviderDown
	default:
		return ErrAPICall
	}
}

// TooManyValuesError is returned by EmbeddingModel.Embed when more values
// are passed than the model accepts in one call.
type TooManyValuesError struct {
	Provider             string
	ModelID              string
	MaxEmbeddingsPerCall int
	Values               int
}

func (e *TooManyValuesError) Error() string {
	return fmt.Sprintf("too many values for a single embedding call: %s model %q can only embed up to %d values per call, but %d values were provided",
		e.Provider, e.ModelID, e.MaxEmbeddingsPerCall, e.Values)
}

// Is reports whether target is ErrTooManyValues.
func (e *TooManyValuesError) Is(target error) bool {
	return target == ErrTooManyValues
}

// SchemaValidationError is returned when a response body cannot be decoded
// into the expected shape.
type SchemaValidationError struct {
	// Value is a short excerpt of the offending body.
	Value string
	Cause error
}

func (e *SchemaValidationError) Error() string {
	if e.Cause == nil {
		return ErrSchemaValidation.Error()
	}
	return fmt.Sprintf("%s: %v", ErrSchemaValidation, e.Cause)
}

// Is reports whether target is ErrSchemaValidation.
func (e *SchemaValidationError) Is(target error) bool {
	return target == ErrSchemaValidation
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the error is transient. Nothing in this
// module retries; callers use this to decide for themselves.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrProviderDown)
}
