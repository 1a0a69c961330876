package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrWrongStep       = errors.New("action not allowed at this step")
	ErrBusy            = errors.New("action already in progress")
	ErrNoHotels        = errors.New("no hotels found for this location")
	ErrNoAvailability  = errors.New("no availability for the selected dates")
	ErrUnknownHotel    = errors.New("hotel is not in the search results")
	ErrUnknownRoom     = errors.New("room type is not available at this hotel")
	ErrNoRatePlan      = errors.New("room type has no rate plan for these dates")
	ErrRateExpired     = errors.New("rate plan is no longer available, search again")
	ErrRateChanged     = errors.New("rate plan changed, review the new price and submit again")
	ErrMissingProvider = errors.New("booking provider is nil")
	ErrKeyReused       = errors.New("idempotency key already belongs to a different booking")
)

// InputError collects per-field validation failures. It is returned before
// any request is sent.
type InputError struct {
	fields map[string][]string
}

func newInputError() *InputError {
	return &InputError{fields: map[string][]string{}}
}

func (e *InputError) add(field, msg string) {
	e.fields[field] = append(e.fields[field], msg)
}

func (e *InputError) empty() bool {
	return len(e.fields) == 0
}

func (e *InputError) Fields() map[string][]string {
	return e.fields
}

func (e *InputError) Error() string {
	keys := make([]string, 0, len(e.fields))
	for key := range e.fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, strings.Join(e.fields[key], ", ")))
	}
	return strings.Join(parts, "; ")
}

func IsInputError(err error) *InputError {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr
	}
	return nil
}

// FailedError is a booking the server declined (success=false).
type FailedError struct {
	Message string
}

func (e *FailedError) Error() string {
	return e.Message
}
