package storeclient

import (
	"fmt"
	"strings"
)

// Fallback messages used when the store gives no usable detail.
const (
	createFailed = "Failed to add plant"
	updateFailed = "Failed to update plant"
)

// duplicateMarker is the substring the store puts in the detail of a name
// collision.
const duplicateMarker = "already exists"

// NetworkError is returned when no response was received: connection
// refused, DNS failure, timeout or a body that could not be read.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("storeclient: %s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// FetchError is returned by List when the store answers with a non-2xx status
// or with a body that is not a plant list.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storeclient: list plants (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("storeclient: list plants: HTTP error status %d", e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CreateError is returned by Create on a non-2xx response. Message holds the
// store's detail or a generic message.
type CreateError struct {
	StatusCode int
	Message    string
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("storeclient: create plant (status %d): %s", e.StatusCode, e.Message)
}

// DuplicateNameError is a CreateError caused by a name collision. It is also
// used when the store accepts the request but returns no plant.
type DuplicateNameError struct {
	CreateError
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("storeclient: create plant %q: name already exists", e.Name)
}

// Unwrap exposes the embedded CreateError to errors.As.
func (e *DuplicateNameError) Unwrap() error { return &e.CreateError }

// UpdateError is returned by both update variants on a non-2xx response.
type UpdateError struct {
	StatusCode int
	Message    string
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("storeclient: update plant (status %d): %s", e.StatusCode, e.Message)
}

// NameTaken reports whether the update was refused because another plant
// already has the requested name.
func (e *UpdateError) NameTaken() bool {
	return isDuplicateDetail(e.Message)
}

// DeleteError is returned by both delete variants on a non-2xx response. The
// store's body is not read.
type DeleteError struct {
	StatusCode int
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("storeclient: delete plant: status %d", e.StatusCode)
}

func isDuplicateDetail(detail string) bool {
	return strings.Contains(strings.ToLower(detail), duplicateMarker)
}
