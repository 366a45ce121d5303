package controller

import (
	"slices"
	"sync"

	"github.com/mgmu/planttracker/internal/plants"
)

// Status is the user-facing state of a session. Error and Success are never
// both set.
type Status struct {
	Loading bool
	Error   string
	Success string
}

// Session is the state driven by the Controller for one user: the local plant
// list, the form draft, the plant being edited and the status messages.
// The mutex guards the fields only; it is never held across a store call.
type Session struct {
	mu sync.Mutex

	plants  []plants.Plant
	draft   plants.Draft
	editing *plants.Plant

	loading int
	errMsg  string
	success string

	// loadGen is bumped on every list request; a response is applied only
	// if no newer request was issued meanwhile.
	loadGen uint64
	// busy is set while a submit or delete runs.
	busy bool
}

// NewSession returns a session in add mode with an empty draft and list.
func NewSession() *Session {
	return &Session{}
}

// View is a copy of a session's state, safe to read without locking.
type View struct {
	Plants  []plants.Plant
	Draft   plants.Draft
	Editing *plants.Plant
	Status  Status
}

// IsEditing reports whether the view is in edit mode.
func (v View) IsEditing() bool {
	return v.Editing != nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		Plants: slices.Clone(s.plants),
		Draft:  s.draft,
		Status: Status{
			Loading: s.loading > 0,
			Error:   s.errMsg,
			Success: s.success,
		},
	}
	if s.editing != nil {
		e := *s.editing
		v.Editing = &e
	}
	return v
}

// acquireLoading marks the session as loading until the returned function is
// called. Acquisitions nest, and calling release more than once is harmless.
func (s *Session) acquireLoading() (release func()) {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.loading--
			s.mu.Unlock()
		})
	}
}

// begin claims the session for a mutating operation. It returns false if
// another one is still running.
func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Session) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// The helpers below expect s.mu to be held.

func (s *Session) setError(msg string) {
	s.errMsg = msg
	s.success = ""
}

func (s *Session) setSuccess(msg string) {
	s.success = msg
	s.errMsg = ""
}

func (s *Session) clearMessages() {
	s.errMsg = ""
	s.success = ""
}

func (s *Session) resetDraft() {
	s.draft = plants.Draft{}
	s.editing = nil
}
