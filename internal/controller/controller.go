// Package controller drives the plant form and the plant list. It validates
// user input, calls the plant store, and after every successful change
// refetches the whole list instead of patching it locally.
package controller

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mgmu/planttracker/internal/plants"
	"github.com/mgmu/planttracker/internal/storeclient"
)

// Messages shown to the user.
const (
	LoadFailedMessage    = "Failed to load plants"
	DuplicateNameMessage = "A plant with this name already exists. Please choose a different name."
	AddFailedMessage     = "Failed to add plant"
	UpdateFailedMessage  = "Failed to update plant"
	DeleteFailedMessage  = "Failed to delete plant"
	UnreachableMessage   = "Unable to reach the plant store"
	AddedMessage         = "Plant added successfully"
	UpdatedMessage       = "Plant updated successfully"
	DeletedMessage       = "Plant deleted successfully"
)

// Store is the plant store as seen by the controller. *storeclient.Client
// implements it.
type Store interface {
	List(ctx context.Context) ([]plants.Plant, error)
	Create(ctx context.Context, d plants.Draft) (*plants.Plant, error)
	UpdateByID(ctx context.Context, id int64, d plants.Draft) (*plants.Plant, error)
	UpdateByName(ctx context.Context, name string, d plants.Draft) (*plants.Plant, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteByName(ctx context.Context, name string) error
}

// Controller runs the form and list operations against a Store. It holds no
// per-user state; every operation works on the Session it is given.
type Controller struct {
	store  Store
	logger *slog.Logger
}

// New returns a controller backed by store. A nil logger uses slog.Default().
func New(store Store, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{store: store, logger: logger}
}

// LoadList replaces the session's list with the store's current list. On
// failure the previous list is kept and an error message is set. It reports
// whether the fetch succeeded.
func (c *Controller) LoadList(ctx context.Context, s *Session) bool {
	release := s.acquireLoading()
	defer release()

	s.mu.Lock()
	s.errMsg = ""
	s.loadGen++
	gen := s.loadGen
	s.mu.Unlock()

	list, err := c.store.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		c.logger.Debug("discarding stale plant list", "generation", gen, "latest", s.loadGen)
		return err == nil
	}
	if err != nil {
		c.logger.Error("failed to load plants", "err", err)
		s.setError(LoadFailedMessage)
		return false
	}
	s.plants = list
	s.clearMessages()
	return true
}

// Submit validates d and then creates a plant (add mode) or updates the plant
// being edited (edit mode). After a successful change the list is reloaded,
// the draft goes back to add mode and a success message is set. On any
// failure the draft keeps what the user typed.
func (c *Controller) Submit(ctx context.Context, s *Session, d plants.Draft) {
	if !s.begin() {
		c.logger.Warn("submit ignored, another operation is running")
		return
	}
	defer s.end()

	s.mu.Lock()
	s.draft = d
	var editing *plants.Plant
	if s.editing != nil {
		e := *s.editing
		editing = &e
	}
	s.mu.Unlock()

	valid, err := d.Validate()
	if err != nil {
		s.mu.Lock()
		s.setError(err.Error())
		s.mu.Unlock()
		return
	}

	release := s.acquireLoading()
	defer release()
	s.mu.Lock()
	s.clearMessages()
	s.mu.Unlock()

	var done string
	if editing != nil {
		err = c.update(ctx, *editing, valid)
		done = UpdatedMessage
	} else {
		err = c.create(ctx, valid)
		done = AddedMessage
	}
	if err != nil {
		s.mu.Lock()
		s.setError(c.failureMessage(err, editing != nil))
		s.mu.Unlock()
		return
	}

	ok := c.LoadList(ctx, s)

	s.mu.Lock()
	s.resetDraft()
	if ok {
		s.setSuccess(done)
	}
	s.mu.Unlock()
}

func (c *Controller) create(ctx context.Context, d plants.Draft) error {
	p, err := c.store.Create(ctx, d)
	if err != nil {
		c.logger.Warn("create plant failed", "name", d.Name, "err", err)
		return err
	}
	if p == nil {
		// Accepted without a plant: the store rejected it silently.
		c.logger.Warn("create plant returned nothing", "name", d.Name)
		return &storeclient.DuplicateNameError{Name: d.Name}
	}
	c.logger.Info("plant added", "id", p.ID, "name", p.Name)
	return nil
}

func (c *Controller) update(ctx context.Context, target plants.Plant, d plants.Draft) error {
	if !target.Addressable() {
		return errUnaddressable
	}
	addr := target.Address()
	var err error
	switch addr.Kind() {
	case plants.AddressByID:
		_, err = c.store.UpdateByID(ctx, addr.ID(), d)
	case plants.AddressByName:
		_, err = c.store.UpdateByName(ctx, addr.Name(), d)
	}
	if err != nil {
		c.logger.Warn("update plant failed", "address", addr, "err", err)
		return err
	}
	c.logger.Info("plant updated", "address", addr, "name", d.Name)
	return nil
}

var errUnaddressable = errors.New("controller: plant has neither identifier nor name")

// StartEdit switches the session to edit mode for p and fills the draft with
// its fields. No store call is made.
func (c *Controller) StartEdit(s *Session, p plants.Plant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = p.Draft()
	s.editing = &p
	s.clearMessages()
}

// CancelEdit leaves edit mode, discarding the draft. In add mode the draft is
// kept as typed; only the messages are cleared.
func (c *Controller) CancelEdit(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing != nil {
		s.resetDraft()
	}
	s.clearMessages()
}

// Delete removes p from the store, by identifier when it has one and by name
// otherwise, then reloads the list. On failure the list is left as is.
func (c *Controller) Delete(ctx context.Context, s *Session, p plants.Plant) {
	if !s.begin() {
		c.logger.Warn("delete ignored, another operation is running")
		return
	}
	defer s.end()

	release := s.acquireLoading()
	defer release()
	s.mu.Lock()
	s.clearMessages()
	s.mu.Unlock()

	err := errUnaddressable
	addr := p.Address()
	if p.Addressable() {
		switch addr.Kind() {
		case plants.AddressByID:
			err = c.store.DeleteByID(ctx, addr.ID())
		case plants.AddressByName:
			err = c.store.DeleteByName(ctx, addr.Name())
		}
	}
	if err != nil {
		c.logger.Warn("delete plant failed", "address", addr, "err", err)
		msg := DeleteFailedMessage
		var nerr *storeclient.NetworkError
		if errors.As(err, &nerr) {
			msg = UnreachableMessage
		}
		s.mu.Lock()
		s.setError(msg)
		s.mu.Unlock()
		return
	}
	c.logger.Info("plant deleted", "address", addr)

	ok := c.LoadList(ctx, s)

	s.mu.Lock()
	if s.editing != nil && sameRecord(*s.editing, p) {
		s.resetDraft()
	}
	if ok {
		s.setSuccess(DeletedMessage)
	}
	s.mu.Unlock()
}

// failureMessage maps a create or update failure to the text shown to the
// user.
func (c *Controller) failureMessage(err error, updating bool) string {
	var (
		dup  *storeclient.DuplicateNameError
		cerr *storeclient.CreateError
		uerr *storeclient.UpdateError
		nerr *storeclient.NetworkError
	)
	switch {
	case errors.As(err, &dup):
		return DuplicateNameMessage
	case errors.As(err, &nerr):
		return UnreachableMessage
	case errors.As(err, &uerr):
		if uerr.NameTaken() {
			return DuplicateNameMessage
		}
		if uerr.Message != "" {
			return uerr.Message
		}
	case errors.As(err, &cerr):
		if cerr.Message != "" {
			return cerr.Message
		}
	}
	if updating {
		return UpdateFailedMessage
	}
	return AddFailedMessage
}

func sameRecord(a, b plants.Plant) bool {
	if a.HasID() && b.HasID() {
		return a.ID == b.ID
	}
	return a.Name == b.Name
}
