package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	msgCheckInput   = "Please check your input."
	msgAdded        = "Product added."
	msgUpdated      = "Product updated."
	msgDeleted      = "Product deleted."
	msgSaveFailed   = "Could not save the product."
	msgGone         = "The product being edited no longer exists."
	msgDeleteFailed = "Could not delete the product."
)

type DeskOptions struct {
	Store *Store
	TTL   time.Duration
	Now   func() time.Time
	Log   *zap.Logger
}

// Desk is the state of the single-page product form: the field values, the
// per-field errors, which record is being edited and the last notification.
type Desk struct {
	mu      sync.Mutex
	store   *Store
	form    FormFields
	errors  FieldErrors
	editing int64
	note    *Notification

	ttl time.Duration
	now func() time.Time
	log *zap.Logger
}

type DeskState struct {
	Form         FormFields    `json:"form"`
	Errors       FieldErrors   `json:"errors"`
	EditingID    *int64        `json:"editingId"`
	Notification *Notification `json:"notification,omitempty"`
	Products     []Product     `json:"products"`
}

type SubmitResult struct {
	Product Product
	Errors  FieldErrors
	Updated bool
}

func (r SubmitResult) Accepted() bool { return len(r.Errors) == 0 }

func NewDesk(opts DeskOptions) *Desk {
	if opts.TTL <= 0 {
		opts.TTL = DefaultNotificationTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Desk{
		store:  opts.Store,
		form:   DefaultForm(),
		errors: FieldErrors{},
		ttl:    opts.TTL,
		now:    opts.Now,
		log:    opts.Log,
	}
}

func (d *Desk) State() DeskState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

func (d *Desk) stateLocked() DeskState {
	st := DeskState{
		Form:     d.form,
		Errors:   make(FieldErrors, len(d.errors)),
		Products: d.store.List(),
	}
	for k, v := range d.errors {
		st.Errors[k] = v
	}
	if d.editing != 0 {
		id := d.editing
		st.EditingID = &id
	}
	if d.note != nil {
		if d.note.Expired(d.now()) {
			d.note = nil
		} else {
			n := *d.note
			st.Notification = &n
		}
	}
	return st
}

// SetFields overwrites the given fields and clears their errors.
func (d *Desk) SetFields(patch map[string]json.RawMessage) (DeskState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	touched, err := d.form.Apply(patch)
	if err != nil {
		return DeskState{}, err
	}
	for _, name := range touched {
		delete(d.errors, name)
	}
	return d.stateLocked(), nil
}

func (d *Desk) Edit(id int64) (DeskState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.store.Get(id)
	if !ok {
		return DeskState{}, ErrNotFound
	}
	d.form = FormFromProduct(p)
	d.errors = FieldErrors{}
	d.editing = id
	return d.stateLocked(), nil
}

// Reset clears the form and leaves edit mode.
func (d *Desk) Reset() DeskState {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.resetLocked()
	return d.stateLocked()
}

func (d *Desk) resetLocked() {
	d.form = DefaultForm()
	d.errors = FieldErrors{}
	d.editing = 0
}

func (d *Desk) notifyLocked(msg string, v Variant) {
	d.note = newNotification(msg, v, d.now(), d.ttl)
}

// Submit validates the form and creates or updates a record. A rejected form
// keeps its values and reports the field errors.
func (d *Desk) Submit(ctx context.Context) (SubmitResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, errs, err := d.store.Submit(ctx, d.form, d.editing)
	switch {
	case errors.Is(err, ErrNotFound):
		d.log.Warn("edited product vanished", zap.Int64("id", d.editing))
		d.resetLocked()
		d.notifyLocked(msgGone, VariantDanger)
		return SubmitResult{}, err
	case err != nil:
		d.notifyLocked(msgSaveFailed, VariantDanger)
		return SubmitResult{}, err
	case len(errs) > 0:
		d.errors = errs
		d.notifyLocked(msgCheckInput, VariantDanger)
		return SubmitResult{Errors: errs}, nil
	}

	updated := d.editing != 0
	if updated {
		d.notifyLocked(msgUpdated, VariantSuccess)
	} else {
		d.notifyLocked(msgAdded, VariantSuccess)
	}
	d.resetLocked()
	return SubmitResult{Product: p, Updated: updated}, nil
}

// DeletePrompt is the confirmation question for removing a record.
func DeletePrompt(p Product) string {
	return fmt.Sprintf("Delete product %q?", p.Name)
}

// Delete removes a record once confirmed. Without confirmation it returns the
// prompt and ErrConfirmationRequired and changes nothing.
func (d *Desk) Delete(ctx context.Context, id int64, confirmed bool) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	target, ok := d.store.Get(id)
	if !ok {
		return "", ErrNotFound
	}
	prompt := DeletePrompt(target)
	if !confirmed {
		return prompt, ErrConfirmationRequired
	}

	_, found, err := d.store.Delete(ctx, id)
	if err != nil {
		d.notifyLocked(msgDeleteFailed, VariantDanger)
		return prompt, err
	}
	if !found {
		return prompt, ErrNotFound
	}

	if d.editing == id {
		d.resetLocked()
	}
	d.notifyLocked(msgDeleted, VariantSuccess)
	return prompt, nil
}

// Dismiss closes the notification with the given id.
func (d *Desk) Dismiss(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.note == nil || d.note.ID != id {
		return false
	}
	d.note = nil
	return true
}
