// Package form holds transient create/edit state for one entity form.
package form

import (
	"context"

	"github.com/angelmondragon/shopdesk/internal/notify"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/logger"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

// Mode tells whether the open form creates a new entity or edits one.
type Mode string

const (
	ModeClosed Mode = "closed"
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Submitter performs the remote call for a validated form. id is empty in create mode.
type Submitter[F any] func(ctx context.Context, mode Mode, id types.ID, values F) error

type Params[F any] struct {
	Name string
	// Defaults builds a fresh value set; it is called on every reset so
	// defaults such as today's date stay current.
	Defaults func() F
	// Validate overrides the struct-tag validation.
	Validate func(F) error
	Submit   Submitter[F]
	// Success messages per mode; empty means no success notification.
	CreatedMessage string
	UpdatedMessage string
	Notifier       notify.Notifier
	Logger         *logger.Logger
}

// Controller is not safe for concurrent use; a form is driven by one caller.
type Controller[F any] struct {
	params Params[F]
	mode   Mode
	id     types.ID
	values F
}

func NewController[F any](params Params[F]) *Controller[F] {
	if params.Defaults == nil {
		params.Defaults = func() F {
			var zero F
			return zero
		}
	}
	if params.Validate == nil {
		params.Validate = func(values F) error { return Validate(values) }
	}
	if params.Notifier == nil {
		params.Notifier = notify.Discard
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &Controller[F]{params: params, mode: ModeClosed, values: params.Defaults()}
}

// OpenCreate opens an empty form filled with defaults.
func (c *Controller[F]) OpenCreate() {
	c.mode = ModeCreate
	c.id = ""
	c.values = c.params.Defaults()
}

// OpenEdit opens the form for entity id with its current values.
func (c *Controller[F]) OpenEdit(id types.ID, values F) {
	c.mode = ModeEdit
	c.id = id
	c.values = values
}

// Close discards the entered values.
func (c *Controller[F]) Close() {
	c.mode = ModeClosed
	c.id = ""
	c.values = c.params.Defaults()
}

func (c *Controller[F]) IsOpen() bool { return c.mode != ModeClosed }

func (c *Controller[F]) Mode() Mode { return c.mode }

func (c *Controller[F]) EditingID() types.ID { return c.id }

func (c *Controller[F]) Values() F { return c.values }

// Update mutates the entered values in place.
func (c *Controller[F]) Update(fn func(*F)) {
	fn(&c.values)
}

// Submit validates and sends the form. On a validation failure the submitter
// is never called. On success the form resets and closes; on failure it stays
// open with the entered values.
func (c *Controller[F]) Submit(ctx context.Context) error {
	if !c.IsOpen() {
		return pkgerrors.New(pkgerrors.CodeValidation, "form is not open")
	}
	ctx = c.params.Logger.WithFields(ctx, map[string]any{
		"form": c.params.Name,
		"mode": string(c.mode),
		"id":   c.id.String(),
	})

	if err := c.params.Validate(c.values); err != nil {
		c.params.Notifier.Notify(ctx, pkgerrors.UserMessage(err), notify.KindError)
		return err
	}
	if err := c.params.Submit(ctx, c.mode, c.id, c.values); err != nil {
		c.params.Logger.Warn(ctx, "form.submit.failed")
		c.params.Notifier.Notify(ctx, pkgerrors.UserMessage(err), notify.KindError)
		return err
	}

	msg := c.params.CreatedMessage
	if c.mode == ModeEdit {
		msg = c.params.UpdatedMessage
	}
	c.Close()
	if msg != "" {
		c.params.Notifier.Notify(ctx, msg, notify.KindSuccess)
	}
	return nil
}
