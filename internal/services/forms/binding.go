package forms

import (
	"context"
	"errors"

	"github.com/mcoot/gamehub-console/internal/dependencies/random"
	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/storage"
)

// ErrStaleForm is returned for a submission whose nonce was replaced by a
// later Open or already consumed by an earlier submission
var ErrStaleForm = errors.New("form submission is stale")

const nonceLength = 24

// Binder owns the submit binding of each form: {unbound, bound}. Opening
// a form binds a fresh nonce, replacing any earlier one; a submission
// consumes it, so at most one submission per open form reaches the API.
type Binder struct {
	storage storage.Storage
	random  random.Random
}

// NewBinder creates a Binder
func NewBinder(storage storage.Storage, random random.Random) *Binder {
	return &Binder{storage: storage, random: random}
}

// Bind binds a fresh nonce to the form and returns it
func (b *Binder) Bind(ctx context.Context, sessionID, form string) (string, error) {
	nonce := random.Token(b.random, nonceLength)
	if err := b.storage.BindForm(ctx, sessionID, form, nonce); err != nil {
		return "", err
	}
	return nonce, nil
}

// Consume unbinds the form if nonce is the bound one, or returns ErrStaleForm
func (b *Binder) Consume(ctx context.Context, sessionID, form, nonce string) error {
	ok, err := b.storage.ConsumeFormBinding(ctx, sessionID, form, nonce)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStaleForm
	}
	return nil
}

// State reports whether the form currently has a bound nonce
func (b *Binder) State(ctx context.Context, sessionID, form string) (model.BindingState, error) {
	return b.storage.FormBinding(ctx, sessionID, form)
}
