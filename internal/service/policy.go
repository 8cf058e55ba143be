package service

import (
	"fmt"

	"github.com/mschachner/drop-in/internal/errs"
	"github.com/mschachner/drop-in/internal/model"
)

// Policy decides whether a session may act as a given participant.
// With EnforceIdentity off every request is trusted, as clients always were.
type Policy struct {
	EnforceIdentity bool
}

// actAs checks that sess may act under name.
func (p Policy) actAs(sess model.Session, name string) error {
	if !p.EnforceIdentity {
		return nil
	}
	if !sess.Verified || sess.Participant == "" {
		return fmt.Errorf("%w: identity token required", errs.ErrUnauthorized)
	}
	if sess.Participant != name {
		return fmt.Errorf("%w: %q may not act as %q", errs.ErrForbidden, sess.Participant, name)
	}
	return nil
}
