// Package ownership decides how access to another user's resource is reported.
package ownership

import (
	"fmt"

	"github.com/danek0100/External-Observer/internal/errs"
)

// Mode selects the error reported for a foreign-owned resource.
type Mode int

const (
	// Conceal reports foreign resources exactly like absent ones (ErrNotFound).
	Conceal Mode = iota
	// Forbid reports foreign resources as ErrForbidden.
	Forbid
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case Conceal:
		return "conceal"
	case Forbid:
		return "forbid"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a configuration value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "conceal":
		return Conceal, nil
	case "forbid":
		return Forbid, nil
	}
	return Conceal, fmt.Errorf("unknown ownership mode %q", s)
}

// Policy is the single ownership check shared by every entity service.
type Policy struct{ mode Mode }

// New returns a policy in the given mode.
func New(mode Mode) Policy { return Policy{mode: mode} }

// Mode returns the configured mode.
func (p Policy) Mode() Mode { return p.mode }

// Authorize returns nil when actor owns the resource.
func (p Policy) Authorize(actor, owner string) error {
	if actor == "" {
		return errs.ErrUnauthorized
	}
	if actor == owner {
		return nil
	}
	if p.mode == Forbid {
		return errs.ErrForbidden
	}
	return errs.ErrNotFound
}

// Missing is the error for a resource that does not exist at all.
// It is ErrNotFound in every mode.
func (p Policy) Missing() error { return errs.ErrNotFound }
