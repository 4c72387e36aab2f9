package identity

import (
	"sync/atomic"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// managerCore holds the collaborators every manager shares. It is embedded,
// never used on its own; options mutate it in place during construction.
type managerCore struct {
	logger     Logger
	normalizer LookupNormalizer
	keyRing    KeyRing
	protector  LookupProtector
	protect    bool
	clock      Clock
	closed     atomic.Bool
}

// ManagerOption configures the shared collaborators of any manager.
type ManagerOption func(*managerCore)

// WithLogger replaces the default stdout logger.
func WithLogger(logger Logger) ManagerOption {
	return func(c *managerCore) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNormalizer replaces the default uppercase lookup normalizer.
func WithNormalizer(normalizer LookupNormalizer) ManagerOption {
	return func(c *managerCore) {
		if normalizer != nil {
			c.normalizer = normalizer
		}
	}
}

// WithLookupProtection wires the key ring and protector used to protect
// normalized lookup values at rest. Has no effect unless the store options
// also enable ProtectPersonalData.
func WithLookupProtection(ring KeyRing, protector LookupProtector) ManagerOption {
	return func(c *managerCore) {
		if ring != nil {
			c.keyRing = ring
		}
		if protector != nil {
			c.protector = protector
		}
	}
}

// WithClock replaces the wall clock. Tests inject a fixed clock here.
func WithClock(clock Clock) ManagerOption {
	return func(c *managerCore) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func (c *managerCore) init(storeOpts StoreOptions, options ...ManagerOption) {
	c.logger = defLogger{}
	c.normalizer = UppercaseNormalizer{}
	c.keyRing = NoKeyRing{}
	c.protector = NoLookupProtector{}
	c.protect = storeOpts.ProtectPersonalData
	c.clock = time.Now

	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
}

// Close marks the manager as closed. Every call after Close returns
// ErrManagerClosed; Close itself is idempotent.
func (c *managerCore) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *managerCore) guard() error {
	if c.closed.Load() {
		return ErrManagerClosed
	}
	return nil
}

func (c *managerCore) now() time.Time { return c.clock() }

// protectCurrent protects a normalized lookup value under the current key.
// Pass-through when protection is off or the value is empty.
func (c *managerCore) protectCurrent(value string) (string, error) {
	if !c.protect || value == "" {
		return value, nil
	}
	protected, err := c.protector.Protect(c.keyRing.CurrentKeyID(), value)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "lookup protection failed")
	}
	return protected, nil
}

// lookupProtected resolves a normalized lookup value against a store. It
// tries the plain value first, then, on a miss with protection enabled,
// once per key-ring id oldest to newest. Rotation therefore never strands
// rows written under a historical key.
func lookupProtected[T any](c *managerCore, normalized string, find func(value string) (T, error)) (T, error) {
	out, err := find(normalized)
	if err == nil || !IsNotFound(err) || !c.protect {
		return out, err
	}

	for _, keyID := range c.keyRing.AllKeyIDs() {
		protected, perr := c.protector.Protect(keyID, normalized)
		if perr != nil {
			var zero T
			return zero, goerrors.Wrap(perr, goerrors.CategoryInternal, "lookup protection failed")
		}

		out, err = find(protected)
		if err == nil {
			return out, nil
		}
		if !IsNotFound(err) {
			return out, err
		}
	}

	return out, err
}
