// Package backend realizes the per-cloud secret and config store
// implementations behind a uniform capability contract (components C1/C2).
package backend

import "context"

// SecretManagerProvider is the capability contract every cloud secret store
// realization implements.
type SecretManagerProvider interface {
	// CreateOrUpdate writes value under name, tagging it with environment and
	// location metadata. updated reports false iff the backend already held
	// an identical value.
	CreateOrUpdate(ctx context.Context, name, value, environment, location string) (updated bool, err error)

	// Get reads the current value of name. A nil string and nil error
	// together mean "not found" (any not-found/disabled error class).
	Get(ctx context.Context, name string) (value *string, err error)

	// Delete removes name. Idempotent: deleting an absent name is not an
	// error.
	Delete(ctx context.Context, name string) error

	// Disable marks name inactive without deleting it. wasEffective is
	// false if it was already disabled or absent.
	Disable(ctx context.Context, name string) (wasEffective bool, err error)

	// Enable reverses Disable. wasEffective is false if it was already
	// enabled or absent.
	Enable(ctx context.Context, name string) (wasEffective bool, err error)
}

// ConfigStoreProvider is the capability contract for non-secret
// configuration values.
type ConfigStoreProvider interface {
	CreateOrUpdate(ctx context.Context, name, value, environment, location string) (updated bool, err error)
	Get(ctx context.Context, name string) (value *string, err error)
	Delete(ctx context.Context, name string) error
}
