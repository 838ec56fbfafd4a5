package domain

import "context"

// KV is the durable key-value store backing reports, session fields, and the
// local account registry. Get reports false for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
