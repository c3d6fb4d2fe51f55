package registry

import "context"

// Kind is an explicit type tag for registry entries. Pause controls are
// linked to their journey by key prefix, but kind discrimination never
// relies on the prefix alone.
type Kind string

const (
	KindJourney Kind = "journey"
	KindWindow  Kind = "window"
	KindPause   Kind = "pause"
)

// Entry is one materialized entity: identity bookkeeping only, never poll
// results.
type Entry struct {
	Key  string
	Kind Kind
	Name string
}

// Registry records which entities have been materialized, so that a
// configuration reload can reconcile stale ones away.
type Registry interface {
	List(ctx context.Context) ([]Entry, error)
	// Ensure inserts the entry or updates its kind and name in place.
	Ensure(ctx context.Context, e Entry) error
	Remove(ctx context.Context, key string) error
}
