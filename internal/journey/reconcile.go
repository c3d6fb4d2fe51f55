package journey

import (
	"context"
	"fmt"
	"log"
	"strings"

	"journey-tracker/internal/config"
	"journey-tracker/internal/registry"
)

// ConfiguredKeys computes the set of identities implied by the current
// configuration: one key per departure route and one namespaced key per
// window-scan entry.
func ConfiguredKeys(routes []config.RouteDefinition, windows []config.WindowDefinition) map[string]bool {
	keys := make(map[string]bool, len(routes)+len(windows))
	for i, r := range routes {
		keys[DeriveKey(r.From, r.Destination, r.Lines, i)] = true
	}
	for i, w := range windows {
		keys[WindowKey(w.From, w.Destination, w.StartTime, w.EndTime, w.RelatesTo(), i)] = true
	}
	return keys
}

// Reconcile removes registry entries left behind by a previous
// configuration: any entry whose key is not implied by the current config,
// and any pause control whose linked journey key is gone, whether or not
// the journey entry itself still exists. It must run before new trackers
// are constructed so stale entities never coexist with their replacements.
func Reconcile(ctx context.Context, reg registry.Registry, routes []config.RouteDefinition, windows []config.WindowDefinition) error {
	keys := ConfiguredKeys(routes, windows)

	entries, err := reg.List(ctx)
	if err != nil {
		return fmt.Errorf("list registry entries: %w", err)
	}

	for _, e := range entries {
		var orphaned bool
		if e.Kind == registry.KindPause {
			linked := strings.TrimPrefix(e.Key, PausePrefix)
			orphaned = !keys[linked]
		} else {
			orphaned = !keys[e.Key]
		}
		if !orphaned {
			continue
		}
		log.Printf("removing orphaned %s entry %s (%s)", e.Kind, e.Key, e.Name)
		if err := reg.Remove(ctx, e.Key); err != nil {
			return fmt.Errorf("remove %s: %w", e.Key, err)
		}
	}
	return nil
}
