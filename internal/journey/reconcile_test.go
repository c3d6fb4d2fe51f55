package journey

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journey-tracker/internal/config"
	"journey-tracker/internal/registry"
)

func registryKeys(t *testing.T, reg registry.Registry) map[string]bool {
	t.Helper()
	entries, err := reg.List(context.Background())
	require.NoError(t, err)
	keys := make(map[string]bool, len(entries))
	for _, e := range entries {
		keys[e.Key] = true
	}
	return keys
}

func TestReconcileRemovesOrphans(t *testing.T) {
	routeA := config.RouteDefinition{From: "A", Destination: "B", Lines: []string{"55"}}
	routeC := config.RouteDefinition{From: "C", Destination: "D"}
	keyA := DeriveKey(routeA.From, routeA.Destination, routeA.Lines, 0)
	keyB := DeriveKey("X", "Y", nil, 1)

	reg := registry.NewMemory()
	ctx := context.Background()
	require.NoError(t, reg.Ensure(ctx, registry.Entry{Key: keyA, Kind: registry.KindJourney, Name: "A to B"}))
	require.NoError(t, reg.Ensure(ctx, registry.Entry{Key: keyB, Kind: registry.KindJourney, Name: "X to Y"}))
	require.NoError(t, reg.Ensure(ctx, registry.Entry{Key: PauseKey(keyA), Kind: registry.KindPause, Name: "Pause A to B"}))

	require.NoError(t, Reconcile(ctx, reg, []config.RouteDefinition{routeA, routeC}, nil))

	keys := registryKeys(t, reg)
	assert.True(t, keys[keyA], "configured entry must survive")
	assert.True(t, keys[PauseKey(keyA)], "pause control of a configured entry must survive")
	assert.False(t, keys[keyB], "unconfigured entry is removed")
	keyC := DeriveKey(routeC.From, routeC.Destination, routeC.Lines, 1)
	assert.False(t, keys[keyC], "reconcile never invents entries")
}

func TestReconcileRemovesOrphanedPauseWithoutLinkedEntry(t *testing.T) {
	// The pause control is removed even though its linked journey entry
	// was already gone.
	reg := registry.NewMemory()
	ctx := context.Background()
	stale := DeriveKey("Old", "Route", nil, 0)
	require.NoError(t, reg.Ensure(ctx, registry.Entry{Key: PauseKey(stale), Kind: registry.KindPause, Name: "Pause Old"}))

	require.NoError(t, Reconcile(ctx, reg, nil, nil))

	entries, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReconcileKeepsConfiguredWindows(t *testing.T) {
	w := config.WindowDefinition{From: "A", Destination: "B", StartTime: "08:00", EndTime: "09:00"}
	winKey := WindowKey(w.From, w.Destination, w.StartTime, w.EndTime, w.RelatesTo(), 0)

	reg := registry.NewMemory()
	ctx := context.Background()
	require.NoError(t, reg.Ensure(ctx, registry.Entry{Key: winKey, Kind: registry.KindWindow, Name: "morning"}))
	require.NoError(t, reg.Ensure(ctx, registry.Entry{Key: WindowKey("A", "B", "16:00", "18:00", "departure", 1), Kind: registry.KindWindow, Name: "evening"}))

	require.NoError(t, Reconcile(ctx, reg, nil, []config.WindowDefinition{w}))

	keys := registryKeys(t, reg)
	assert.True(t, keys[winKey])
	assert.Len(t, keys, 1)
}

func TestConfiguredKeysNamespacesWindows(t *testing.T) {
	r := config.RouteDefinition{From: "A", Destination: "B"}
	w := config.WindowDefinition{From: "A", Destination: "B", StartTime: "08:00", EndTime: "09:00"}

	keys := ConfiguredKeys([]config.RouteDefinition{r}, []config.WindowDefinition{w})
	assert.Len(t, keys, 2, "a route and a window over the same stop pair keep distinct keys")
}
