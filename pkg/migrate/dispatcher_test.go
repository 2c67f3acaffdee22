package migrate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mygrate/pkg/observability"
)

func tables(names ...string) []Table {
	out := make([]Table, len(names))
	for i, n := range names {
		out[i] = Table{Name: n}
	}
	return out
}

func TestDispatcherRunsAllTables(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}

	d := NewDispatcher(4, observability.Nop())
	err := d.Run(context.Background(), tables("a", "b", "c", "d", "e"),
		func(ctx context.Context, table Table) error {
			mu.Lock()
			seen[table.Name]++
			mu.Unlock()
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1, "d": 1, "e": 1}, seen)
}

func TestDispatcherClaimsInDeclarationOrder(t *testing.T) {
	var order []string

	d := NewDispatcher(1, observability.Nop())
	err := d.Run(context.Background(), tables("a", "b", "c"),
		func(ctx context.Context, table Table) error {
			order = append(order, table.Name)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestDispatcherStopsOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	var order []string

	d := NewDispatcher(1, observability.Nop())
	err := d.Run(context.Background(), tables("a", "b", "c"),
		func(ctx context.Context, table Table) error {
			order = append(order, table.Name)
			if table.Name == "b" {
				return boom
			}
			return nil
		})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestDispatcherSurfacesFirstErrorOnly(t *testing.T) {
	first := errors.New("first")

	// One worker makes "first" deterministic; every table fails.
	d := NewDispatcher(1, observability.Nop())
	err := d.Run(context.Background(), tables("a", "b"),
		func(ctx context.Context, table Table) error {
			if table.Name == "a" {
				return first
			}
			return errors.New("second")
		})
	assert.ErrorIs(t, err, first)
}

func TestDispatcherCancelsContextOnFailure(t *testing.T) {
	boom := errors.New("boom")
	release := make(chan struct{})
	var sawCancel bool
	var mu sync.Mutex

	d := NewDispatcher(2, observability.Nop())
	err := d.Run(context.Background(), tables("slow", "bad"),
		func(ctx context.Context, table Table) error {
			if table.Name == "bad" {
				defer close(release)
				return boom
			}
			<-release
			<-ctx.Done()
			mu.Lock()
			sawCancel = true
			mu.Unlock()
			return ctx.Err()
		})
	assert.ErrorIs(t, err, boom)
	mu.Lock()
	assert.True(t, sawCancel)
	mu.Unlock()
}

func TestDispatcherNoTables(t *testing.T) {
	d := NewDispatcher(0, observability.Nop())
	require.NoError(t, d.Run(context.Background(), nil,
		func(ctx context.Context, table Table) error {
			t.Fatal("should not be called")
			return nil
		}))
}
