package host

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_DoAction(t *testing.T) {
	ctx := context.Background()

	t.Run("PriorityThenRegistrationOrder", func(t *testing.T) {
		var h Hooks
		var order []string
		record := func(name string) Action {
			return func(ctx context.Context) error {
				order = append(order, name)
				return nil
			}
		}
		h.AddAction(HookInit, 999998, record("late"))
		h.AddAction(HookInit, 10, record("first"))
		h.AddAction(HookInit, 10, record("second"))
		h.AddAction("other", 1, record("other"))

		require.NoError(t, h.DoAction(ctx, HookInit))
		assert.Equal(t, []string{"first", "second", "late"}, order)
		assert.True(t, h.HasActions("other"))
		assert.False(t, h.HasActions("missing"))
	})

	t.Run("StopsAtFirstError", func(t *testing.T) {
		var h Hooks
		boom := errors.New("boom")
		ran := false
		h.AddAction(HookInit, 1, func(ctx context.Context) error { return boom })
		h.AddAction(HookInit, 2, func(ctx context.Context) error { ran = true; return nil })

		err := h.DoAction(ctx, HookInit)
		assert.ErrorIs(t, err, boom)
		assert.False(t, ran)
	})

	t.Run("NoActions", func(t *testing.T) {
		var h Hooks
		assert.NoError(t, h.DoAction(ctx, HookInit))
	})
}
