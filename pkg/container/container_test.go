package container

import (
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-wpuser/pkg/errors"
)

type counter struct{ n int }

type testProvider struct{}

func (testProvider) Provides() []string { return []string{"a", "b"} }

func (testProvider) Register(c *Container) {
	c.Share("a", func(c *Container) (any, error) { return "alpha", nil })
	c.Share("b", func(c *Container) (any, error) {
		a, err := Resolve[string](c, "a")
		if err != nil {
			return nil, err
		}
		return a + "+beta", nil
	})
}

func TestContainer_Get(t *testing.T) {
	t.Run("BuildsOnce", func(t *testing.T) {
		c := New()
		calls := 0
		c.Share("counter", func(c *Container) (any, error) {
			calls++
			return &counter{n: calls}, nil
		})

		first, err := c.Get("counter")
		require.NoError(t, err)
		second, err := c.Get("counter")
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, 1, calls)
	})

	t.Run("ErrorsNotCached", func(t *testing.T) {
		c := New()
		fail := true
		c.Share("flaky", func(c *Container) (any, error) {
			if fail {
				return nil, stderrors.New("not yet")
			}
			return "ok", nil
		})

		_, err := c.Get("flaky")
		require.Error(t, err)
		fail = false
		v, err := c.Get("flaky")
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := New().Get("missing")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("Circular", func(t *testing.T) {
		c := New()
		c.Share("x", func(c *Container) (any, error) { return c.Get("y") })
		c.Share("y", func(c *Container) (any, error) { return c.Get("x") })
		_, err := c.Get("x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "circular")
	})

	t.Run("ConcurrentCallersShareOneBuild", func(t *testing.T) {
		c := New()
		var calls atomic.Int32
		release := make(chan struct{})
		c.Share("slow", func(c *Container) (any, error) {
			calls.Add(1)
			<-release
			return &counter{n: 1}, nil
		})

		const callers = 8
		results := make([]any, callers)
		errs := make([]error, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = c.Get("slow")
			}(i)
		}
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			assert.Same(t, results[0], results[i])
		}
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("CircularAcrossGoroutines", func(t *testing.T) {
		c := New()
		var started sync.WaitGroup
		started.Add(2)
		gate := make(chan struct{})
		c.Share("x", func(c *Container) (any, error) {
			started.Done()
			<-gate
			return c.Get("y")
		})
		c.Share("y", func(c *Container) (any, error) {
			started.Done()
			<-gate
			return c.Get("x")
		})

		errs := make(chan error, 2)
		for _, id := range []string{"x", "y"} {
			go func(id string) {
				_, err := c.Get(id)
				errs <- err
			}(id)
		}
		started.Wait()
		close(gate)

		for i := 0; i < 2; i++ {
			select {
			case err := <-errs:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "circular")
			case <-time.After(5 * time.Second):
				t.Fatal("dependency cycle between goroutines deadlocked")
			}
		}
	})

	t.Run("Set", func(t *testing.T) {
		c := New()
		c.Set("v", 42)
		assert.True(t, c.Has("v"))
		n, err := Resolve[int](c, "v")
		require.NoError(t, err)
		assert.Equal(t, 42, n)

		_, err = Resolve[string](c, "v")
		assert.Error(t, err)
	})
}

func TestContainer_Register(t *testing.T) {
	c := New()
	c.Register(testProvider{})

	for _, id := range (testProvider{}).Provides() {
		assert.True(t, c.Has(id))
	}
	b, err := Resolve[string](c, "b")
	require.NoError(t, err)
	assert.Equal(t, "alpha+beta", b)
}
