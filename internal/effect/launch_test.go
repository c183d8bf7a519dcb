package effect_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samoylenkodmitry/compose-runtime/internal/composer"
	"github.com/samoylenkodmitry/compose-runtime/internal/effect"
	"github.com/samoylenkodmitry/compose-runtime/internal/observation"
	"github.com/samoylenkodmitry/compose-runtime/internal/runtime"
)

func newComposer(t *testing.T) *composer.Composer {
	t.Helper()
	return composer.New(runtime.DefaultConfig(), nil, observation.NewRegistry())
}

// TestLaunchStartsExactlyOnceForAnUnchangedKey covers the common case:
// recomposing the same call site with the same key must not relaunch.
func TestLaunchStartsExactlyOnceForAnUnchangedKey(t *testing.T) {
	c := newComposer(t)
	r := effect.NewRunner(context.Background(), 0, nil)

	var mu sync.Mutex
	var starts int
	started := make(chan struct{}, 10)

	body := func() {
		effect.Launch(c, r, "k1", func(ctx context.Context) error {
			mu.Lock()
			starts++
			mu.Unlock()
			started <- struct{}{}
			<-ctx.Done()
			return ctx.Err()
		})
	}

	c.Table().Start(1)
	body()
	c.Table().End()

	c.Table().Reset()
	c.Table().Start(1)
	body()
	c.Table().End()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("effect never started")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, starts)

	r.Cancel()
}

// TestLaunchCancelsPreviousTaskWhenKeyChanges covers relaunch-on-key-change.
func TestLaunchCancelsPreviousTaskWhenKeyChanges(t *testing.T) {
	c := newComposer(t)
	r := effect.NewRunner(context.Background(), 0, nil)

	canceled := make(chan string, 2)
	started := make(chan string, 2)

	run := func(key string) {
		effect.Launch(c, r, key, func(ctx context.Context) error {
			started <- key
			<-ctx.Done()
			canceled <- key
			return ctx.Err()
		})
	}

	c.Table().Start(1)
	run("a")
	c.Table().End()

	require.Equal(t, "a", <-started)

	c.Table().Reset()
	c.Table().Start(1)
	run("b")
	c.Table().End()

	require.Equal(t, "a", <-canceled, "changing the key cancels the old task")
	require.Equal(t, "b", <-started)

	r.Cancel()
}
