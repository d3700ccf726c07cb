package emitter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asynckit/emitter/pkg/emitter"
)

func TestRemoveListener(t *testing.T) {
	ctx := context.Background()

	t.Run("nil listener fails", func(t *testing.T) {
		e := emitter.New(emitter.Config{})
		assert.ErrorIs(t, e.RemoveListener(ctx, "foo", nil), emitter.ErrInvalidListener)
	})

	t.Run("unknown type and unknown listener are no-ops", func(t *testing.T) {
		e := emitter.New(emitter.Config{})
		require.NoError(t, e.RemoveListener(ctx, "missing", listenerAlpha))

		require.NoError(t, e.On(ctx, "foo", listenerAlpha))
		require.NoError(t, e.RemoveListener(ctx, "foo", listenerBeta))
		assert.Equal(t, 1, e.ListenerCount("foo"))
	})

	t.Run("removes one occurrence at a time", func(t *testing.T) {
		e := emitter.New(emitter.Config{})
		require.NoError(t, e.On(ctx, "foo", listenerAlpha))
		require.NoError(t, e.On(ctx, "foo", listenerAlpha))

		require.NoError(t, e.RemoveListener(ctx, "foo", listenerAlpha))
		assert.Equal(t, 1, e.ListenerCount("foo"))

		require.NoError(t, e.RemoveListener(ctx, "foo", listenerAlpha))
		assert.Equal(t, 0, e.ListenerCount("foo"))
		assert.Empty(t, e.EventNames())
	})

	t.Run("removes the last-registered occurrence first", func(t *testing.T) {
		e := emitter.New(emitter.Config{})
		require.NoError(t, e.On(ctx, "foo", listenerAlpha))
		require.NoError(t, e.On(ctx, "foo", listenerBeta))
		require.NoError(t, e.On(ctx, "foo", listenerAlpha))

		require.NoError(t, e.RemoveListener(ctx, "foo", listenerAlpha))
		got := e.Listeners("foo")
		require.Len(t, got, 2)
		assert.Equal(t, fnPtr(emitter.Listener(listenerAlpha)), fnPtr(got[0]))
		assert.Equal(t, fnPtr(emitter.Listener(listenerBeta)), fnPtr(got[1]))
	})
}

func TestRemoveListenerNotification(t *testing.T) {
	ctx := context.Background()

	t.Run("fires after the removal is committed", func(t *testing.T) {
		e := emitter.New(emitter.Config{})
		var gotType string
		var countDuringNotify int
		require.NoError(t, e.On(ctx, emitter.EventRemoveListener,
			func(_ context.Context, args ...any) (any, error) {
				gotType = args[0].(string)
				countDuringNotify = e.ListenerCount(args[0].(string))
				return nil, nil
			}))

		require.NoError(t, e.On(ctx, "foo", listenerAlpha))
		require.NoError(t, e.RemoveListener(ctx, "foo", listenerAlpha))
		assert.Equal(t, "foo", gotType)
		assert.Equal(t, 0, countDuringNotify, "notification preceded the commit")
	})

	t.Run("carries the underlying listener for once registrations", func(t *testing.T) {
		e := emitter.New(emitter.Config{})
		var notified emitter.Listener
		require.NoError(t, e.On(ctx, emitter.EventRemoveListener,
			func(_ context.Context, args ...any) (any, error) {
				notified = args[1].(emitter.Listener)
				return nil, nil
			}))

		require.NoError(t, e.Once(ctx, "foo", listenerBeta))
		require.NoError(t, e.RemoveListener(ctx, "foo", listenerBeta))
		require.NotNil(t, notified)
		assert.Equal(t, fnPtr(emitter.Listener(listenerBeta)), fnPtr(notified))
	})

	t.Run("fires when a once listener consumes itself", func(t *testing.T) {
		e := emitter.New(emitter.Config{})
		var removals []string
		require.NoError(t, e.On(ctx, emitter.EventRemoveListener,
			func(_ context.Context, args ...any) (any, error) {
				removals = append(removals, args[0].(string))
				return nil, nil
			}))

		require.NoError(t, e.Once(ctx, "foo", listenerGamma))
		_, err := e.Emit(ctx, "foo")
		require.NoError(t, err)
		assert.Equal(t, []string{"foo"}, removals)
	})

	t.Run("no notification for no-op removals", func(t *testing.T) {
		e := emitter.New(emitter.Config{})
		fired := false
		require.NoError(t, e.On(ctx, emitter.EventRemoveListener,
			func(_ context.Context, _ ...any) (any, error) {
				fired = true
				return nil, nil
			}))

		require.NoError(t, e.RemoveListener(ctx, "foo", listenerAlpha))
		assert.False(t, fired)
	})
}

func TestRemoveAllListeners(t *testing.T) {
	ctx := context.Background()

	t.Run("one type", func(t *testing.T) {
		e := emitter.New(emitter.Config{})
		require.NoError(t, e.On(ctx, "foo", listenerAlpha))
		require.NoError(t, e.On(ctx, "foo", listenerBeta))
		require.NoError(t, e.On(ctx, "bar", listenerGamma))

		require.NoError(t, e.RemoveAllListeners(ctx, "foo"))
		assert.Equal(t, 0, e.ListenerCount("foo"))
		assert.Equal(t, 1, e.ListenerCount("bar"))
		assert.Equal(t, 1, e.Len())
	})

	t.Run("all types resets the registry", func(t *testing.T) {
		e := emitter.New(emitter.Config{})
		require.NoError(t, e.On(ctx, "foo", listenerAlpha))
		require.NoError(t, e.On(ctx, "bar", listenerBeta))

		require.NoError(t, e.RemoveAllListeners(ctx))
		assert.Equal(t, 0, e.Len())
		assert.Empty(t, e.EventNames())
	})

	t.Run("notifies per listener in reverse registration order", func(t *testing.T) {
		e := emitter.New(emitter.Config{})
		var removed []emitter.Listener
		require.NoError(t, e.On(ctx, emitter.EventRemoveListener,
			func(_ context.Context, args ...any) (any, error) {
				removed = append(removed, args[1].(emitter.Listener))
				return nil, nil
			}))

		require.NoError(t, e.On(ctx, "foo", listenerAlpha))
		require.NoError(t, e.On(ctx, "foo", listenerBeta))
		require.NoError(t, e.On(ctx, "foo", listenerGamma))

		require.NoError(t, e.RemoveAllListeners(ctx, "foo"))
		require.Len(t, removed, 3)
		assert.Equal(t, fnPtr(emitter.Listener(listenerGamma)), fnPtr(removed[0]))
		assert.Equal(t, fnPtr(emitter.Listener(listenerBeta)), fnPtr(removed[1]))
		assert.Equal(t, fnPtr(emitter.Listener(listenerAlpha)), fnPtr(removed[2]))
	})

	t.Run("full removal notifies removeListener listeners last", func(t *testing.T) {
		e := emitter.New(emitter.Config{})
		var removals []string
		require.NoError(t, e.On(ctx, emitter.EventRemoveListener,
			func(_ context.Context, args ...any) (any, error) {
				removals = append(removals, args[0].(string))
				return nil, nil
			}))

		require.NoError(t, e.On(ctx, "bar", listenerAlpha))
		require.NoError(t, e.On(ctx, "foo", listenerBeta))

		require.NoError(t, e.RemoveAllListeners(ctx))
		assert.Equal(t, 0, e.Len())
		// Other types in sorted order, the subscriber's own type last. Its
		// own removal has no subscriber left to observe it.
		assert.Equal(t, []string{"bar", "foo"}, removals)
	})
}
