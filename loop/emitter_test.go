package loop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitterFlushesAtThreshold(t *testing.T) {
	var flushed []string
	em := newEmitter(5, func(_ context.Context, full string) error {
		flushed = append(flushed, full)
		return nil
	})
	ctx := context.Background()

	require.NoError(t, em.emitIfNeeded(ctx, "ab", 2))
	require.Empty(t, flushed)
	require.NoError(t, em.emitIfNeeded(ctx, "abcde", 3))
	require.Equal(t, []string{"abcde"}, flushed)

	// Counter restarted; crossing the threshold again flushes the grown value.
	require.NoError(t, em.emitIfNeeded(ctx, "abcdefg", 2))
	require.Equal(t, []string{"abcde"}, flushed)
	require.NoError(t, em.emitIfNeeded(ctx, "abcdefghij", 3))
	require.Equal(t, []string{"abcde", "abcdefghij"}, flushed)
}

func TestEmitterFinalFlushesRemainderOnce(t *testing.T) {
	var flushed []string
	em := newEmitter(10, func(_ context.Context, full string) error {
		flushed = append(flushed, full)
		return nil
	})
	ctx := context.Background()

	require.NoError(t, em.emitIfNeeded(ctx, "partial", 7))
	require.NoError(t, em.emitFinal(ctx, "partial"))
	require.Equal(t, []string{"partial"}, flushed)

	// Nothing pending afterwards, so a second final is a no-op.
	require.NoError(t, em.emitFinal(ctx, "partial"))
	require.Equal(t, []string{"partial"}, flushed)
}

func TestEmitterFinalSkipsWhenThresholdJustFlushed(t *testing.T) {
	var flushed []string
	em := newEmitter(4, func(_ context.Context, full string) error {
		flushed = append(flushed, full)
		return nil
	})
	ctx := context.Background()

	require.NoError(t, em.emitIfNeeded(ctx, "abcd", 4))
	require.NoError(t, em.emitFinal(ctx, "abcd"))
	require.Equal(t, []string{"abcd"}, flushed)
}

func TestEmitterResetDropsPendingWithoutEmitting(t *testing.T) {
	var flushed []string
	em := newEmitter(4, func(_ context.Context, full string) error {
		flushed = append(flushed, full)
		return nil
	})
	ctx := context.Background()

	require.NoError(t, em.emitIfNeeded(ctx, "abc", 3))
	em.reset()
	require.NoError(t, em.emitFinal(ctx, "abc"))
	require.Empty(t, flushed)
}
