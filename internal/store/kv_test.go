package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "contacthub:import:job1", "{}", time.Hour))
	v, err := kv.Get(ctx, "contacthub:import:job1")
	require.NoError(t, err)
	require.Equal(t, "{}", v)

	require.NoError(t, kv.Set(ctx, "contacthub:import:job2", "{}", time.Hour))
	require.NoError(t, kv.Set(ctx, "other:key", "x", time.Hour))

	keys, err := kv.ScanKeys(ctx, "contacthub:import:*")
	require.NoError(t, err)
	require.Len(t, keys, 2)

	require.NoError(t, kv.Del(ctx, "contacthub:import:job1"))
	_, err = kv.Get(ctx, "contacthub:import:job1")
	require.ErrorIs(t, err, ErrMiss)
}
