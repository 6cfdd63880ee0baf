package logpipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

func TestRegistryNewQueueAllocatesDistinctBits(t *testing.T) {
	reg := NewRegistry()

	maskA, err := reg.NewQueue(4)
	require.NoError(t, err)
	maskB, err := reg.NewQueue(4)
	require.NoError(t, err)

	assert.NotEqual(t, maskA, maskB)
	assert.True(t, reg.HasConsumers())
}

func TestRegistryNewQueueExhaustion(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < MaxExportQueues; i++ {
		_, err := reg.NewQueue(1)
		require.NoError(t, err)
	}
	_, err := reg.NewQueue(1)
	assert.True(t, qmcerr.Is(err, qmcerr.NoMem))
}

func TestRegistryReturnQueueFreesSlot(t *testing.T) {
	reg := NewRegistry()
	mask, err := reg.NewQueue(1)
	require.NoError(t, err)

	require.NoError(t, reg.ReturnQueue(mask))
	assert.False(t, reg.HasConsumers())

	err = reg.ReturnQueue(mask)
	assert.True(t, qmcerr.Is(err, qmcerr.ArgInvalid))
}

func TestRegistryPushAndDequeue(t *testing.T) {
	reg := NewRegistry()
	mask, err := reg.NewQueue(2)
	require.NoError(t, err)

	rec := &EncryptedRecord{Length: 4}
	lost := reg.Push(rec)
	assert.Equal(t, 0, lost)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := reg.Dequeue(ctx, mask)
	require.NoError(t, err)
	assert.Same(t, rec, got)
}

func TestRegistryPushReportsLostOnFullQueue(t *testing.T) {
	reg := NewRegistry()
	mask, err := reg.NewQueue(1)
	require.NoError(t, err)

	require.Equal(t, 0, reg.Push(&EncryptedRecord{}))
	lost := reg.Push(&EncryptedRecord{})
	assert.Equal(t, 1, lost)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = reg.Dequeue(ctx, mask)
	require.NoError(t, err)
}

func TestRegistryDequeueUnknownHandle(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Dequeue(context.Background(), 1<<7)
	assert.True(t, qmcerr.Is(err, qmcerr.ArgInvalid))
}
