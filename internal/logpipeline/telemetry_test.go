package logpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBitsMirrorsEventGroup(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)
	assert.Zero(t, svc.EventBits()&SysEventLogFlashError)

	svc.events.SetBits(SysEventLogFlashError)
	assert.NotZero(t, svc.EventBits()&SysEventLogFlashError)
}

func TestMemoryLowReflectsInboundOccupancy(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)
	assert.False(t, svc.MemoryLow())

	for i := 0; i < 26; i++ {
		require.NoError(t, svc.QueueEntry(testRecord(EventUserLogin), false))
	}
	assert.True(t, svc.MemoryLow())
}

func TestEncryptedRecordBytesOrdersFieldsForWireReplay(t *testing.T) {
	rec := &EncryptedRecord{
		Length:    7,
		KeyIVEnc:  []byte{0xAA, 0xBB},
		RecordEnc: []byte{0xCC},
		Signature: []byte{0xDD, 0xEE, 0xFF},
	}
	got := rec.Bytes()
	want := []byte{0x00, 0x00, 0x00, 0x07, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	assert.Equal(t, want, got)
}
