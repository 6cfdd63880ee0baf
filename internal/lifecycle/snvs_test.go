package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemSnvsStoreRoundTrip(t *testing.T) {
	store := NewMemSnvsStore(SnvsLpGprState{FwState: FwNone})

	got, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, FwNone, got.FwState)

	want := SnvsLpGprState{FwState: FwCommit, WdStatus: 1, WdTimerBackup: 42}
	require.NoError(t, store.Write(want))

	got, err = store.Read()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
