package usermgmt

import (
	"testing"

	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
	"github.com/nxp-qmc/qmc2g-core/internal/logpipeline"
)

// fakeClock is a Clock double with a settable current time and an
// optional "uninitialized RTC" mode.
type fakeClock struct {
	seconds int64
	ok      bool
}

func newFakeClock(seconds int64) *fakeClock { return &fakeClock{seconds: seconds, ok: true} }

func (c *fakeClock) Now() (int64, bool) { return c.seconds, c.ok }
func (c *fakeClock) Advance(d int64)    { c.seconds += d }

type fakeDevice struct{ id string }

func (d fakeDevice) DeviceID() string { return d.id }

// fakeLogger records every entry QueueEntry receives.
type fakeLogger struct {
	entries []recordedEntry
}

type recordedEntry struct {
	data        logpipeline.Data
	hasPriority bool
}

func (l *fakeLogger) QueueEntry(rec logpipeline.Record, hasPriority bool) error {
	l.entries = append(l.entries, recordedEntry{data: rec.Data, hasPriority: hasPriority})
	return nil
}

func newTestStore(t *testing.T) *configstore.Store {
	t.Helper()
	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}
	s, err := configstore.Open(t.TempDir(), configstore.NewAESGCMSeal(key))
	if err != nil {
		t.Fatalf("opening test config store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestManager(t *testing.T) (*Manager, *fakeClock) {
	t.Helper()
	clock := newFakeClock(1_700_000_000)
	m := New(newTestStore(t), clock, fakeDevice{id: "device-under-test"}, nil)
	return m, clock
}
