package session

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blackbird-av/airplay2/pkg/plist"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	c := NewCancellable(context.Background())
	key := StreamKey{ID: 1, Type: plist.StreamTypeAudioRealtime}

	r.Register(key, c)
	got, ok := r.Lookup(key)
	require.True(t, ok)
	require.Same(t, c, got)
}

func TestRegistryLookupMissing(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Lookup(StreamKey{ID: 99, Type: plist.StreamTypeVideo})
	require.False(t, ok)
}

func TestRegistryCancelOne(t *testing.T) {
	r := NewRegistry()
	c := NewCancellable(context.Background())
	key := StreamKey{ID: 2, Type: plist.StreamTypeAudioBuffered}
	r.Register(key, c)

	require.True(t, r.CancelOne(key))
	select {
	case <-c.Done():
	default:
		t.Fatal("expected cancellable to be cancelled")
	}

	_, ok := r.Lookup(key)
	require.False(t, ok)
	require.False(t, r.CancelOne(key))
}

func TestRegistryCascadeCancelsEverything(t *testing.T) {
	r := NewRegistry()
	c1 := NewCancellable(context.Background())
	c2 := NewCancellable(context.Background())
	r.Register(StreamKey{ID: 1, Type: plist.StreamTypeAudioRealtime}, c1)
	r.Register(StreamKey{ID: 2, Type: plist.StreamTypeVideo}, c2)

	r.Cascade()

	for _, c := range []*Cancellable{c1, c2} {
		select {
		case <-c.Done():
		default:
			t.Fatal("expected cascade to cancel every registered handle")
		}
	}
}

func TestRegistryForget(t *testing.T) {
	r := NewRegistry()
	c := NewCancellable(context.Background())
	key := StreamKey{ID: 3, Type: plist.StreamTypeVideo}
	r.Register(key, c)
	require.Equal(t, 1, r.Len())

	r.Forget(key)
	require.Equal(t, 0, r.Len())
}

func TestRegistryPurgeDropsStaleEntries(t *testing.T) {
	r := NewRegistry()
	key := StreamKey{ID: 4, Type: plist.StreamTypeAudioBuffered}

	func() {
		c := NewCancellable(context.Background())
		r.Register(key, c)
	}()

	var live int
	require.Eventually(t, func() bool {
		runtime.GC()
		live = r.Purge()
		return live == 0
	}, time.Second, 10*time.Millisecond)
}
