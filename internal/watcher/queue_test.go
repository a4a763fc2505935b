package watcher

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func status(s string) Item {
	return Item{Type: ItemStatus, Status: s}
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()

	for _, s := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(status(s)))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"A", "B", "C"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.Status)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok, "queue should be empty")
}

func TestQueue_WaitSignalsAfterEnqueue(t *testing.T) {
	q := NewQueue()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(status("late"))
	}()

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("no signal after enqueue")
	}
	got, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "late", got.Status)
}

func TestQueue_SignalsCoalesce(t *testing.T) {
	q := NewQueue()
	q.Enqueue(status("1"))
	q.Enqueue(status("2"))

	<-q.Wait()
	select {
	case <-q.Wait():
		t.Fatal("expected a single buffered signal")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue()
	q.Enqueue(status("kept"))
	q.Close()
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(status("dropped")))

	// A closed signal channel never blocks.
	select {
	case <-q.Wait():
	default:
		t.Fatal("wait should not block after close")
	}

	got, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "kept", got.Status)
}

func TestQueue_ConcurrentEnqueue(t *testing.T) {
	q := NewQueue()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				q.Enqueue(status("x"))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, q.Len())
}
