package syncstate

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_TryLock(t *testing.T) {
	l := NewLocker()

	unlock, err := l.TryLock("file://a.json")
	require.NoError(t, err)
	assert.True(t, l.Held("file://a.json"))

	_, err = l.TryLock("file://a.json")
	assert.ErrorIs(t, err, ErrRunInProgress)

	other, err := l.TryLock("file://b.json")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	assert.False(t, l.Held("file://a.json"))

	again, err := l.TryLock("file://a.json")
	require.NoError(t, err)
	again()
}

func TestLocker_Concurrent(t *testing.T) {
	l := NewLocker()
	var acquired int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := l.TryLock("key"); err == nil {
				atomic.AddInt32(&acquired, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), acquired)
}
