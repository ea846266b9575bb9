package lock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRWLock_MultipleReaders(t *testing.T) {
	l := New()
	assert.True(t, l.ReadLock())
	assert.True(t, l.ReadLock())
	l.ReadUnlock()
	l.ReadUnlock()
}

func TestRWLock_WriterExcludesReaders(t *testing.T) {
	l := New()
	assert.True(t, l.WriteLock(0))

	done := make(chan struct{})
	go func() {
		l.ReadLock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("reader acquired lock while writer active")
	case <-time.After(50 * time.Millisecond):
	}

	l.WriteUnlock()
	<-done
	l.ReadUnlock()
}

func TestRWLock_WriterPreference(t *testing.T) {
	l := New()
	assert.True(t, l.ReadLock())

	writerDone := make(chan struct{})
	go func() {
		l.WriteLock(0)
		close(writerDone)
		l.WriteUnlock()
	}()
	time.Sleep(20 * time.Millisecond)

	secondReaderBlocked := make(chan struct{})
	go func() {
		l.ReadLock()
		close(secondReaderBlocked)
		l.ReadUnlock()
	}()
	time.Sleep(20 * time.Millisecond)

	select {
	case <-secondReaderBlocked:
		t.Fatal("new reader bypassed waiting writer")
	default:
	}

	l.ReadUnlock()
	<-writerDone
	<-secondReaderBlocked
}

func TestRWLock_WriteLockTimeout(t *testing.T) {
	l := New()
	assert.True(t, l.ReadLock())
	ok := l.WriteLock(20 * time.Millisecond)
	assert.False(t, ok)
	l.ReadUnlock()
}

func TestRWLock_Delete(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.Delete()
	}()
	wg.Wait()
	assert.False(t, l.ReadLock())
	assert.False(t, l.WriteLock(0))
}
