package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_MutualExclusion(t *testing.T) {
	km := newKeyedMutex()
	const workers = 16
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("owner")
			counter++
			km.Unlock("owner")
		}()
	}
	wg.Wait()
	assert.Equal(t, workers, counter)
	assert.Empty(t, km.locks, "entries are released once unused")
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := newKeyedMutex()
	km.Lock("a")

	acquired := make(chan struct{})
	go func() {
		km.Lock("b")
		km.Unlock("b")
		close(acquired)
	}()
	// Holding "a" must not block "b".
	<-acquired

	km.Unlock("a")
	assert.Empty(t, km.locks)
}

func TestKeyedMutex_ReusableAfterRelease(t *testing.T) {
	km := newKeyedMutex()
	for i := 0; i < 3; i++ {
		km.Lock("owner")
		km.Unlock("owner")
	}
	assert.Empty(t, km.locks)
}
