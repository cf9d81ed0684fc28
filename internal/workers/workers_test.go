// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package workers

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolCap(t *testing.T) {
	pool := New()
	pool.SetMaxParallelism(2)
	require.True(t, pool.IsEnabled())
	require.False(t, pool.IsUnlimited())
	require.Equal(t, 2, pool.MaxParallelism())

	// Occupy both workers with tasks blocked on release.
	release := make(chan struct{})
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		ok := pool.StartIfAvailable(func() {
			defer wg.Done()
			<-release
		})
		require.True(t, ok)
	}

	// Pool is full now, an extra task must be rejected.
	assert.False(t, pool.StartIfAvailable(func() {}))

	// After the running tasks finish, capacity is available again.
	close(release)
	wg.Wait()
	require.Eventually(t, func() bool {
		done := make(chan struct{})
		if !pool.StartIfAvailable(func() { close(done) }) {
			return false
		}
		<-done
		return true
	}, time.Second, time.Millisecond)
}

func TestPoolDisabled(t *testing.T) {
	pool := New()
	pool.SetMaxParallelism(0)
	require.False(t, pool.IsEnabled())

	// A disabled pool never takes tasks: the caller runs them inline.
	ran := false
	assert.False(t, pool.StartIfAvailable(func() { ran = true }))
	assert.False(t, ran)
}

func TestPoolUnlimited(t *testing.T) {
	pool := New()
	pool.SetMaxParallelism(-1)
	require.True(t, pool.IsEnabled())
	require.True(t, pool.IsUnlimited())

	const numTasks = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	count := 0
	for range numTasks {
		wg.Add(1)
		ok := pool.StartIfAvailable(func() {
			defer wg.Done()
			mu.Lock()
			count++
			mu.Unlock()
		})
		require.True(t, ok)
	}
	wg.Wait()
	require.Equal(t, numTasks, count)
}

func TestDefault(t *testing.T) {
	pool := Default()
	require.NotNil(t, pool)
	require.Same(t, pool, Default())
	assert.True(t, pool.IsEnabled())
	assert.Equal(t, runtime.NumCPU(), pool.MaxParallelism())
}
