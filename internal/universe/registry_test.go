// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

package universe_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shoprag/universe/internal/universe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCachesHandle(t *testing.T) {
	reg := universe.NewRegistry(t.TempDir(), 3, openFake)

	a, err := reg.Resolve("lore")
	require.NoError(t, err)
	b, err := reg.Resolve("lore")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestResolveCreatesDirectoryLazily(t *testing.T) {
	reg := universe.NewRegistry(t.TempDir(), 3, openFake)

	assert.False(t, reg.Exists("lore"))
	_, err := reg.Resolve("lore")
	require.NoError(t, err)
	assert.True(t, reg.Exists("lore"))
}

func TestEvictForcesFreshHandle(t *testing.T) {
	reg := universe.NewRegistry(t.TempDir(), 3, openFake)

	a, err := reg.Resolve("lore")
	require.NoError(t, err)

	reg.Evict("lore")

	b, err := reg.Resolve("lore")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestResolveAfterDestroyRecreatesCleanly(t *testing.T) {
	ctx := context.Background()
	reg := universe.NewRegistry(t.TempDir(), 3, openFake)

	x, err := reg.Resolve("lore")
	require.NoError(t, err)
	_, err = x.Insert(ctx, "old", []float32{1, 0, 0}, "old")
	require.NoError(t, err)

	require.NoError(t, x.Destroy())
	reg.Evict("lore")
	assert.False(t, reg.Exists("lore"))

	fresh, err := reg.Resolve("lore")
	require.NoError(t, err)
	ids, err := fresh.ListIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestConcurrentResolveYieldsSingleHandle(t *testing.T) {
	reg := universe.NewRegistry(t.TempDir(), 3, openFake)

	const n = 16
	handles := make([]any, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			x, err := reg.Resolve("lore")
			assert.NoError(t, err)
			handles[i] = x
		}()
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, handles[0], handles[i])
	}
}

func TestListIgnoresNonUniverseEntries(t *testing.T) {
	root := t.TempDir()
	reg := universe.NewRegistry(root, 3, openFake)

	_, err := reg.Resolve("valid_name")
	require.NoError(t, err)

	names, err := reg.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"valid_name"}, names)
}

func TestListMissingRootIsEmpty(t *testing.T) {
	reg := universe.NewRegistry("/nonexistent/universe-root", 3, openFake)

	names, err := reg.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}
