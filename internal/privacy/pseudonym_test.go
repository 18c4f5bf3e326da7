package privacy

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPseudonymCache_Format(t *testing.T) {
	cache := NewPseudonymCache("CUST_", 16)

	got := cache.Pseudonym("abc")

	// SHA256("abc") = ba7816bf8f01cfea...
	assert.Equal(t, "CUST_ba7816bf8f01cfea", got)
	assert.Len(t, got, len("CUST_")+16)
}

func TestPseudonymCache_Determinism(t *testing.T) {
	ctx := context.Background()
	cache := NewPseudonymCache("CUST_", 16)

	first, err := cache.Anonymize(ctx, "CUST_0001")
	require.NoError(t, err)
	second, err := cache.Anonymize(ctx, "CUST_0001")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())

	// Separate cache with same parameters yields same pseudonym
	other := NewPseudonymCache("CUST_", 16)
	assert.Equal(t, first, other.Pseudonym("CUST_0001"))
}

func TestPseudonymCache_DistinctIDs(t *testing.T) {
	cache := NewPseudonymCache("CUST_", 16)

	seen := make(map[string]string)
	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("CUST_%04d", i)
		p := cache.Pseudonym(id)
		if prev, ok := seen[p]; ok {
			t.Fatalf("collision between %s and %s: %s", prev, id, p)
		}
		seen[p] = id
	}
	assert.Equal(t, 1000, cache.Len())
}

func TestPseudonymCache_Lookup(t *testing.T) {
	cache := NewPseudonymCache("X_", 8)

	_, ok := cache.Lookup("a")
	assert.False(t, ok)

	p := cache.Pseudonym("a")
	got, ok := cache.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, p, got)
	assert.True(t, strings.HasPrefix(p, "X_"))
}

func TestPseudonymCache_HashLengthClamped(t *testing.T) {
	assert.Len(t, NewPseudonymCache("", 0).Pseudonym("a"), 1)
	assert.Len(t, NewPseudonymCache("", 100).Pseudonym("a"), 64)
}

func TestPseudonymCache_Concurrent(t *testing.T) {
	cache := NewPseudonymCache("CUST_", 16)

	var wg sync.WaitGroup
	results := make([]string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Pseudonym("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i])
	}
	assert.Equal(t, 1, cache.Len())
}
