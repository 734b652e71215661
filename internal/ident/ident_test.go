package ident

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate_PairwiseDistinct(t *testing.T) {
	const n = 1000

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		name, err := Generate("uniq")
		require.NoError(t, err)
		_, dup := seen[name]
		require.False(t, dup, "duplicate name %q after %d generations", name, i)
		seen[name] = struct{}{}
	}
}

func TestGenerate_ConcurrentlyDistinct(t *testing.T) {
	const (
		goroutines = 16
		perG       = 100
	)

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, goroutines*perG)
		errs []error
	)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				name, err := Generate("conc")
				mu.Lock()
				if err != nil {
					errs = append(errs, err)
				} else {
					seen[name] = struct{}{}
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, seen, goroutines*perG, "concurrent generations must be pairwise distinct")
}

func TestGenerate_ProducesValidNames(t *testing.T) {
	for _, prefix := range []string{"a", "testdb", "my_app$", strings.Repeat("p", MaxPrefixLength)} {
		name, err := Generate(prefix)
		require.NoError(t, err)
		require.True(t, Valid(name), "generated name %q is not a valid identifier", name)
		require.LessOrEqual(t, len(name), MaxNameLength)
		require.True(t, strings.HasPrefix(name, prefix+"_"))
	}
}

func TestGenerate_FoldsPrefixCase(t *testing.T) {
	name, err := Generate("MyApp")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(name, "myapp_"))
}

func TestGenerate_RetainsEntropyAtMaxPrefix(t *testing.T) {
	prefix := strings.Repeat("x", MaxPrefixLength)

	// Even at the longest allowed prefix the truncated name must keep a
	// random tail beyond the timestamp.
	a, err := Generate(prefix)
	require.NoError(t, err)
	b, err := Generate(prefix)
	require.NoError(t, err)
	require.Equal(t, MaxNameLength, len(a))
	require.NotEqual(t, a, b)
}

func TestCheckPrefix_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"empty", ""},
		{"leading digit", "1db"},
		{"space", "my db"},
		{"hyphen", "my-db"},
		{"too long", strings.Repeat("p", MaxPrefixLength+1)},
		{"non ascii", "dbé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, CheckPrefix(tt.prefix))
			_, err := Generate(tt.prefix)
			require.Error(t, err)
		})
	}
}

func TestValid(t *testing.T) {
	require.True(t, Valid("users_test"))
	require.True(t, Valid("_private"))
	require.False(t, Valid(""))
	require.False(t, Valid("Users"))
	require.False(t, Valid("1users"))
	require.False(t, Valid(strings.Repeat("a", MaxNameLength+1)))
}
