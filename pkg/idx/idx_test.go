package idx_test

import (
	"sort"
	"testing"
	"time"

	"github.com/aussiebroadwan/tuckshop/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.Len(t, id.String(), 26)
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  idx.ID
		err   bool
	}{
		{"canonical", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", false},
		{"lowercase", "01hq7t3z1mz0jq3m6mzq1fq3zv", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", false},
		{"padded", "  01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV\n", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", false},
		{"empty", "", idx.Zero, true},
		{"too short", "01HQ7T3Z", idx.Zero, true},
		{"bad alphabet", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZU", idx.Zero, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Parse(tt.input)
			if tt.err {
				require.ErrorIs(t, err, idx.ErrInvalid)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = idx.NewAt(at).String()
	}
	require.True(t, sort.StringsAreSorted(ids))
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	require.WithinDuration(t, tm, idx.NewAt(tm).Time(), time.Millisecond)
	require.True(t, idx.Zero.Time().IsZero())
}

func TestMustParsePanics(t *testing.T) {
	require.Panics(t, func() { idx.MustParse("nope") })
}
