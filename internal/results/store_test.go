package results

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typing-server/internal/types"
)

// newTestStore creates a temporary bbolt store for testing.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func makeResult(typed, errs int) types.Result {
	return NewResult(types.ResultRequest{
		CharsTyped: typed,
		Errors:     errs,
		TextLength: typed,
		DurationMs: 1500,
	}, types.SourceFile)
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		typed, errs, want int
	}{
		{0, 0, 100},
		{10, 0, 100},
		{10, 1, 90},
		{3, 1, 67},
		{8, 1, 88},
		{2, 1, 50},
		{5, 5, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Accuracy(tt.typed, tt.errs), "typed=%d errors=%d", tt.typed, tt.errs)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(types.ResultRequest{CharsTyped: 10, Errors: 10}))
	assert.NoError(t, Validate(types.ResultRequest{}))

	err := Validate(types.ResultRequest{CharsTyped: 3, Errors: 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidResult))

	err = Validate(types.ResultRequest{CharsTyped: -1})
	assert.True(t, errors.Is(err, ErrInvalidResult))

	err = Validate(types.ResultRequest{DurationMs: -5})
	assert.True(t, errors.Is(err, ErrInvalidResult))
}

func TestNewResult(t *testing.T) {
	res := makeResult(10, 1)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 90, res.Accuracy)
	assert.Equal(t, types.SourceFile, res.Source)
	assert.WithinDuration(t, time.Now(), res.CreatedAt, time.Minute)
	assert.NotEqual(t, res.ID, makeResult(10, 1).ID)
}

func TestSaveAndRecent(t *testing.T) {
	store, _ := newTestStore(t)

	var saved []types.Result
	for i := 1; i <= 5; i++ {
		res := makeResult(i*10, i)
		require.NoError(t, store.Save(res))
		saved = append(saved, res)
	}

	got, err := store.Recent(3)
	require.NoError(t, err)

	want := []types.Result{saved[4], saved[3], saved[2]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Recent(3) mismatch (-want +got):\n%s", diff)
	}

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestRecentEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	got, err := store.Recent(DefaultLimit)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = store.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPersistsAcrossReopen(t *testing.T) {
	store, path := newTestStore(t)
	res := makeResult(20, 2)
	require.NoError(t, store.Save(res))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Recent(1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, res.ID, got[0].ID)
	assert.Equal(t, 90, got[0].Accuracy)

	// New saves continue after the existing sequence
	later := makeResult(4, 0)
	require.NoError(t, reopened.Save(later))
	got, err = reopened.Recent(2)
	require.NoError(t, err)
	assert.Equal(t, later.ID, got[0].ID)
}

func TestConcurrentSaves(t *testing.T) {
	store, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, store.Save(makeResult(n+1, 0)))
		}(i)
	}
	wg.Wait()

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}
