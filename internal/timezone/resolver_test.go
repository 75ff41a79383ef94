package timezone

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu            sync.Mutex
	declared      map[string]string
	declaredErr   map[string]error
	inferred      map[string]string
	inferredErr   map[string]error
	declaredCalls int
	inferredCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		declared:    make(map[string]string),
		declaredErr: make(map[string]error),
		inferred:    make(map[string]string),
		inferredErr: make(map[string]error),
	}
}

func (f *fakeSource) CalendarTimezone(ctx context.Context, calendarID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declaredCalls++
	if err := f.declaredErr[calendarID]; err != nil {
		return "", err
	}
	return f.declared[calendarID], nil
}

func (f *fakeSource) InferTimezone(ctx context.Context, calendarID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inferredCalls++
	if err := f.inferredErr[calendarID]; err != nil {
		return "", err
	}
	return f.inferred[calendarID], nil
}

func newTestResolver(t *testing.T, source Source) *Resolver {
	t.Helper()
	r, err := NewResolver(source, 8, nil)
	require.NoError(t, err)
	return r
}

func TestResolveDeclaredTimezone(t *testing.T) {
	source := newFakeSource()
	source.declared["alice@example.com"] = "Europe/Berlin"

	loc, err := newTestResolver(t, source).Resolve(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
	assert.Equal(t, 0, source.inferredCalls, "declared answer skips inference")
}

func TestResolveFallsBackToInference(t *testing.T) {
	source := newFakeSource()
	source.declaredErr["alice@example.com"] = errors.New("api error")
	source.inferred["alice@example.com"] = "America/New_York"

	loc, err := newTestResolver(t, source).Resolve(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestResolveEmptyDeclaredFallsThrough(t *testing.T) {
	source := newFakeSource()
	source.declared["alice@example.com"] = ""
	source.inferred["alice@example.com"] = "Asia/Tokyo"

	loc, err := newTestResolver(t, source).Resolve(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())
}

func TestResolveUnloadableDeclaredFallsThrough(t *testing.T) {
	source := newFakeSource()
	// Google sometimes reports offset pseudo-zones.
	source.declared["alice@example.com"] = "GMT+05:30"
	source.inferred["alice@example.com"] = "Asia/Kolkata"

	loc, err := newTestResolver(t, source).Resolve(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestResolveEverythingFailsYieldsUTC(t *testing.T) {
	source := newFakeSource()
	source.declaredErr["alice@example.com"] = errors.New("down")
	source.inferredErr["alice@example.com"] = errors.New("down")

	loc, err := newTestResolver(t, source).Resolve(context.Background(), "alice@example.com")
	require.NoError(t, err, "resolution is best effort")
	assert.Equal(t, "UTC", loc.String())
}

func TestResolveCachesSuccess(t *testing.T) {
	source := newFakeSource()
	source.declared["alice@example.com"] = "Europe/Berlin"
	resolver := newTestResolver(t, source)

	for i := 0; i < 3; i++ {
		loc, err := resolver.Resolve(context.Background(), "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Europe/Berlin", loc.String())
	}
	assert.Equal(t, 1, source.declaredCalls, "repeat lookups hit the cache")
}

func TestResolveDoesNotCacheFailure(t *testing.T) {
	source := newFakeSource()
	source.declaredErr["alice@example.com"] = errors.New("down")
	source.inferredErr["alice@example.com"] = errors.New("down")
	resolver := newTestResolver(t, source)

	_, err := resolver.Resolve(context.Background(), "alice@example.com")
	require.NoError(t, err)

	// The backend recovers; the next resolve must see it.
	source.mu.Lock()
	delete(source.declaredErr, "alice@example.com")
	source.declared["alice@example.com"] = "Europe/Berlin"
	source.mu.Unlock()

	loc, err := resolver.Resolve(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestResolveEvictsOldEntries(t *testing.T) {
	source := newFakeSource()
	r, err := NewResolver(source, 1, nil)
	require.NoError(t, err)

	source.declared["a@example.com"] = "Europe/Berlin"
	source.declared["b@example.com"] = "Asia/Tokyo"

	_, err = r.Resolve(context.Background(), "a@example.com")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "b@example.com")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "a@example.com")
	require.NoError(t, err)

	assert.Equal(t, 3, source.declaredCalls, "a cache of one evicts the older calendar")
}

func TestNewResolverRejectsBadCacheSize(t *testing.T) {
	_, err := NewResolver(newFakeSource(), 0, nil)
	assert.Error(t, err)
}
