package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"termdeck/log"
)

func init() {
	// The pool logs grant failures and losses; tests need the loggers live.
	log.Initialize()
}

type fakeSurface struct {
	attached Context
	detaches int
}

func (s *fakeSurface) Attach(ctx Context) { s.attached = ctx }
func (s *fakeSurface) Detach()            { s.attached = nil; s.detaches++ }

type fakeContext struct {
	destroyed  bool
	destroyErr error
	lossFn     func()
}

func (c *fakeContext) Paint(Frame) string { return "" }
func (c *fakeContext) Destroy() error {
	c.destroyed = true
	return c.destroyErr
}
func (c *fakeContext) SetLossHandler(fn func()) { c.lossFn = fn }

type fakeBackend struct {
	failNext   bool
	destroyErr error
	created    []*fakeContext
}

func (b *fakeBackend) Name() string { return "fake" }
func (b *fakeBackend) Init() error  { return nil }
func (b *fakeBackend) Close()       {}
func (b *fakeBackend) NewContext(Surface) (Context, error) {
	if b.failNext {
		b.failNext = false
		return nil, errors.New("out of contexts")
	}
	ctx := &fakeContext{destroyErr: b.destroyErr}
	b.created = append(b.created, ctx)
	return ctx, nil
}

// last returns the most recently created context.
func (b *fakeBackend) last() *fakeContext {
	return b.created[len(b.created)-1]
}

func newTestPool(capacity int) (*Pool, *fakeBackend) {
	backend := &fakeBackend{}
	pool := NewPool(Capabilities{Supported: true, MaxContexts: capacity}, backend)
	return pool, backend
}

// requireInvariants checks |active| <= N and set(lru) == keys(active).
func requireInvariants(t *testing.T, p *Pool) {
	t.Helper()
	stats := p.Stats()
	require.LessOrEqual(t, stats.ActiveContexts, stats.MaxContexts)
	require.Len(t, stats.LRUOrder, stats.ActiveContexts)
	seen := make(map[string]bool)
	for _, id := range stats.LRUOrder {
		require.False(t, seen[id], "duplicate lru entry %q", id)
		require.True(t, p.HasContext(id))
		seen[id] = true
	}
}

func TestAcquireGrantsUpToCapacity(t *testing.T) {
	pool, _ := newTestPool(2)
	a, b := &fakeSurface{}, &fakeSurface{}
	pool.Register("a", a)
	pool.Register("b", b)

	require.True(t, pool.Acquire("a"))
	require.True(t, pool.Acquire("b"))
	require.True(t, pool.HasContext("a"))
	require.True(t, pool.HasContext("b"))
	require.NotNil(t, a.attached)
	require.NotNil(t, b.attached)
	requireInvariants(t, pool)
}

func TestAcquireUnregisteredReturnsFalse(t *testing.T) {
	pool, _ := newTestPool(2)
	require.False(t, pool.Acquire("ghost"))
	requireInvariants(t, pool)
}

func TestAcquireEvictsLeastRecentlyUsed(t *testing.T) {
	pool, backend := newTestPool(2)
	for _, id := range []string{"a", "b", "c"} {
		pool.Register(id, &fakeSurface{})
	}

	require.True(t, pool.Acquire("a"))
	require.True(t, pool.Acquire("b"))

	// Third grant evicts a, the least recently touched.
	require.True(t, pool.Acquire("c"))
	require.False(t, pool.HasContext("a"))
	require.True(t, pool.HasContext("b"))
	require.True(t, pool.HasContext("c"))
	require.True(t, backend.created[0].destroyed)

	// Re-acquiring a now evicts b.
	require.True(t, pool.Acquire("a"))
	require.False(t, pool.HasContext("b"))
	require.Equal(t, []string{"c", "a"}, pool.Stats().LRUOrder)
	requireInvariants(t, pool)
}

func TestReacquireIsIdempotentAndTouches(t *testing.T) {
	pool, backend := newTestPool(2)
	pool.Register("a", &fakeSurface{})
	pool.Register("b", &fakeSurface{})

	require.True(t, pool.Acquire("a"))
	require.True(t, pool.Acquire("b"))
	require.Equal(t, []string{"a", "b"}, pool.Stats().LRUOrder)

	// Second acquire evicts nothing and moves a to the MRU end.
	require.True(t, pool.Acquire("a"))
	require.Equal(t, 2, pool.Stats().ActiveContexts)
	require.Equal(t, 2, len(backend.created))
	require.Equal(t, []string{"b", "a"}, pool.Stats().LRUOrder)
}

func TestReleaseDestroysAndFreesSlot(t *testing.T) {
	pool, backend := newTestPool(1)
	surface := &fakeSurface{}
	pool.Register("a", surface)

	require.True(t, pool.Acquire("a"))
	pool.Release("a")

	require.False(t, pool.HasContext("a"))
	require.True(t, backend.created[0].destroyed)
	require.Nil(t, surface.attached)
	require.Equal(t, 1, surface.detaches)
	requireInvariants(t, pool)

	// Releasing an id with no context is a no-op.
	pool.Release("a")
	pool.Release("never-registered")
}

func TestDestroyFailureDoesNotBlockBookkeeping(t *testing.T) {
	pool, backend := newTestPool(1)
	backend.destroyErr = errors.New("driver hung")
	pool.Register("a", &fakeSurface{})

	require.True(t, pool.Acquire("a"))
	pool.Release("a")

	require.False(t, pool.HasContext("a"))
	require.Equal(t, 0, pool.Stats().ActiveContexts)
}

func TestGrantFailureLeavesStateUntouched(t *testing.T) {
	pool, backend := newTestPool(2)
	pool.Register("a", &fakeSurface{})
	pool.Register("x", &fakeSurface{})
	require.True(t, pool.Acquire("a"))

	backend.failNext = true
	require.False(t, pool.Acquire("x"))

	stats := pool.Stats()
	require.False(t, pool.HasContext("x"))
	require.NotContains(t, stats.LRUOrder, "x")
	require.Equal(t, 1, stats.ActiveContexts)
	requireInvariants(t, pool)
}

func TestUnsupportedPoolNeverGrants(t *testing.T) {
	pool := NewPool(Capabilities{Supported: false, MaxContexts: 4}, &fakeBackend{})
	pool.Register("a", &fakeSurface{})

	for i := 0; i < 3; i++ {
		require.False(t, pool.Acquire("a"))
	}
	stats := pool.Stats()
	require.False(t, stats.Supported)
	require.Equal(t, 0, stats.ActiveContexts)
	require.Empty(t, stats.LRUOrder)
	require.Equal(t, 1, stats.RegisteredSessions)
}

func TestNilBackendMeansUnsupported(t *testing.T) {
	pool := NewPool(Capabilities{Supported: true, MaxContexts: 4}, nil)
	pool.Register("a", &fakeSurface{})
	require.False(t, pool.Acquire("a"))
}

func TestUnregisterReleasesAndForgets(t *testing.T) {
	pool, backend := newTestPool(2)
	pool.Register("a", &fakeSurface{})
	require.True(t, pool.Acquire("a"))

	pool.Unregister("a")
	require.True(t, backend.created[0].destroyed)
	require.False(t, pool.HasContext("a"))
	require.Equal(t, 0, pool.Stats().RegisteredSessions)

	// Unregistered sessions can no longer acquire.
	require.False(t, pool.Acquire("a"))

	// Unknown ids are a no-op.
	pool.Unregister("ghost")
}

func TestReregisterReplacesSurfaceOnly(t *testing.T) {
	pool, _ := newTestPool(2)
	first := &fakeSurface{}
	pool.Register("a", first)
	require.True(t, pool.Acquire("a"))

	second := &fakeSurface{}
	pool.Register("a", second)

	// No implicit grant or revoke.
	require.True(t, pool.HasContext("a"))
	require.Equal(t, 1, pool.Stats().RegisteredSessions)

	// The replacement surface is the one detached on release.
	pool.Release("a")
	require.Equal(t, 1, second.detaches)
	require.Equal(t, 0, first.detaches)
}

func TestLossNotificationReconcilesWithoutDestroy(t *testing.T) {
	pool, backend := newTestPool(2)
	surface := &fakeSurface{}
	pool.Register("y", surface)
	require.True(t, pool.Acquire("y"))

	lost := backend.last()
	require.NotNil(t, lost.lossFn)
	lost.lossFn()

	require.False(t, pool.HasContext("y"))
	require.Equal(t, 0, pool.Stats().ActiveContexts)
	require.False(t, lost.destroyed, "already-invalid handle must not be destroyed")
	require.Nil(t, surface.attached)

	// The session stays registered and may re-acquire.
	require.True(t, pool.Acquire("y"))
	require.True(t, pool.HasContext("y"))
}

func TestStaleLossNotificationIsIgnored(t *testing.T) {
	pool, backend := newTestPool(2)
	pool.Register("a", &fakeSurface{})
	require.True(t, pool.Acquire("a"))
	first := backend.last()
	firstLoss := first.lossFn

	pool.Release("a")
	require.True(t, pool.Acquire("a"))

	// The old handle's notification fires after a re-grant; the pool must
	// not drop the fresh context for it.
	if firstLoss != nil {
		firstLoss()
	}
	pool.reconcileLoss("a", first)
	require.True(t, pool.HasContext("a"))
}

func TestLossAfterUnregisterIsSafe(t *testing.T) {
	pool, backend := newTestPool(2)
	pool.Register("a", &fakeSurface{})
	require.True(t, pool.Acquire("a"))
	lost := backend.last()

	pool.Unregister("a")
	// The backend may still deliver a loss for the destroyed handle.
	pool.reconcileLoss("a", lost)
	require.Equal(t, 0, pool.Stats().ActiveContexts)
}

func TestReleaseAll(t *testing.T) {
	pool, backend := newTestPool(3)
	for _, id := range []string{"a", "b", "c"} {
		pool.Register(id, &fakeSurface{})
		require.True(t, pool.Acquire(id))
	}

	pool.ReleaseAll()

	stats := pool.Stats()
	require.Equal(t, 0, stats.ActiveContexts)
	require.Empty(t, stats.LRUOrder)
	require.Equal(t, 3, stats.RegisteredSessions)
	for _, ctx := range backend.created {
		require.True(t, ctx.destroyed)
	}
}

func TestStatsSnapshot(t *testing.T) {
	pool, _ := newTestPool(2)
	pool.Register("a", &fakeSurface{})
	pool.Register("b", &fakeSurface{})
	require.True(t, pool.Acquire("a"))
	require.True(t, pool.Acquire("b"))

	stats := pool.Stats()
	require.True(t, stats.Supported)
	require.Equal(t, 2, stats.MaxContexts)
	require.Equal(t, 2, stats.ActiveContexts)
	require.Equal(t, 2, stats.RegisteredSessions)
	require.Equal(t, []string{"a", "b"}, stats.LRUOrder)

	// The snapshot is a copy; mutating it must not touch pool state.
	stats.LRUOrder[0] = "mutated"
	require.Equal(t, []string{"a", "b"}, pool.Stats().LRUOrder)
}

func TestInvariantsAcrossMixedWorkload(t *testing.T) {
	pool, _ := newTestPool(2)
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		pool.Register(id, &fakeSurface{})
	}

	script := []string{"a", "b", "a", "c", "d", "b", "a", "d", "c"}
	for _, id := range script {
		require.True(t, pool.Acquire(id))
		requireInvariants(t, pool)
	}
	pool.Release("a")
	requireInvariants(t, pool)
	pool.Unregister("b")
	requireInvariants(t, pool)
	pool.ReleaseAll()
	requireInvariants(t, pool)
}
