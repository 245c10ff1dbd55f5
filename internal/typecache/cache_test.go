package typecache

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/mixer/internal/identity"
	"github.com/roach88/mixer/internal/ir"
)

type fakeType struct {
	name string
}

func (t *fakeType) TypeName() string               { return t.name }
func (t *fakeType) Constructors() []ir.Constructor { return nil }

func testIdentity(mixin ir.TypeName, overriders ...string) identity.CompositionIdentity {
	refs := make([]ir.MethodRef, len(overriders))
	for i, name := range overriders {
		refs[i] = ir.MethodRef{DeclaringType: "shop.Order", Name: name, Signature: "()"}
	}
	return identity.Build(ir.NewDescriptor(mixin), refs, nil)
}

// countingBuilder returns a fresh type per call and counts calls.
func countingBuilder(calls *atomic.Int64, delay time.Duration) Builder {
	return BuilderFunc(func(p Plan) (GeneratedType, error) {
		calls.Add(1)
		time.Sleep(delay)
		return &fakeType{name: string(p.Identity.Mixin().Name()) + "_Concrete"}, nil
	})
}

func TestGetOrCreate_BuildsOnce(t *testing.T) {
	var calls atomic.Int64
	c := New(WithBuilder(countingBuilder(&calls, 0)))
	id := testIdentity("shop.AuditMixin", "Total")

	first, err := c.GetOrCreate(id)
	require.NoError(t, err)
	second, err := c.GetOrCreate(testIdentity("shop.AuditMixin", "Total"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, 1, c.Len())

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Builds)
	assert.Zero(t, stats.Failures)
}

func TestGetOrCreate_ConcurrentSameIdentity(t *testing.T) {
	var calls atomic.Int64
	c := New(WithBuilder(countingBuilder(&calls, 20*time.Millisecond)))

	const callers = 64
	results := make([]GeneratedType, callers)

	var g errgroup.Group
	for i := range callers {
		g.Go(func() error {
			// Each caller builds its own identity value; only the content matters.
			typ, err := c.GetOrCreate(testIdentity("shop.AuditMixin", "Total", "Save"))
			results[i] = typ
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), calls.Load(), "builder must run exactly once")
	for i := 1; i < callers; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, 1, c.Len())
}

func TestGetOrCreate_DistinctIdentitiesBuildInParallel(t *testing.T) {
	aStarted := make(chan struct{})
	bStarted := make(chan struct{})

	c := New(WithBuilder(BuilderFunc(func(p Plan) (GeneratedType, error) {
		switch p.Identity.Mixin().Name() {
		case "shop.A":
			close(aStarted)
			select {
			case <-bStarted:
			case <-time.After(2 * time.Second):
				return nil, errors.New("build of shop.B never started")
			}
		case "shop.B":
			close(bStarted)
			select {
			case <-aStarted:
			case <-time.After(2 * time.Second):
				return nil, errors.New("build of shop.A never started")
			}
		}
		return &fakeType{name: string(p.Identity.Mixin().Name())}, nil
	})))

	var g errgroup.Group
	for _, name := range []ir.TypeName{"shop.A", "shop.B"} {
		g.Go(func() error {
			_, err := c.GetOrCreate(testIdentity(name))
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 2, c.Len())
}

func TestGetOrCreate_FailureIsNotCached(t *testing.T) {
	boom := errors.New("emit failed")
	var calls atomic.Int64

	c := New(WithBuilder(BuilderFunc(func(p Plan) (GeneratedType, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return &fakeType{name: "ok"}, nil
	})))
	id := testIdentity("shop.AuditMixin")

	_, err := c.GetOrCreate(id)
	require.Error(t, err)
	assert.True(t, IsBuildError(err))
	assert.ErrorIs(t, err, boom)

	var be *CompositionBuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ir.TypeName("shop.AuditMixin"), be.Mixin)
	assert.Equal(t, id.Key(), be.Key)

	_, ok := c.Lookup(id)
	assert.False(t, ok)
	assert.Zero(t, c.Len())

	typ, err := c.GetOrCreate(id)
	require.NoError(t, err)
	assert.Equal(t, "ok", typ.TypeName())
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, uint64(1), c.Stats().Failures)
}

func TestGetOrCreate_WaitersOfFailedBuildSeeItsError(t *testing.T) {
	boom := errors.New("emit failed")
	c := New(WithBuilder(BuilderFunc(func(p Plan) (GeneratedType, error) {
		time.Sleep(20 * time.Millisecond)
		return nil, boom
	})))

	const callers = 16
	errs := make([]error, callers)

	var g errgroup.Group
	for i := range callers {
		g.Go(func() error {
			_, errs[i] = c.GetOrCreate(testIdentity("shop.AuditMixin"))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, err := range errs {
		assert.ErrorIs(t, err, boom)
		assert.True(t, IsBuildError(err))
	}
	assert.Zero(t, c.Len())
}

func TestGetOrCreate_PassesPlan(t *testing.T) {
	var got Plan
	c := New(WithBuilder(BuilderFunc(func(p Plan) (GeneratedType, error) {
		got = p
		return &fakeType{name: "t"}, nil
	})))

	id := testIdentity("shop.AuditMixin", "Total")
	ctx := ir.NewMixinContext(id.Mixin(), ir.WithKind(ir.KindUsed), ir.WithPriority(3))

	_, err := c.GetOrCreate(id, ctx)
	require.NoError(t, err)

	assert.True(t, got.Identity.Equal(id))
	require.Len(t, got.Contexts, 1)
	assert.Equal(t, ir.KindUsed, got.Contexts[0].Kind())
	assert.Equal(t, 3, got.Contexts[0].Priority())
}

func TestGetOrCreate_FirstCallerContextsWin(t *testing.T) {
	var plans []Plan
	c := New(WithBuilder(BuilderFunc(func(p Plan) (GeneratedType, error) {
		plans = append(plans, p)
		return &fakeType{name: "t"}, nil
	})))

	id := testIdentity("shop.AuditMixin", "Total")
	first := ir.NewMixinContext(id.Mixin(), ir.WithPriority(1))
	second := ir.NewMixinContext(id.Mixin(), ir.WithPriority(2))

	a, err := c.GetOrCreate(id, first)
	require.NoError(t, err)
	b, err := c.GetOrCreate(id, second)
	require.NoError(t, err)

	assert.Same(t, a, b)
	require.Len(t, plans, 1)
	require.Len(t, plans[0].Contexts, 1)
	assert.Equal(t, 1, plans[0].Contexts[0].Priority())
	assert.Equal(t, uint64(1), c.Stats().Hits)
}

func TestGetOrCreate_Errors(t *testing.T) {
	t.Run("zero identity", func(t *testing.T) {
		c := New(WithBuilder(countingBuilder(new(atomic.Int64), 0)))
		_, err := c.GetOrCreate(identity.CompositionIdentity{})
		assert.ErrorIs(t, err, ErrZeroIdentity)
	})

	t.Run("no builder", func(t *testing.T) {
		c := New()
		_, err := c.GetOrCreate(testIdentity("shop.AuditMixin"))
		assert.ErrorIs(t, err, ErrNoBuilder)
		assert.True(t, IsBuildError(err))
	})

	t.Run("nil type", func(t *testing.T) {
		c := New(WithBuilder(BuilderFunc(func(Plan) (GeneratedType, error) {
			return nil, nil
		})))
		_, err := c.GetOrCreate(testIdentity("shop.AuditMixin"))
		assert.ErrorIs(t, err, ErrNilType)
	})
}

func TestLookup(t *testing.T) {
	c := New(WithBuilder(countingBuilder(new(atomic.Int64), 0)))
	id := testIdentity("shop.AuditMixin")

	_, ok := c.Lookup(id)
	assert.False(t, ok)

	built, err := c.GetOrCreate(id)
	require.NoError(t, err)

	found, ok := c.Lookup(id)
	require.True(t, ok)
	assert.Same(t, built, found)

	_, ok = c.Lookup(identity.CompositionIdentity{})
	assert.False(t, ok)
}
