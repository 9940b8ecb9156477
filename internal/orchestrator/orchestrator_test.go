package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/config"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/dependency"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/services"
)

func testConfig() *config.StackConfig {
	return &config.StackConfig{
		StackName: "soc",
		Run: config.RunSettings{
			MaxConcurrentStarts: 2,
			HealthTimeout:       200 * time.Millisecond,
			HealthInterval:      20 * time.Millisecond,
		},
	}
}

// buildStack registers mock services for the canonical topology:
// cassandra and elasticsearch at level 0, thehive (cassandra +
// elasticsearch) and cortex (elasticsearch) at level 1.
func buildStack(t *testing.T, rec *recorder) (*Orchestrator, map[string]*mockService, *mockCleaner) {
	t.Helper()

	mocks := map[string]*mockService{
		"cassandra":     newMockService("cassandra", nil, rec),
		"elasticsearch": newMockService("elasticsearch", nil, rec),
		"thehive":       newMockService("thehive", []string{"cassandra", "elasticsearch"}, rec),
		"cortex":        newMockService("cortex", []string{"elasticsearch"}, rec),
	}

	registry := services.NewRegistry()
	for _, label := range []string{"cassandra", "elasticsearch", "thehive", "cortex"} {
		require.NoError(t, registry.Register(mocks[label]))
	}

	cleaner := &mockCleaner{}
	orch, err := New(testConfig(), registry, cleaner)
	require.NoError(t, err)

	// Probes pass immediately unless a test overrides the factory.
	orch.SetProberFactory(func(spec config.ServiceSpec) (Prober, error) {
		return proberFunc(func(ctx context.Context) error { return nil }), nil
	})

	return orch, mocks, cleaner
}

func TestUpStartsDependenciesFirst(t *testing.T) {
	rec := &recorder{}
	orch, mocks, _ := buildStack(t, rec)

	require.NoError(t, orch.Up(context.Background()))

	for _, m := range mocks {
		assert.Equal(t, services.StateRunning, m.GetState(), m.label)
		assert.Equal(t, services.HealthHealthy, m.GetHealth(), m.label)
	}

	assert.Less(t, rec.indexOf("start:cassandra"), rec.indexOf("start:thehive"))
	assert.Less(t, rec.indexOf("start:elasticsearch"), rec.indexOf("start:thehive"))
	assert.Less(t, rec.indexOf("start:elasticsearch"), rec.indexOf("start:cortex"))
}

func TestUpBoundsConcurrency(t *testing.T) {
	rec := &recorder{}

	mocks := make(map[string]*mockService)
	registry := services.NewRegistry()
	for _, label := range []string{"a", "b", "c", "d", "e"} {
		m := newMockService(label, nil, rec)
		mocks[label] = m
		require.NoError(t, registry.Register(m))
	}

	cfg := testConfig()
	cfg.Run.MaxConcurrentStarts = 2

	orch, err := New(cfg, registry, nil)
	require.NoError(t, err)

	var inFlight, peak atomic.Int32
	var mu sync.Mutex
	orch.SetProberFactory(func(spec config.ServiceSpec) (Prober, error) {
		return proberFunc(func(ctx context.Context) error {
			n := inFlight.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			time.Sleep(30 * time.Millisecond)
			inFlight.Add(-1)
			return nil
		}), nil
	})

	require.NoError(t, orch.Up(context.Background()))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestUpHealthTimeoutCascadesToDependents(t *testing.T) {
	rec := &recorder{}
	orch, mocks, _ := buildStack(t, rec)

	orch.SetProberFactory(func(spec config.ServiceSpec) (Prober, error) {
		if spec.Name == "cassandra" {
			return proberFunc(func(ctx context.Context) error {
				return errors.New("connection refused")
			}), nil
		}
		return proberFunc(func(ctx context.Context) error { return nil }), nil
	})

	err := orch.Up(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cassandra")
	assert.Contains(t, err.Error(), "thehive")

	assert.Equal(t, services.StateFailed, mocks["cassandra"].GetState())
	assert.Equal(t, services.StateFailed, mocks["thehive"].GetState())

	// The elasticsearch branch is independent of cassandra and keeps going.
	assert.Equal(t, services.StateRunning, mocks["elasticsearch"].GetState())
	assert.Equal(t, services.StateRunning, mocks["cortex"].GetState())

	// thehive is never started once its dependency failed.
	assert.Equal(t, -1, rec.indexOf("start:thehive"))

	reason, ok := orch.failReason("thehive")
	require.True(t, ok)
	assert.Equal(t, ReasonDependencyFailed, reason)

	reason, ok = orch.failReason("cassandra")
	require.True(t, ok)
	assert.Equal(t, ReasonHealthTimeout, reason)
}

func TestUpFailureReachesIndirectDependents(t *testing.T) {
	rec := &recorder{}

	// Three-deep chain: a failure at the root must fail the whole
	// subtree, including services with no direct edge to the root.
	mocks := map[string]*mockService{
		"cassandra": newMockService("cassandra", nil, rec),
		"thehive":   newMockService("thehive", []string{"cassandra"}, rec),
		"webhook":   newMockService("webhook", []string{"thehive"}, rec),
	}

	registry := services.NewRegistry()
	for _, label := range []string{"cassandra", "thehive", "webhook"} {
		require.NoError(t, registry.Register(mocks[label]))
	}
	orch, err := New(testConfig(), registry, &mockCleaner{})
	require.NoError(t, err)

	orch.SetProberFactory(func(spec config.ServiceSpec) (Prober, error) {
		return proberFunc(func(ctx context.Context) error {
			return errors.New("connection refused")
		}), nil
	})

	require.Error(t, orch.Up(context.Background()))

	for _, label := range []string{"thehive", "webhook"} {
		reason, ok := orch.failReason(label)
		require.True(t, ok, label)
		assert.Equal(t, ReasonDependencyFailed, reason, label)
		assert.Equal(t, -1, rec.indexOf("start:"+label))
		assert.Equal(t, services.StateFailed, mocks[label].GetState())
	}

	reason, ok := orch.failReason("cassandra")
	require.True(t, ok)
	assert.Equal(t, ReasonHealthTimeout, reason)
}

func TestUpStartErrorMarksFailed(t *testing.T) {
	rec := &recorder{}
	orch, mocks, _ := buildStack(t, rec)
	mocks["elasticsearch"].startErr = errors.New("image pull failed")

	err := orch.Up(context.Background())
	require.Error(t, err)

	assert.Equal(t, services.StateFailed, mocks["elasticsearch"].GetState())
	assert.Equal(t, services.StateFailed, mocks["thehive"].GetState())
	assert.Equal(t, services.StateFailed, mocks["cortex"].GetState())
	assert.Equal(t, services.StateRunning, mocks["cassandra"].GetState())
}

func TestUpCancellation(t *testing.T) {
	rec := &recorder{}
	orch, _, _ := buildStack(t, rec)

	ctx, cancel := context.WithCancel(context.Background())
	orch.SetProberFactory(func(spec config.ServiceSpec) (Prober, error) {
		return proberFunc(func(probeCtx context.Context) error {
			cancel()
			return errors.New("not yet")
		}), nil
	})

	err := orch.Up(ctx)
	require.Error(t, err)

	reason, ok := orch.failReason("cassandra")
	require.True(t, ok)
	assert.Equal(t, ReasonCanceled, reason)
}

func TestDownStopsInReverseOrder(t *testing.T) {
	rec := &recorder{}
	orch, _, cleaner := buildStack(t, rec)

	require.NoError(t, orch.Up(context.Background()))
	require.NoError(t, orch.Down(context.Background()))

	assert.Less(t, rec.indexOf("stop:thehive"), rec.indexOf("stop:cassandra"))
	assert.Less(t, rec.indexOf("stop:thehive"), rec.indexOf("stop:elasticsearch"))
	assert.Less(t, rec.indexOf("stop:cortex"), rec.indexOf("stop:elasticsearch"))

	assert.Equal(t, 1, cleaner.containersCalls)
	assert.Equal(t, 1, cleaner.networkCalls)
	assert.Empty(t, cleaner.volumeCalls, "down must never touch volumes")
}

func TestDownCollectsStopErrors(t *testing.T) {
	rec := &recorder{}
	orch, mocks, _ := buildStack(t, rec)
	mocks["thehive"].stopErr = errors.New("stuck")

	require.NoError(t, orch.Up(context.Background()))
	err := orch.Down(context.Background())
	require.Error(t, err)

	// Other services are still stopped despite the failure.
	assert.NotEqual(t, -1, rec.indexOf("stop:cassandra"))
	assert.NotEqual(t, -1, rec.indexOf("stop:elasticsearch"))
}

func TestRestartRegatesService(t *testing.T) {
	rec := &recorder{}
	orch, mocks, _ := buildStack(t, rec)

	require.NoError(t, orch.Up(context.Background()))
	require.NoError(t, orch.Restart(context.Background(), "cortex"))

	assert.Equal(t, services.StateRunning, mocks["cortex"].GetState())

	// Dependents are not bounced.
	starts := 0
	for _, e := range rec.all() {
		if e == "start:thehive" {
			starts++
		}
	}
	assert.Equal(t, 1, starts)
}

func TestRestartUnknownService(t *testing.T) {
	rec := &recorder{}
	orch, _, _ := buildStack(t, rec)

	err := orch.Restart(context.Background(), "grafana")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grafana")
}

func TestResetRequiresConfirmation(t *testing.T) {
	rec := &recorder{}
	orch, _, cleaner := buildStack(t, rec)

	err := orch.Reset(context.Background(), false)
	require.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Empty(t, cleaner.volumeCalls)
}

func TestResetDestroysDataVolumes(t *testing.T) {
	rec := &recorder{}
	orch, _, cleaner := buildStack(t, rec)

	require.NoError(t, orch.Up(context.Background()))
	require.NoError(t, orch.Reset(context.Background(), true))

	require.Len(t, cleaner.volumeCalls, 1)
	assert.True(t, cleaner.volumeCalls[0], "reset removes data volumes only")
	assert.Equal(t, 1, cleaner.containersCalls)
}

func TestStatusSnapshotInStartupOrder(t *testing.T) {
	rec := &recorder{}
	orch, mocks, _ := buildStack(t, rec)
	require.NoError(t, orch.Up(context.Background()))
	mocks["cortex"].UpdateState(services.StateFailed, services.HealthUnhealthy, errors.New("crashed"))

	statuses, err := orch.Status()
	require.NoError(t, err)
	require.Len(t, statuses, 4)

	byName := make(map[string]int)
	for i, st := range statuses {
		byName[st.Name] = i
	}
	assert.Less(t, byName["cassandra"], byName["thehive"])
	assert.Less(t, byName["elasticsearch"], byName["cortex"])

	assert.Equal(t, services.StateFailed, statuses[byName["cortex"]].State)
	assert.Equal(t, "crashed", statuses[byName["cortex"]].Error)
}

func TestNewRejectsCycles(t *testing.T) {
	rec := &recorder{}
	registry := services.NewRegistry()
	require.NoError(t, registry.Register(newMockService("a", []string{"b"}, rec)))
	require.NoError(t, registry.Register(newMockService("b", []string{"a"}, rec)))

	_, err := New(testConfig(), registry, nil)
	require.Error(t, err)

	var cycleErr *dependency.CycleError
	assert.True(t, errors.As(err, &cycleErr))
}

func TestNewRejectsUnknownDependency(t *testing.T) {
	rec := &recorder{}
	registry := services.NewRegistry()
	require.NoError(t, registry.Register(newMockService("thehive", []string{"cassandra"}, rec)))

	_, err := New(testConfig(), registry, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cassandra")
}
