package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/acinfinity-integration/internal/pkg/acinfinity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/acinfinity/acinfinitytest"
	"github.com/anicoll/acinfinity-integration/internal/pkg/entity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/metrics"
	"github.com/anicoll/acinfinity-integration/internal/pkg/migrator"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
	"github.com/anicoll/acinfinity-integration/internal/pkg/publisher"
	"github.com/anicoll/acinfinity-integration/internal/pkg/reconciler"
)

var errNoEntry = errors.New("no such entry")

type fakeEntries struct {
	mu    sync.Mutex
	entry *model.Entry
	saves int
}

func (f *fakeEntries) LoadEntry(_ context.Context, id string) (*model.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entry == nil || f.entry.ID != id {
		return nil, errNoEntry
	}
	return f.entry.Clone(), nil
}

func (f *fakeEntries) SaveEntry(_ context.Context, entry *model.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entry = entry.Clone()
	f.saves++
	return nil
}

type fakeRegistry struct {
	mu         sync.Mutex
	registered map[string]*entity.Entity
	devices    []model.Device
	removed    []string
	pruned     int
}

func newFakeRegistry(devices ...model.Device) *fakeRegistry {
	return &fakeRegistry{registered: map[string]*entity.Entity{}, devices: devices}
}

func (f *fakeRegistry) RegisterEntity(_ context.Context, e *entity.Entity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered[e.UniqueID] = e
	for _, d := range f.devices {
		if d.Identifier == e.Device.Identifier {
			return nil
		}
	}
	f.devices = append(f.devices, e.Device)
	return nil
}

func (f *fakeRegistry) Prune(_ context.Context, _ string, keep []*entity.Entity) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := map[string]bool{}
	for _, e := range keep {
		wanted[e.UniqueID] = true
	}
	n := 0
	for id := range f.registered {
		if !wanted[id] {
			delete(f.registered, id)
			n++
		}
	}
	f.pruned += n
	return n, nil
}

func (f *fakeRegistry) Devices(_ context.Context, _ string) ([]model.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Device(nil), f.devices...), nil
}

func (f *fakeRegistry) RemoveDevice(_ context.Context, identifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, identifier)
	for i, d := range f.devices {
		if d.Identifier == identifier {
			f.devices = append(f.devices[:i], f.devices[i+1:]...)
			break
		}
	}
	return nil
}

type recorder struct {
	mu     sync.Mutex
	writes [][]model.EntityState
}

func (r *recorder) Write(_ context.Context, states []model.EntityState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, states)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

type harness struct {
	coordinator *Coordinator
	client      *acinfinitytest.Client
	entries     *fakeEntries
	registry    *fakeRegistry
	recorder    *recorder
	metrics     *metrics.Metrics
}

func newHarness(t *testing.T, entry *model.Entry, devices ...model.Device) *harness {
	t.Helper()
	restore := zap.ReplaceGlobals(zaptest.NewLogger(t))
	publisher.Reset()
	t.Cleanup(func() {
		publisher.Reset()
		restore()
	})

	h := &harness{
		client:   acinfinitytest.NewClient(),
		entries:  &fakeEntries{entry: entry},
		registry: newFakeRegistry(devices...),
		recorder: &recorder{},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	require.NoError(t, publisher.RegisterPublisher("recorder", h.recorder))

	store := acinfinity.NewService(h.client)
	h.coordinator = New(
		entry.ID,
		h.entries,
		store,
		migrator.New(store, h.entries),
		reconciler.New(store, h.entries, h.registry),
		h.registry,
		h.metrics,
	)
	h.coordinator.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }
	h.coordinator.retryDelay = 10 * time.Millisecond
	return h
}

func currentEntry(entities map[string]model.DeviceConfig) *model.Entry {
	return &model.Entry{
		ID:      "entry",
		Title:   "grower@example.com",
		Version: model.CurrentEntryVersion,
		Data:    model.EntryData{Email: "grower@example.com", Password: "hunter2", Entities: entities},
	}
}

func growTentOnly(t *testing.T) string {
	t.Helper()
	var all []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(acinfinitytest.Controllers), &all))
	out, err := json.Marshal(all[:1])
	require.NoError(t, err)
	return string(out)
}

func TestLoad_AddsNewDevices(t *testing.T) {
	h := newHarness(t, currentEntry(nil))

	require.NoError(t, h.coordinator.Load(context.Background()))

	assert.Equal(t, 1, h.entries.saves)
	assert.Len(t, h.entries.entry.Data.Entities, 2)
	assert.Equal(t, model.EntityConfigSensorsOnly, h.entries.entry.Data.Entities[acinfinitytest.GrowTentID]["port_1"])

	entities := h.coordinator.Entities()
	require.NotEmpty(t, entities)
	assert.Len(t, h.registry.registered, len(entities))
	require.Equal(t, 1, h.recorder.count())
	assert.Len(t, h.recorder.writes[0], len(entities))

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ReloadsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.Controllers))
	assert.Equal(t, float64(h.coordinator.now().Unix()), testutil.ToFloat64(h.metrics.LastPoll))
}

func TestLoad_MigratesVersion1(t *testing.T) {
	entry := currentEntry(nil)
	entry.Version = model.EntryVersion1
	h := newHarness(t, entry)

	require.NoError(t, h.coordinator.Load(context.Background()))

	assert.Equal(t, model.CurrentEntryVersion, h.coordinator.Entry().Version)
	assert.Equal(t, model.EntityConfigAll, h.coordinator.Entry().Data.Entities[acinfinitytest.GrowTentID]["port_3"])
	assert.Equal(t, model.CurrentEntryVersion, h.entries.entry.Version)
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]struct {
		setup    func(h *harness)
		notReady bool
	}{
		"api unreachable": {
			setup:    func(h *harness) { h.client.SetErr(errors.New("connection refused")) },
			notReady: true,
		},
		"missing entry": {
			setup: func(h *harness) { h.entries.entry = nil },
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, currentEntry(nil))
			test.setup(h)

			err := h.coordinator.Load(context.Background())
			require.Error(t, err)
			assert.Equal(t, test.notReady, errors.Is(err, ErrNotReady))
			assert.Empty(t, h.registry.registered)
			assert.Nil(t, h.coordinator.Entry())
		})
	}
}

func TestLoad_DisabledPort(t *testing.T) {
	tent := acinfinitytest.GrowTentID
	cfg := model.NewDeviceConfig(4, model.EntityConfigAll, model.EntityConfigAll, model.EntityConfigAll)
	cfg["port_2"] = model.EntityConfigDisable
	aiCfg := model.NewDeviceConfig(2, model.EntityConfigAll, model.EntityConfigAll, model.EntityConfigAll)
	h := newHarness(t,
		currentEntry(map[string]model.DeviceConfig{tent: cfg, acinfinitytest.AIID: aiCfg}),
		model.Device{Identifier: tent + "_2", EntryID: "entry", Name: "Grow Tent Light"},
	)
	h.registry.registered[tent+"_2_port_status"] = &entity.Entity{UniqueID: tent + "_2_port_status"}

	require.NoError(t, h.coordinator.Load(context.Background()))

	assert.Equal(t, []string{tent + "_2"}, h.registry.removed)
	assert.Equal(t, 1, h.registry.pruned)
	devices := map[string]bool{}
	for _, e := range h.coordinator.Entities() {
		devices[e.Device.Identifier] = true
	}
	assert.False(t, devices[tent+"_2"])
	// a sensor on sensor port 2 is not the device on output port 2
	assert.True(t, devices[tent+"_2_cos3"])
	assert.True(t, devices[tent+"_1"])
	assert.Zero(t, h.entries.saves)
}

func TestPoll(t *testing.T) {
	h := newHarness(t, currentEntry(nil))
	ctx := context.Background()
	require.NoError(t, h.coordinator.Load(ctx))
	require.Equal(t, 1, h.recorder.count())

	h.coordinator.Poll(ctx)
	// only the countdown can move between two polls of the same data
	for _, write := range h.recorder.writes[1:] {
		for _, state := range write {
			assert.Equal(t, model.CustomKeyNextStateChange, state.Key)
		}
	}
	assert.Empty(t, h.coordinator.reload)

	h.client.SetErr(errors.New("timeout"))
	h.coordinator.Poll(ctx)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.PollFailuresTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.PollsTotal))
	assert.NotEmpty(t, h.coordinator.Entities(), "entities survive a failed refresh")
}

func TestPoll_NewControllerRequestsReload(t *testing.T) {
	h := newHarness(t, currentEntry(nil))
	h.client.SetControllers(growTentOnly(t))
	ctx := context.Background()
	require.NoError(t, h.coordinator.Load(ctx))
	assert.Len(t, h.coordinator.Entry().Data.Entities, 1)

	h.client.SetControllers(acinfinitytest.Controllers)
	h.coordinator.Poll(ctx)
	assert.Len(t, h.coordinator.reload, 1)
	assert.Equal(t, 1, h.recorder.count())

	require.NoError(t, h.coordinator.Load(ctx))
	assert.Len(t, h.coordinator.Entry().Data.Entities, 2)
}

func TestReload_Merges(t *testing.T) {
	h := newHarness(t, currentEntry(nil))

	h.coordinator.Reload()
	h.coordinator.Reload()
	assert.Len(t, h.coordinator.reload, 1)
}

func TestRun(t *testing.T) {
	h := newHarness(t, currentEntry(nil))
	h.client.SetErr(errors.New("connection refused"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.coordinator.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.PollFailuresTotal) >= 2
	}, time.Second, 5*time.Millisecond)
	h.client.SetErr(nil)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.ReloadsTotal) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run did not stop")
	}
}

func TestRun_FatalLoadError(t *testing.T) {
	h := newHarness(t, currentEntry(nil))
	h.entries.entry = nil

	assert.ErrorIs(t, h.coordinator.Run(context.Background()), errNoEntry)
}
