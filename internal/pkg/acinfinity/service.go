package acinfinity

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

const portSettingsConcurrency = 4

type apiClient interface {
	GetDevicesListAll(ctx context.Context) ([]map[string]any, error)
	GetDeviceModeSettingsList(ctx context.Context, controllerID string, port int) (map[string]any, error)
	Close()
}

type portKey struct {
	controllerID string
	port         int
}

type sensorKey struct {
	controllerID string
	port         int
	sensorType   model.SensorType
}

// snapshot is an immutable view of one successful poll.
type snapshot struct {
	order       []string
	controllers map[string]map[string]any
	ports       map[portKey]map[string]any
	sensors     map[sensorKey]map[string]any
	controls    map[portKey]map[string]any
}

// Service holds the last successful poll and answers property lookups
// against it. Refresh swaps the whole snapshot, so readers never observe a
// half-updated state.
type Service struct {
	client apiClient
	logger *zap.Logger

	mu   sync.RWMutex
	snap *snapshot
}

func NewService(client apiClient) *Service {
	return &Service{
		client: client,
		logger: zap.L(),
		snap:   emptySnapshot(),
	}
}

func emptySnapshot() *snapshot {
	return &snapshot{
		controllers: map[string]map[string]any{},
		ports:       map[portKey]map[string]any{},
		sensors:     map[sensorKey]map[string]any{},
		controls:    map[portKey]map[string]any{},
	}
}

// Refresh polls the API. On error the previous snapshot stays in place.
func (s *Service) Refresh(ctx context.Context) error {
	raw, err := s.client.GetDevicesListAll(ctx)
	if err != nil {
		return err
	}
	snap := buildSnapshot(raw)

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(portSettingsConcurrency)
	for key := range snap.ports {
		eg.Go(func() error {
			settings, err := s.client.GetDeviceModeSettingsList(egCtx, key.controllerID, key.port)
			if err != nil {
				return err
			}
			mu.Lock()
			snap.controls[key] = settings
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	s.logger.Debug("refreshed ac infinity data",
		zap.Int("controllers", len(snap.order)),
		zap.Int("ports", len(snap.ports)),
		zap.Int("sensors", len(snap.sensors)))
	return nil
}

func (s *Service) Close() {
	s.client.Close()
}

func buildSnapshot(raw []map[string]any) *snapshot {
	snap := emptySnapshot()
	for _, controller := range raw {
		id := cast.ToString(normalize(controller[model.ControllerKeyDeviceID]))
		if id == "" {
			continue
		}
		if _, dup := snap.controllers[id]; !dup {
			snap.order = append(snap.order, id)
		}
		snap.controllers[id] = controller

		info, _ := controller[model.ControllerKeyDeviceInfo].(map[string]any)
		for _, p := range objects(info[model.ControllerKeyPorts]) {
			port, err := cast.ToIntE(normalize(p[model.DeviceKeyPort]))
			if err != nil {
				continue
			}
			snap.ports[portKey{id, port}] = p
		}
		for _, sensor := range objects(info[model.ControllerKeySensors]) {
			port, perr := cast.ToIntE(normalize(sensor[model.SensorKeyPort]))
			typ, terr := cast.ToIntE(normalize(sensor[model.SensorKeyType]))
			if perr != nil || terr != nil {
				continue
			}
			snap.sensors[sensorKey{id, port, model.SensorType(typ)}] = sensor
		}
	}
	return snap
}

func objects(v any) []map[string]any {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func (s *Service) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// DeviceIDs returns controller ids in API order.
func (s *Service) DeviceIDs() []string {
	snap := s.current()
	out := make([]string, len(snap.order))
	copy(out, snap.order)
	return out
}

func (s *Service) ControllerProperty(controllerID, key string) Value {
	controller, ok := s.current().controllers[controllerID]
	if !ok {
		return Value{}
	}
	if v, ok := controller[key]; ok {
		return found(v)
	}
	if info, ok := controller[model.ControllerKeyDeviceInfo].(map[string]any); ok {
		if v, ok := info[key]; ok {
			return found(v)
		}
	}
	return Value{}
}

func (s *Service) SensorProperty(controllerID string, sensorPort int, sensorType model.SensorType, key string) Value {
	sensor, ok := s.current().sensors[sensorKey{controllerID, sensorPort, sensorType}]
	if !ok {
		return Value{}
	}
	v, ok := sensor[key]
	if !ok {
		return Value{}
	}
	return found(v)
}

func (s *Service) DeviceProperty(controllerID string, port int, key string) Value {
	p, ok := s.current().ports[portKey{controllerID, port}]
	if !ok {
		return Value{}
	}
	v, ok := p[key]
	if !ok {
		return Value{}
	}
	return found(v)
}

func (s *Service) DeviceControl(controllerID string, port int, key string) Value {
	controls, ok := s.current().controls[portKey{controllerID, port}]
	if !ok {
		return Value{}
	}
	v, ok := controls[key]
	if !ok {
		return Value{}
	}
	return found(v)
}

// PortCount prefers the advertised port count and falls back to the number
// of ports actually reported.
func (s *Service) PortCount(controllerID string) int {
	if n := s.ControllerProperty(controllerID, model.ControllerKeyPortCount).Int(0); n > 0 {
		return n
	}
	count := 0
	for key := range s.current().ports {
		if key.controllerID == controllerID {
			count++
		}
	}
	return count
}

func (s *Service) ControllerName(controllerID string) string {
	return s.ControllerProperty(controllerID, model.ControllerKeyDeviceName).String(fmt.Sprintf("Device %s", controllerID))
}
