package radio

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/radiopm/radiopm-server/internal/models"
	"github.com/radiopm/radiopm-server/internal/ps"
	"github.com/radiopm/radiopm-server/internal/storage"
)

type fakeTransport struct {
	mu    sync.Mutex
	sends []bool
	err   error
}

func (f *fakeTransport) SendRequest(ctx context.Context, enable bool, params ps.Parameters) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sends = append(f.sends, enable)
	return nil
}

// stubStore implements storage.Store in memory for manager tests.
type stubStore struct {
	mu       sync.Mutex
	adapters map[uuid.UUID]*models.Adapter
	events   []*models.EventLog
}

func newStubStore() *stubStore {
	return &stubStore{adapters: make(map[uuid.UUID]*models.Adapter)}
}

func (s *stubStore) BeginTx(ctx context.Context) (storage.Store, error) { return s, nil }
func (s *stubStore) Commit() error                                      { return nil }
func (s *stubStore) Rollback() error                                    { return nil }
func (s *stubStore) Close() error                                       { return nil }

func (s *stubStore) CreateUser(ctx context.Context, user *models.User) error { return nil }
func (s *stubStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, storage.ErrNotFound
}
func (s *stubStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, storage.ErrNotFound
}
func (s *stubStore) UpdateUser(ctx context.Context, user *models.User) error { return nil }
func (s *stubStore) DeleteUser(ctx context.Context, id uuid.UUID) error      { return nil }
func (s *stubStore) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (s *stubStore) CreateAdapter(ctx context.Context, adapter *models.Adapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if adapter.ID == uuid.Nil {
		adapter.ID = uuid.New()
	}
	s.adapters[adapter.ID] = adapter
	return nil
}

func (s *stubStore) GetAdapter(ctx context.Context, id uuid.UUID) (*models.Adapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.adapters[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *stubStore) GetAdapterByMAC(ctx context.Context, mac string) (*models.Adapter, error) {
	return nil, storage.ErrNotFound
}

func (s *stubStore) UpdateAdapter(ctx context.Context, adapter *models.Adapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.adapters[adapter.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *adapter
	s.adapters[adapter.ID] = &cp
	return nil
}

func (s *stubStore) DeleteAdapter(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.adapters, id)
	return nil
}

func (s *stubStore) ListAdapters(ctx context.Context, limit, offset int) ([]*models.Adapter, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Adapter, 0, len(s.adapters))
	for _, a := range s.adapters {
		cp := *a
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (s *stubStore) CreateEventLog(ctx context.Context, event *models.EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *stubStore) ListEventLogs(ctx context.Context, filters storage.EventLogFilters, limit, offset int) ([]*models.EventLog, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events, int64(len(s.events)), nil
}

func (s *stubStore) eventTypes() []models.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]models.EventType, len(s.events))
	for i, e := range s.events {
		types[i] = e.Type
	}
	return types
}

func newTestManager(t *testing.T) (*Manager, *stubStore, *fakeTransport, uuid.UUID) {
	t.Helper()

	store := newStubStore()
	adapter := &models.Adapter{
		Name:       "wlan0",
		MACAddress: "00:11:22:33:44:55",
		PowerSave:  models.PSParameters(ps.DefaultParameters()),
	}
	if err := store.CreateAdapter(context.Background(), adapter); err != nil {
		t.Fatalf("CreateAdapter: %v", err)
	}

	tr := &fakeTransport{}
	mgr := NewManager(store, nil, ps.DefaultParameters(), func(adapterID string) ps.Transport {
		return tr
	})
	return mgr, store, tr, adapter.ID
}

func TestManagerEnableConfirmCycle(t *testing.T) {
	mgr, store, tr, id := newTestManager(t)
	ctx := context.Background()

	if err := mgr.RequestEnable(ctx, id); err != nil {
		t.Fatalf("RequestEnable: %v", err)
	}
	if st, _ := mgr.State(ctx, id); st != ps.StateEnablePending {
		t.Fatalf("state = %s, want %s", st, ps.StateEnablePending)
	}

	if err := mgr.HandleConfirmation(ctx, id, ps.ConfirmationSleep); err != nil {
		t.Fatalf("HandleConfirmation: %v", err)
	}
	if st, _ := mgr.State(ctx, id); st != ps.StateEnabled {
		t.Fatalf("state = %s, want %s", st, ps.StateEnabled)
	}

	if len(tr.sends) != 1 || !tr.sends[0] {
		t.Fatalf("sends = %v, want [true]", tr.sends)
	}

	types := store.eventTypes()
	want := []models.EventType{models.EventTypePSRequest, models.EventTypePSConfirm}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, types[i], want[i])
		}
	}
}

func TestManagerRejectedRequestLogged(t *testing.T) {
	mgr, store, _, id := newTestManager(t)
	ctx := context.Background()

	err := mgr.RequestDisable(ctx, id)
	if !errors.Is(err, ps.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}

	types := store.eventTypes()
	if len(types) != 1 || types[0] != models.EventTypePSRejected {
		t.Fatalf("event types = %v, want [PS_REJECTED]", types)
	}
}

func TestManagerUnknownAdapter(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)

	err := mgr.RequestEnable(context.Background(), uuid.New())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestManagerUnexpectedConfirmationLogged(t *testing.T) {
	mgr, store, _, id := newTestManager(t)
	ctx := context.Background()

	err := mgr.HandleConfirmation(ctx, id, ps.ConfirmationWakeup)
	if !errors.Is(err, ps.ErrUnexpectedConfirmation) {
		t.Fatalf("err = %v, want ErrUnexpectedConfirmation", err)
	}
	if st, _ := mgr.State(ctx, id); st != ps.StateIdle {
		t.Fatalf("state = %s, want %s", st, ps.StateIdle)
	}

	types := store.eventTypes()
	if len(types) != 1 || types[0] != models.EventTypePSAnomaly {
		t.Fatalf("event types = %v, want [PS_ANOMALY]", types)
	}
}

func TestManagerSetParameters(t *testing.T) {
	mgr, store, _, id := newTestManager(t)
	ctx := context.Background()

	params := ps.DefaultParameters()
	params.SleepType = ps.SleepTypeULP
	params.ListenInterval = 400

	if err := mgr.SetParameters(ctx, id, params); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}

	got, err := mgr.Parameters(ctx, id)
	if err != nil {
		t.Fatalf("Parameters: %v", err)
	}
	if got.SleepType != ps.SleepTypeULP || got.ListenInterval != 400 {
		t.Fatalf("params = %+v", got)
	}

	stored, err := store.GetAdapter(ctx, id)
	if err != nil {
		t.Fatalf("GetAdapter: %v", err)
	}
	if stored.PowerSave.SleepType != ps.SleepTypeULP {
		t.Fatalf("stored sleep type = %d, want %d", stored.PowerSave.SleepType, ps.SleepTypeULP)
	}
}

func TestManagerRemove(t *testing.T) {
	mgr, _, _, id := newTestManager(t)
	ctx := context.Background()

	if err := mgr.RequestEnable(ctx, id); err != nil {
		t.Fatalf("RequestEnable: %v", err)
	}

	mgr.Remove(id)

	// A fresh controller starts over in Idle.
	if st, _ := mgr.State(ctx, id); st != ps.StateIdle {
		t.Fatalf("state after remove = %s, want %s", st, ps.StateIdle)
	}
}
