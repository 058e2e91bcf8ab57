package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/radiopm/radiopm-server/internal/auth"
	"github.com/radiopm/radiopm-server/internal/config"
	"github.com/radiopm/radiopm-server/internal/models"
	"github.com/radiopm/radiopm-server/internal/ps"
	"github.com/radiopm/radiopm-server/internal/radio"
	"github.com/radiopm/radiopm-server/internal/storage"
	"github.com/radiopm/radiopm-server/pkg/crypto"
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

// stubStore implements storage.Store in memory for API tests.
type stubStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	adapters map[uuid.UUID]*models.Adapter
	events   []*models.EventLog
}

func newStubStore() *stubStore {
	return &stubStore{
		users:    make(map[uuid.UUID]*models.User),
		adapters: make(map[uuid.UUID]*models.Adapter),
	}
}

func (s *stubStore) BeginTx(ctx context.Context) (storage.Store, error) { return s, nil }
func (s *stubStore) Commit() error                                      { return nil }
func (s *stubStore) Rollback() error                                    { return nil }
func (s *stubStore) Close() error                                       { return nil }

func (s *stubStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return storage.ErrDuplicateKey
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *stubStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *stubStore) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *stubStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *stubStore) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (s *stubStore) CreateAdapter(ctx context.Context, adapter *models.Adapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if adapter.ID == uuid.Nil {
		adapter.ID = uuid.New()
	}
	for _, a := range s.adapters {
		if a.MACAddress == adapter.MACAddress {
			return storage.ErrDuplicateKey
		}
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
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.adapters {
		if a.MACAddress == mac {
			cp := *a
			return &cp, nil
		}
	}
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
	if _, ok := s.adapters[id]; !ok {
		return storage.ErrNotFound
	}
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

type testEnv struct {
	server    *RESTServer
	store     *stubStore
	transport *fakeTransport
	token     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Name: "radiopm-server", Version: "test"},
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		PowerSave: config.PowerSaveConfig{SleepType: "lp"},
	}

	store := newStubStore()
	tr := &fakeTransport{}
	mgr := radio.NewManager(store, nil, cfg.DefaultParameters(), func(adapterID string) ps.Transport {
		return tr
	})

	hash, err := crypto.HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &models.User{
		Email:        "admin@example.com",
		Username:     "admin",
		PasswordHash: hash,
		IsAdmin:      true,
		IsActive:     true,
	}
	if err := store.CreateUser(context.Background(), admin); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	srv := NewRESTServer(cfg, store, mgr)

	token, _, err := auth.NewJWTManager(&cfg.JWT).GenerateTokenPair(admin)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	return &testEnv{server: srv, store: store, transport: tr, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)

	w := httptest.NewRecorder()
	e.server.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createAdapter(t *testing.T) uuid.UUID {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/adapters", map[string]string{
		"name":       "wlan0",
		"macAddress": "00:11:22:33:44:55",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create adapter status = %d, body %s", w.Code, w.Body.String())
	}

	var adapter models.Adapter
	if err := json.Unmarshal(w.Body.Bytes(), &adapter); err != nil {
		t.Fatalf("decode adapter: %v", err)
	}
	return adapter.ID
}

func TestHealthNoAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	env.server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAdaptersRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/adapters", nil)
	w := httptest.NewRecorder()
	env.server.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewBufferString(`{"email":"admin@example.com","password":"password123"}`))
	w := httptest.NewRecorder()
	env.server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["access_token"] == "" {
		t.Fatal("expected access token")
	}
}

func TestLoginBadPassword(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewBufferString(`{"email":"admin@example.com","password":"wrong"}`))
	w := httptest.NewRecorder()
	env.server.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestCreateAdapterRejectsBadMAC(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/adapters", map[string]string{
		"name":       "wlan0",
		"macAddress": "not-a-mac",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestPowerSaveEnableFlow(t *testing.T) {
	env := newTestEnv(t)
	id := env.createAdapter(t)

	w := env.do(t, http.MethodPost, "/api/v1/adapters/"+id.String()+"/power-save/enable", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("enable status = %d, body %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["state"] != ps.StateEnablePending.String() {
		t.Fatalf("state = %s, want %s", resp["state"], ps.StateEnablePending)
	}

	if len(env.transport.sends) != 1 || !env.transport.sends[0] {
		t.Fatalf("sends = %v, want [true]", env.transport.sends)
	}
}

func TestPowerSaveDoubleEnableConflict(t *testing.T) {
	env := newTestEnv(t)
	id := env.createAdapter(t)

	if w := env.do(t, http.MethodPost, "/api/v1/adapters/"+id.String()+"/power-save/enable", nil); w.Code != http.StatusAccepted {
		t.Fatalf("first enable status = %d", w.Code)
	}

	w := env.do(t, http.MethodPost, "/api/v1/adapters/"+id.String()+"/power-save/enable", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second enable status = %d, want 409", w.Code)
	}
}

func TestPowerSaveSendFailure(t *testing.T) {
	env := newTestEnv(t)
	id := env.createAdapter(t)

	env.transport.err = context.DeadlineExceeded

	w := env.do(t, http.MethodPost, "/api/v1/adapters/"+id.String()+"/power-save/enable", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
}

func TestPowerSaveUnknownAdapter(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/adapters/"+uuid.NewString()+"/power-save/enable", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestUpdatePowerSaveParams(t *testing.T) {
	env := newTestEnv(t)
	id := env.createAdapter(t)

	params := ps.DefaultParameters()
	params.SleepType = ps.SleepTypeULP

	w := env.do(t, http.MethodPut, "/api/v1/adapters/"+id.String()+"/power-save/params", params)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/v1/adapters/"+id.String()+"/power-save", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	var resp struct {
		State  string        `json:"state"`
		Params ps.Parameters `json:"params"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != ps.StateIdle.String() {
		t.Fatalf("state = %s, want %s", resp.State, ps.StateIdle)
	}
	if resp.Params.SleepType != ps.SleepTypeULP {
		t.Fatalf("sleep type = %d, want %d", resp.Params.SleepType, ps.SleepTypeULP)
	}
}

func TestUpdatePowerSaveParamsRejectsBadSleepType(t *testing.T) {
	env := newTestEnv(t)
	id := env.createAdapter(t)

	params := ps.DefaultParameters()
	params.SleepType = 7

	w := env.do(t, http.MethodPut, "/api/v1/adapters/"+id.String()+"/power-save/params", params)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
