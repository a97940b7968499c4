package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/auth"
	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
)

// MockUserStore implements UserStore for testing
type MockUserStore struct {
	GetByEmailFunc          func(ctx context.Context, email string) (*models.User, error)
	GetByIDFunc             func(ctx context.Context, id string) (*models.User, error)
	UpdateLoginAttemptsFunc func(ctx context.Context, user *models.User) error
	UpdateMFAFunc           func(ctx context.Context, user *models.User) error
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) UpdateLoginAttempts(ctx context.Context, user *models.User) error {
	if m.UpdateLoginAttemptsFunc != nil {
		return m.UpdateLoginAttemptsFunc(ctx, user)
	}
	return nil
}

func (m *MockUserStore) UpdateMFA(ctx context.Context, user *models.User) error {
	if m.UpdateMFAFunc != nil {
		return m.UpdateMFAFunc(ctx, user)
	}
	return nil
}

// MockRevocationStore implements RevocationStore for testing
type MockRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time

	RevokeFunc    func(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevokedFunc func(ctx context.Context, jti string) (bool, error)
}

func (m *MockRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, jti, expiresAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked == nil {
		m.revoked = make(map[string]time.Time)
	}
	m.revoked[jti] = expiresAt
	return nil
}

func (m *MockRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if m.IsRevokedFunc != nil {
		return m.IsRevokedFunc(ctx, jti)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

// MockCondominiumStore implements CondominiumStore for testing
type MockCondominiumStore struct {
	GetBySlugFunc func(ctx context.Context, slug string) (*models.Condominium, error)
}

func (m *MockCondominiumStore) GetBySlug(ctx context.Context, slug string) (*models.Condominium, error) {
	if m.GetBySlugFunc != nil {
		return m.GetBySlugFunc(ctx, slug)
	}
	return nil, models.ErrNotFound
}

// MemoryLedger is an in-memory RefreshTokenStore with the same
// exactly-once consumption semantics as the Postgres ledger, including
// chain revocation across parent links.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[string]*models.RefreshTokenRecord
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]*models.RefreshTokenRecord)}
}

func (l *MemoryLedger) Store(ctx context.Context, record *models.RefreshTokenRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	clone := *record
	l.records[record.ID] = &clone
	return nil
}

func (l *MemoryLedger) FindByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshTokenRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.TokenHash == tokenHash {
			clone := *r
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (l *MemoryLedger) MarkAsUsed(ctx context.Context, id string, usedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.records[id]
	if !ok {
		return models.ErrNotFound
	}
	if r.UsedAt != nil {
		return models.ErrConflict
	}
	r.UsedAt = &usedAt
	return nil
}

func (l *MemoryLedger) RevokeChain(ctx context.Context, id string, revokedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	chain := map[string]bool{id: true}
	for {
		grew := false
		for _, r := range l.records {
			if chain[r.ID] {
				if r.ParentID != nil && !chain[*r.ParentID] {
					chain[*r.ParentID] = true
					grew = true
				}
				continue
			}
			if r.ParentID != nil && chain[*r.ParentID] {
				chain[r.ID] = true
				grew = true
			}
		}
		if !grew {
			break
		}
	}

	for rid := range chain {
		if r, ok := l.records[rid]; ok && r.RevokedAt == nil {
			ts := revokedAt
			r.RevokedAt = &ts
		}
	}
	return nil
}

func (l *MemoryLedger) RevokeAllForUser(ctx context.Context, userID string, revokedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.UserID == userID && r.RevokedAt == nil {
			ts := revokedAt
			r.RevokedAt = &ts
		}
	}
	return nil
}

// Get returns a copy of a ledger record by ID.
func (l *MemoryLedger) Get(id string) (*models.RefreshTokenRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.records[id]
	if !ok {
		return nil, false
	}
	clone := *r
	return &clone, true
}

// Len returns the number of ledger records.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// RecordingDispatcher captures dispatched events for assertions.
type RecordingDispatcher struct {
	mu     sync.Mutex
	events []models.Event
}

func (d *RecordingDispatcher) Dispatch(ctx context.Context, event models.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *RecordingDispatcher) Events() []models.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Event, len(d.events))
	copy(out, d.events)
	return out
}

// Named returns all captured events with the given name.
func (d *RecordingDispatcher) Named(name string) []models.Event {
	var out []models.Event
	for _, e := range d.Events() {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

// plainHasher trades bcrypt for string equality so service tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (plainHasher) Verify(plain, hash string) bool { return hash == "hashed:"+plain }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestAuthService wires an AuthService over in-memory stores with the
// timing floor disabled.
func newTestAuthService(users UserStore) (*AuthService, *MemoryLedger, *MockRevocationStore, *RecordingDispatcher) {
	ledger := NewMemoryLedger()
	revocations := &MockRevocationStore{}
	dispatcher := &RecordingDispatcher{}

	svc := NewAuthService(
		users,
		ledger,
		revocations,
		auth.NewTokenManager("test-secret-test-secret-test-secret!"),
		plainHasher{},
		auth.NewTimingDelay(auth.TimingConfig{}),
		dispatcher,
		testLogger(),
		7*24*time.Hour,
	)
	return svc, ledger, revocations, dispatcher
}
