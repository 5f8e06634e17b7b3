package service_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/devhub/devhub-api/internal/auth"
	"github.com/devhub/devhub-api/internal/domain"
	"github.com/devhub/devhub-api/internal/events"
	"github.com/devhub/devhub-api/internal/repository"
	apperrors "github.com/devhub/devhub-api/pkg/util"
)

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func testCodecKey() *rsa.PrivateKey {
	keyOnce.Do(func() {
		var err error
		testKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})
	return testKey
}

func testCodec() *auth.TransportCodec {
	key := testCodecKey()
	return auth.NewTransportCodec(&key.PublicKey, key)
}

func testHasher() *auth.Argon2idHasher {
	return auth.NewArgon2idHasher(auth.Argon2Params{Time: 1, MemoryKiB: 1024, Threads: 1})
}

// memUsers is an in-memory UserRepository.
type memUsers struct {
	mu       sync.Mutex
	byName   map[string]*domain.ProjectUser
	failWith error
	rehashed map[string]string
}

var _ repository.UserRepository = (*memUsers)(nil)

func newMemUsers() *memUsers {
	return &memUsers{byName: map[string]*domain.ProjectUser{}, rehashed: map[string]string{}}
}

func (m *memUsers) put(user domain.ProjectUser) *domain.ProjectUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.byName[user.Username] = &user
	return &user
}

func (m *memUsers) Create(_ context.Context, user *domain.ProjectUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.byName[user.Username]; ok {
		return repository.ErrDuplicateUser
	}
	user.ID = uuid.NewString()
	user.Active = true
	user.CreatedAt = time.Now().UTC()
	stored := *user
	m.byName[user.Username] = &stored
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*domain.ProjectUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	user, ok := m.byName[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (m *memUsers) List(context.Context) ([]domain.ProjectUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	users := make([]domain.ProjectUser, 0, len(m.byName))
	for _, user := range m.byName {
		copied := *user
		copied.PasswordHash = ""
		users = append(users, copied)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *memUsers) Delete(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	_, ok := m.byName[username]
	delete(m.byName, username)
	return ok, nil
}

func (m *memUsers) SetActive(_ context.Context, username string, active bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	user, ok := m.byName[username]
	if ok {
		user.Active = active
	}
	return ok, nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byName {
		if user.ID == id {
			user.PasswordHash = hash
			m.rehashed[id] = hash
			return nil
		}
	}
	return pgx.ErrNoRows
}

// eventLog captures every published event of the given types.
type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func recordEvents(d events.Dispatcher, types ...events.EventType) *eventLog {
	log := &eventLog{}
	for _, eventType := range types {
		d.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			log.mu.Lock()
			defer log.mu.Unlock()
			log.events = append(log.events, e)
			return nil
		})
	}
	return log
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func (l *eventLog) last() events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

func opaqueStore(t *testing.T) (*auth.OpaqueTokenStore, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return auth.NewOpaqueTokenStore(repository.NewRedisCredentialRepository(client), zap.NewNop()), mini
}

func domainError(t *testing.T, err error) *apperrors.DomainError {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return domainErr
}
