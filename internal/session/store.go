package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"pengeluaran/internal/cache"
	"pengeluaran/internal/core"
)

const (
	DefaultTTL       = 30 * time.Minute
	DefaultMaxActive = 10000
)

// Store holds at most one session per user. Idle sessions expire after the
// configured TTL; the least recently touched ones are dropped once MaxActive
// is exceeded.
type Store struct {
	sessions *cache.LRUCache[Session]
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// Options configures a Store. Zero values fall back to the defaults.
type Options struct {
	TTL       time.Duration
	MaxActive int
	Now       func() time.Time
}

func NewStore(opts Options) *Store {
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxActive <= 0 {
		opts.MaxActive = DefaultMaxActive
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	sessions := cache.NewLRUCache[Session](opts.MaxActive, opts.TTL)
	sessions.SetClock(opts.Now)
	return &Store{
		sessions: sessions,
		now:      opts.Now,
		locks:    make(map[string]*userLock),
	}
}

// Lock serializes work for one user and returns the matching unlock.
// Lock entries are released once no caller holds or waits on them.
func (s *Store) Lock(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			s.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, userID)
			}
			s.mu.Unlock()
		})
	}
}

// Start replaces any session of userID with a fresh one awaiting the amount.
func (s *Store) Start(userID, chatID string, category core.Category) Session {
	now := s.now()
	sess := Session{
		ID:        uuid.New(),
		UserID:    userID,
		ChatID:    chatID,
		State:     AwaitingAmount,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions.Set(userID, sess)
	return sess
}

// Get returns the live session of userID.
func (s *Store) Get(userID string) (Session, bool) {
	return s.sessions.Get(userID)
}

// Save stores sess and restarts its expiry.
func (s *Store) Save(sess Session) Session {
	sess.UpdatedAt = s.now()
	s.sessions.Set(sess.UserID, sess)
	return sess
}

// Delete discards the session of userID and reports whether one existed.
func (s *Store) Delete(userID string) bool {
	_, ok := s.sessions.Get(userID)
	s.sessions.Delete(userID)
	return ok
}

// Len counts stored sessions, including expired ones not yet swept.
func (s *Store) Len() int {
	return s.sessions.Size()
}

// CleanExpired drops expired sessions. It lets a cache.Manager sweep the store.
func (s *Store) CleanExpired() int {
	return s.sessions.CleanExpired()
}
