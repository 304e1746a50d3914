// Package session keeps bounded per-user conversation histories and recognizes
// corrections of a previous answer.
package session

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/konsti/internal/models"
)

// ErrSessionExpired is returned when appending to a deleted or timed-out session.
// Expired keys never come back; callers start a new session under a new key.
var ErrSessionExpired = errors.New("session expired")

// Key prefixes for the three kinds of identity.
const (
	AuthPrefix  = "auth_"
	GuestPrefix = "guest_"
	TempPrefix  = "temp_"
)

// State is the lifecycle state of a session key.
type State int

const (
	StateNew State = iota
	StateActive
	StateExpired
)

// String returns the API name of the state.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

const (
	defaultMaxTurns         = 10
	defaultGuestTTL         = time.Hour
	defaultPurgeProbability = 0.1
	defaultTombstones       = 4096
	contextQuestions        = 3
)

type history struct {
	turns      []models.ConversationTurn
	lastActive time.Time
}

// Store holds conversation histories in memory. It is safe for concurrent use.
type Store struct {
	maxTurns         int
	guestTTL         time.Duration
	purgeProbability float64
	tombstoneSize    int
	now              func() time.Time
	rand             func() float64
	logger           *zap.Logger

	mu         sync.Mutex
	sessions   map[string]*history
	tombstones *lru.Cache[string, time.Time]
}

// Option configures a Store.
type Option func(*Store)

// WithMaxTurns bounds every history; older turns are dropped first.
func WithMaxTurns(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxTurns = n
		}
	}
}

// WithGuestTTL sets how long a guest session may stay idle.
func WithGuestTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.guestTTL = d
		}
	}
}

// WithPurgeProbability sets the chance that a history read also purges idle guests.
func WithPurgeProbability(p float64) Option {
	return func(s *Store) {
		if p >= 0 && p <= 1 {
			s.purgeProbability = p
		}
	}
}

// WithTombstoneSize bounds how many expired keys are remembered.
func WithTombstoneSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.tombstoneSize = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRand replaces the purge coin, which must return values in [0,1).
func WithRand(r func() float64) Option {
	return func(s *Store) { s.rand = r }
}

// WithLogger sets a logger for purges.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty Store.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		maxTurns:         defaultMaxTurns,
		guestTTL:         defaultGuestTTL,
		purgeProbability: defaultPurgeProbability,
		tombstoneSize:    defaultTombstones,
		now:              time.Now,
		rand:             rand.Float64,
		logger:           zap.NewNop(),
		sessions:         make(map[string]*history),
	}
	for _, opt := range opts {
		opt(s)
	}
	tombstones, err := lru.New[string, time.Time](s.tombstoneSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create tombstone cache: %w", err)
	}
	s.tombstones = tombstones
	return s, nil
}

// KeyFor derives the session key of a caller: the authenticated user wins over the
// guest session, and a caller with neither gets a one-off temporary key.
func (s *Store) KeyFor(userID, sessionID string) string {
	if userID = strings.TrimSpace(userID); userID != "" {
		return AuthPrefix + userID
	}
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		return GuestPrefix + sessionID
	}
	return TempPrefix + strconv.FormatInt(s.now().UnixNano(), 10)
}

// Append adds a turn to the session, creating it on first use.
func (s *Store) Append(key string, role models.Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.expireIfIdle(key, now) || s.tombstones.Contains(key) {
		return fmt.Errorf("session %s: %w", key, ErrSessionExpired)
	}
	h, ok := s.sessions[key]
	if !ok {
		h = &history{}
		s.sessions[key] = h
	}
	h.turns = append(h.turns, models.ConversationTurn{
		Role:      role,
		Content:   content,
		Timestamp: float64(now.UnixNano()) / 1e9,
	})
	if extra := len(h.turns) - s.maxTurns; extra > 0 {
		h.turns = append([]models.ConversationTurn(nil), h.turns[extra:]...)
	}
	h.lastActive = now
	return nil
}

// RecentHistory returns up to maxTurns of the latest turns, oldest first.
// maxTurns <= 0 returns the whole bounded history. Reads occasionally purge idle guests.
func (s *Store) RecentHistory(key string, maxTurns int) []models.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.rand() < s.purgeProbability {
		s.purge(now)
	}
	if s.expireIfIdle(key, now) {
		return []models.ConversationTurn{}
	}
	h, ok := s.sessions[key]
	if !ok {
		return []models.ConversationTurn{}
	}
	turns := h.turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	return append([]models.ConversationTurn{}, turns...)
}

// Delete destroys a session. The key is expired for good.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	s.tombstones.Add(key, s.now())
}

// State reports where key is in its lifecycle.
func (s *Store) State(key string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tombstones.Contains(key) {
		return StateExpired
	}
	h, ok := s.sessions[key]
	if !ok {
		return StateNew
	}
	if s.idle(key, h, s.now()) {
		return StateExpired
	}
	return StateActive
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// LastExchange returns the latest user question and the assistant answer that followed it.
func (s *Store) LastExchange(key string) (question, answer string, ok bool) {
	turns := s.RecentHistory(key, 0)
	for i := len(turns) - 1; i > 0; i-- {
		if turns[i].Role == models.RoleAssistant && turns[i-1].Role == models.RoleUser {
			return turns[i-1].Content, turns[i].Content, true
		}
	}
	return "", "", false
}

// ContextFromHistory joins the latest user questions of the session, oldest first,
// for use as retrieval context of a follow-up question.
func (s *Store) ContextFromHistory(key string) string {
	turns := s.RecentHistory(key, 0)
	var questions []string
	for i := len(turns) - 1; i >= 0 && len(questions) < contextQuestions; i-- {
		if turns[i].Role == models.RoleUser {
			questions = append(questions, turns[i].Content)
		}
	}
	for i, j := 0, len(questions)-1; i < j; i, j = i+1, j-1 {
		questions[i], questions[j] = questions[j], questions[i]
	}
	return strings.Join(questions, " ")
}

func (s *Store) idle(key string, h *history, now time.Time) bool {
	return strings.HasPrefix(key, GuestPrefix) && now.Sub(h.lastActive) >= s.guestTTL
}

// expireIfIdle tombstones key when it is an idle guest session. Callers hold s.mu.
func (s *Store) expireIfIdle(key string, now time.Time) bool {
	h, ok := s.sessions[key]
	if !ok || !s.idle(key, h, now) {
		return false
	}
	delete(s.sessions, key)
	s.tombstones.Add(key, now)
	return true
}

// purge expires every idle guest session. Callers hold s.mu.
func (s *Store) purge(now time.Time) {
	purged := 0
	for key, h := range s.sessions {
		if s.idle(key, h, now) {
			delete(s.sessions, key)
			s.tombstones.Add(key, now)
			purged++
		}
	}
	if purged > 0 {
		s.logger.Debug("purged idle guest sessions", zap.Int("count", purged))
	}
}
