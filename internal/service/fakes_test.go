package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"togetherdo/internal/entity"
	"togetherdo/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type counterKey struct {
	user    uuid.UUID
	feature entity.Feature
}

// fakeStore is an in-memory database. Transactions are serialized and roll
// back by restoring a snapshot, which is enough to exercise the conditional
// writes the services depend on.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users        map[uuid.UUID]*entity.User
	sessions     map[uuid.UUID]*entity.Session
	tokens       map[uuid.UUID]*entity.VerificationToken
	counters     map[counterKey]*entity.UsageCounter
	interactions map[uuid.UUID]*entity.Interaction
	friends      map[[2]uuid.UUID]bool
	todos        map[uuid.UUID]*entity.Todo
	subs         map[uuid.UUID]*entity.Subscription
	logs         []entity.SecurityLog

	failTx error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[uuid.UUID]*entity.User{},
		sessions:     map[uuid.UUID]*entity.Session{},
		tokens:       map[uuid.UUID]*entity.VerificationToken{},
		counters:     map[counterKey]*entity.UsageCounter{},
		interactions: map[uuid.UUID]*entity.Interaction{},
		friends:      map[[2]uuid.UUID]bool{},
		todos:        map[uuid.UUID]*entity.Todo{},
		subs:         map[uuid.UUID]*entity.Subscription{},
	}
}

type fakeSnapshot struct {
	users        map[uuid.UUID]entity.User
	sessions     map[uuid.UUID]entity.Session
	tokens       map[uuid.UUID]entity.VerificationToken
	counters     map[counterKey]entity.UsageCounter
	interactions map[uuid.UUID]entity.Interaction
	logs         int
}

func (s *fakeStore) snapshot() fakeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := fakeSnapshot{
		users:        map[uuid.UUID]entity.User{},
		sessions:     map[uuid.UUID]entity.Session{},
		tokens:       map[uuid.UUID]entity.VerificationToken{},
		counters:     map[counterKey]entity.UsageCounter{},
		interactions: map[uuid.UUID]entity.Interaction{},
		logs:         len(s.logs),
	}
	for k, v := range s.users {
		snap.users[k] = *v
	}
	for k, v := range s.sessions {
		snap.sessions[k] = *v
	}
	for k, v := range s.tokens {
		snap.tokens[k] = *v
	}
	for k, v := range s.counters {
		snap.counters[k] = *v
	}
	for k, v := range s.interactions {
		snap.interactions[k] = *v
	}
	return snap
}

func (s *fakeStore) restore(snap fakeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = map[uuid.UUID]*entity.User{}
	for k, v := range snap.users {
		s.users[k] = &v
	}
	s.sessions = map[uuid.UUID]*entity.Session{}
	for k, v := range snap.sessions {
		s.sessions[k] = &v
	}
	s.tokens = map[uuid.UUID]*entity.VerificationToken{}
	for k, v := range snap.tokens {
		s.tokens[k] = &v
	}
	s.counters = map[counterKey]*entity.UsageCounter{}
	for k, v := range snap.counters {
		s.counters[k] = &v
	}
	s.interactions = map[uuid.UUID]*entity.Interaction{}
	for k, v := range snap.interactions {
		s.interactions[k] = &v
	}
	s.logs = s.logs[:snap.logs]
}

func (s *fakeStore) WithinTransaction(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failTx != nil {
		return s.failTx
	}
	snap := s.snapshot()
	if err := fn(fakeTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type fakeTx struct{ s *fakeStore }

func (t fakeTx) Users() repository.UserRepository                      { return fakeUsers{t.s} }
func (t fakeTx) Sessions() repository.SessionRepository                { return fakeSessions{t.s} }
func (t fakeTx) Verifications() repository.VerificationTokenRepository { return fakeTokens{t.s} }
func (t fakeTx) Usage() repository.UsageCounterRepository              { return fakeUsage{t.s} }
func (t fakeTx) Interactions() repository.InteractionRepository        { return fakeInteractions{t.s} }

func (s *fakeStore) addUser(email string) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	user := &entity.User{
		ID:              uuid.New(),
		Email:           email,
		DisplayName:     email,
		Role:            entity.UserRoleUser,
		IsActive:        true,
		EmailVerifiedAt: &now,
	}
	s.users[user.ID] = user
	return user
}

func (s *fakeStore) befriend(a, b uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends[[2]uuid.UUID{a, b}] = true
}

func (s *fakeStore) addTodo(owner uuid.UUID, visibility entity.TodoVisibility) *entity.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	todo := &entity.Todo{ID: uuid.New(), OwnerID: owner, Title: "run 5k", Visibility: visibility}
	s.todos[todo.ID] = todo
	return todo
}

func (s *fakeStore) setSubscription(sub *entity.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.UserID] = sub
}

func (s *fakeStore) interactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.interactions)
}

func (s *fakeStore) counter(userID uuid.UUID, feature entity.Feature) *entity.UsageCounter {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[counterKey{userID, feature}]
	if !ok {
		return nil
	}
	copied := *c
	return &copied
}

func (s *fakeStore) token(id uuid.UUID) entity.VerificationToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tokens[id]
}

type fakeUsers struct{ s *fakeStore }

func (r fakeUsers) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r fakeUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r fakeUsers) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if user, ok := r.s.users[userID]; ok {
		user.PasswordHash = &passwordHash
	}
	return nil
}

func (r fakeUsers) VerifyEmail(_ context.Context, userID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if user, ok := r.s.users[userID]; ok && user.EmailVerifiedAt == nil {
		user.EmailVerifiedAt = &at
	}
	return nil
}

func (r fakeUsers) List(_ context.Context, limit, offset int) ([]entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := make([]entity.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	if offset >= len(users) {
		return nil, nil
	}
	return users[offset:min(len(users), offset+limit)], nil
}

type fakeSessions struct{ s *fakeStore }

func (r fakeSessions) Create(_ context.Context, session *entity.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	copied := *session
	r.s.sessions[session.ID] = &copied
	return nil
}

func (r fakeSessions) FindByTokenHash(_ context.Context, hash string, now time.Time) (*entity.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, session := range r.s.sessions {
		if session.TokenHash == hash && session.RevokedAt == nil && now.Before(session.ExpiresAt) {
			copied := *session
			return &copied, nil
		}
	}
	return nil, nil
}

func (r fakeSessions) RotateToken(_ context.Context, sessionID uuid.UUID, oldHash string, newHash string, expiresAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[sessionID]
	if !ok || session.TokenHash != oldHash || session.RevokedAt != nil {
		return false, nil
	}
	session.TokenHash = newHash
	session.ExpiresAt = expiresAt
	return true, nil
}

func (r fakeSessions) Revoke(_ context.Context, sessionID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if session, ok := r.s.sessions[sessionID]; ok && session.RevokedAt == nil {
		now := time.Now()
		session.RevokedAt = &now
	}
	return nil
}

func (r fakeSessions) ListLiveByUser(_ context.Context, userID uuid.UUID, now time.Time) ([]entity.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Session
	for _, session := range r.s.sessions {
		if session.UserID == userID && session.Live(now) {
			out = append(out, *session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActiveAt().After(out[j].LastActiveAt()) })
	return out, nil
}

func (r fakeSessions) RevokeOwned(_ context.Context, sessionID uuid.UUID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[sessionID]
	if !ok || session.UserID != userID || session.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	session.RevokedAt = &now
	return true, nil
}

func (r fakeSessions) RevokeAllByUser(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, session := range r.s.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			session.RevokedAt = &now
		}
	}
	return nil
}

func (r fakeSessions) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, session := range r.s.sessions {
		if session.ExpiresAt.Before(cutoff) || (session.RevokedAt != nil && session.RevokedAt.Before(cutoff)) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

type fakeTokens struct{ s *fakeStore }

func (r fakeTokens) Create(_ context.Context, token *entity.VerificationToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.tokens {
		if existing.UsedAt == nil && existing.TokenHash == token.TokenHash {
			return gorm.ErrDuplicatedKey
		}
	}
	copied := *token
	r.s.tokens[token.ID] = &copied
	return nil
}

func (r fakeTokens) FindByID(_ context.Context, id uuid.UUID) (*entity.VerificationToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token, ok := r.s.tokens[id]
	if !ok {
		return nil, nil
	}
	copied := *token
	return &copied, nil
}

func (r fakeTokens) FindActive(_ context.Context, userID uuid.UUID, tokenType entity.VerificationType, now time.Time) (*entity.VerificationToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var newest *entity.VerificationToken
	for _, token := range r.s.tokens {
		if token.UserID != userID || token.Type != tokenType || token.UsedAt != nil || !now.Before(token.ExpiresAt) {
			continue
		}
		if newest == nil || token.CreatedAt.After(newest.CreatedAt) {
			newest = token
		}
	}
	if newest == nil {
		return nil, nil
	}
	copied := *newest
	return &copied, nil
}

func (r fakeTokens) FindUnusedByHash(_ context.Context, userID uuid.UUID, tokenType entity.VerificationType, tokenHash string) (*entity.VerificationToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, token := range r.s.tokens {
		if token.UserID == userID && token.Type == tokenType && token.TokenHash == tokenHash && token.UsedAt == nil {
			copied := *token
			return &copied, nil
		}
	}
	return nil, nil
}

func (r fakeTokens) InvalidateActive(_ context.Context, userID uuid.UUID, tokenType entity.VerificationType, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, token := range r.s.tokens {
		if token.UserID == userID && token.Type == tokenType && token.UsedAt == nil && now.Before(token.ExpiresAt) {
			token.ExpiresAt = now
			n++
		}
	}
	return n, nil
}

func (r fakeTokens) CountIssuedSince(_ context.Context, userID uuid.UUID, tokenType entity.VerificationType, since time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, token := range r.s.tokens {
		if token.UserID == userID && token.Type == tokenType && token.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (r fakeTokens) IncrementAttempts(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if token, ok := r.s.tokens[id]; ok {
		token.Attempts++
	}
	return nil
}

func (r fakeTokens) ConsumeIfValid(_ context.Context, id uuid.UUID, tokenHash string, maxAttempts int, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token, ok := r.s.tokens[id]
	if !ok || token.TokenHash != tokenHash || token.UsedAt != nil || !now.Before(token.ExpiresAt) || token.Attempts >= maxAttempts {
		return false, nil
	}
	usedAt := now
	token.UsedAt = &usedAt
	return true, nil
}

func (r fakeTokens) DeleteStale(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, token := range r.s.tokens {
		if (token.UsedAt != nil && token.UsedAt.Before(cutoff)) || token.ExpiresAt.Before(cutoff) {
			delete(r.s.tokens, id)
			n++
		}
	}
	return n, nil
}

type fakeUsage struct{ s *fakeStore }

func (r fakeUsage) Find(_ context.Context, userID uuid.UUID, feature entity.Feature) (*entity.UsageCounter, error) {
	return r.s.counter(userID, feature), nil
}

func (r fakeUsage) LockForUpdate(_ context.Context, userID uuid.UUID, feature entity.Feature, now time.Time) (*entity.UsageCounter, error) {
	r.s.mu.Lock()
	key := counterKey{userID, feature}
	if _, ok := r.s.counters[key]; !ok {
		r.s.counters[key] = &entity.UsageCounter{UserID: userID, Feature: feature, WindowStartedAt: now}
	}
	r.s.mu.Unlock()
	return r.s.counter(userID, feature), nil
}

func (r fakeUsage) ResetWindow(_ context.Context, userID uuid.UUID, feature entity.Feature, observedWindow time.Time, newWindow time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.counters[counterKey{userID, feature}]
	if !ok || !c.WindowStartedAt.Equal(observedWindow) {
		return false, nil
	}
	c.Count = 1
	c.WindowStartedAt = newWindow
	return true, nil
}

func (r fakeUsage) Increment(_ context.Context, userID uuid.UUID, feature entity.Feature, observedWindow time.Time, limit *int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.counters[counterKey{userID, feature}]
	if !ok || !c.WindowStartedAt.Equal(observedWindow) || (limit != nil && c.Count >= *limit) {
		return false, nil
	}
	c.Count++
	return true, nil
}

type fakeInteractions struct{ s *fakeStore }

func (r fakeInteractions) Create(_ context.Context, interaction *entity.Interaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.interactions[interaction.ID]; exists {
		return gorm.ErrDuplicatedKey
	}
	copied := *interaction
	r.s.interactions[interaction.ID] = &copied
	return nil
}

func (r fakeInteractions) FindByID(_ context.Context, id uuid.UUID) (*entity.Interaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	interaction, ok := r.s.interactions[id]
	if !ok {
		return nil, nil
	}
	copied := *interaction
	return &copied, nil
}

func (r fakeInteractions) latest(match func(*entity.Interaction) bool) *entity.Interaction {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var newest *entity.Interaction
	for _, interaction := range r.s.interactions {
		if match(interaction) && (newest == nil || interaction.CreatedAt.After(newest.CreatedAt)) {
			newest = interaction
		}
	}
	if newest == nil {
		return nil
	}
	copied := *newest
	return &copied
}

func (r fakeInteractions) LatestToReceiver(_ context.Context, feature entity.Feature, senderID, receiverID uuid.UUID) (*entity.Interaction, error) {
	return r.latest(func(i *entity.Interaction) bool {
		return i.Feature == feature && i.SenderID == senderID && i.ReceiverID == receiverID && i.ResourceID == nil
	}), nil
}

func (r fakeInteractions) LatestOnResource(_ context.Context, feature entity.Feature, senderID, resourceID uuid.UUID) (*entity.Interaction, error) {
	return r.latest(func(i *entity.Interaction) bool {
		return i.Feature == feature && i.SenderID == senderID && i.ResourceID != nil && *i.ResourceID == resourceID
	}), nil
}

func (r fakeInteractions) MarkRead(_ context.Context, id uuid.UUID, receiverID uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	interaction, ok := r.s.interactions[id]
	if !ok || interaction.ReceiverID != receiverID || interaction.ReadAt != nil {
		return false, nil
	}
	interaction.ReadAt = &at
	return true, nil
}

func (r fakeInteractions) ListByReceiver(_ context.Context, receiverID uuid.UUID, feature *entity.Feature, limit, offset int) ([]entity.Interaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Interaction
	for _, interaction := range r.s.interactions {
		if interaction.ReceiverID == receiverID && (feature == nil || interaction.Feature == *feature) {
			out = append(out, *interaction)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	return out[offset:min(len(out), offset+limit)], nil
}

func (r fakeInteractions) CountUnread(_ context.Context, receiverID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, interaction := range r.s.interactions {
		if interaction.ReceiverID == receiverID && interaction.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

type fakeFriendships struct{ s *fakeStore }

func (r fakeFriendships) AreFriends(_ context.Context, a, b uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.friends[[2]uuid.UUID{a, b}] || r.s.friends[[2]uuid.UUID{b, a}], nil
}

type fakeTodos struct{ s *fakeStore }

func (r fakeTodos) FindByID(_ context.Context, id uuid.UUID) (*entity.Todo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	todo, ok := r.s.todos[id]
	if !ok {
		return nil, nil
	}
	copied := *todo
	return &copied, nil
}

type fakeSubscriptions struct{ s *fakeStore }

func (r fakeSubscriptions) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subs[userID]
	if !ok {
		return nil, nil
	}
	copied := *sub
	return &copied, nil
}

type fakeSecurityLogs struct{ s *fakeStore }

func (r fakeSecurityLogs) Log(_ context.Context, entry *entity.SecurityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.logs = append(r.s.logs, *entry)
	return nil
}

func (r fakeSecurityLogs) ListByUser(_ context.Context, userID uuid.UUID, actions []entity.SecurityAction, limit int) ([]entity.SecurityLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.SecurityLog
	for i := len(r.s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		entry := r.s.logs[i]
		if entry.UserID == nil || *entry.UserID != userID {
			continue
		}
		if len(actions) > 0 && !slices.Contains(actions, entry.Action) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *fakeStore) actions() []entity.SecurityAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.SecurityAction, 0, len(s.logs))
	for _, log := range s.logs {
		out = append(out, log.Action)
	}
	return out
}

type emitted struct {
	event   string
	payload any
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []emitted
	err    error
}

func (n *fakeNotifier) Emit(_ context.Context, event string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, emitted{event: event, payload: payload})
	return nil
}

func (n *fakeNotifier) all() []emitted {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]emitted(nil), n.events...)
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmailSender) Send(_ context.Context, to string, subject string, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

func (f *fakeEmailSender) last() (sentEmail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentEmail{}, false
	}
	return f.sent[len(f.sent)-1], true
}

var errBoom = errors.New("boom")

var errDuplicate = gorm.ErrDuplicatedKey
