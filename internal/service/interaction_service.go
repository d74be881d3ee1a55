package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"togetherdo/internal/entity"
	"togetherdo/internal/metrics"
	"togetherdo/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type SendInput struct {
	Feature    entity.Feature
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	ResourceID *uuid.UUID
	Message    *string
}

type InteractionConfig struct {
	TZOffsetMinutes int
	TxRetries       int
	NotifyTimeout   time.Duration
}

type InteractionDeps struct {
	Users        repository.UserRepository
	Friendships  repository.FriendshipRepository
	Todos        repository.TodoRepository
	Interactions repository.InteractionRepository
	Usage        repository.UsageCounterRepository
	Tx           repository.TxRunner
	Tiers        *TierResolver
	Notifier     Notifier
	Clock        Clock
	Metrics      *metrics.Metrics
	Logger       logrus.FieldLogger
}

// InteractionService sends rate-limited nudges and cheers between friends.
type InteractionService struct {
	deps     InteractionDeps
	policies Policies
	cfg      InteractionConfig
	ledger   QuotaLedger
	cooldown CooldownTracker
	logger   logrus.FieldLogger

	inflight sync.WaitGroup
}

func NewInteractionService(deps InteractionDeps, policies Policies, cfg InteractionConfig) *InteractionService {
	if cfg.TxRetries <= 0 {
		cfg.TxRetries = defaultTxRetries
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 5 * time.Second
	}
	return &InteractionService{
		deps:     deps,
		policies: policies,
		cfg:      cfg,
		ledger:   QuotaLedger{TZOffsetMinutes: cfg.TZOffsetMinutes},
		logger:   loggerOrDiscard(deps.Logger),
	}
}

// Send validates the request, charges the sender's daily quota and records
// the interaction in one transaction. The notification goes out after commit.
func (s *InteractionService) Send(ctx context.Context, in SendInput) (*entity.Interaction, error) {
	interaction, resource, sender, err := s.send(ctx, in)
	if err != nil {
		s.deps.Metrics.InteractionRejected(string(in.Feature), ErrorKind(err))
		return nil, err
	}
	s.deps.Metrics.InteractionSent(string(in.Feature))
	s.notify(ctx, interaction, sender, resource)
	return interaction, nil
}

func (s *InteractionService) send(ctx context.Context, in SendInput) (*entity.Interaction, *entity.Todo, *entity.User, error) {
	if in.SenderID == in.ReceiverID {
		return nil, nil, nil, ErrSelfAction
	}
	policy, ok := s.policies[in.Feature]
	if !ok || !policy.Interactive {
		return nil, nil, nil, ErrInvalidInput
	}
	if in.Message != nil && utf8.RuneCountInString(*in.Message) > policy.MaxMessageLength {
		return nil, nil, nil, ErrInvalidInput
	}

	sender, err := s.deps.Users.FindByID(ctx, in.SenderID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load sender: %w", err)
	}
	receiver, err := s.deps.Users.FindByID(ctx, in.ReceiverID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load receiver: %w", err)
	}
	if sender == nil || receiver == nil {
		return nil, nil, nil, ErrUserNotFound
	}

	friends, err := s.deps.Friendships.AreFriends(ctx, in.SenderID, in.ReceiverID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("check friendship: %w", err)
	}
	if !friends {
		return nil, nil, nil, ErrNotFriends
	}

	var resource *entity.Todo
	if in.ResourceID != nil {
		resource, err = s.deps.Todos.FindByID(ctx, *in.ResourceID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load resource: %w", err)
		}
		if resource == nil || resource.Visibility == entity.TodoPrivate {
			return nil, nil, nil, ErrResourceNotFound
		}
		if resource.OwnerID != in.ReceiverID {
			return nil, nil, nil, ErrResourceNotOwned
		}
	}

	limit, err := s.deps.Tiers.LimitFor(ctx, in.SenderID, in.Feature)
	if err != nil {
		return nil, nil, nil, err
	}

	now := nowFrom(s.deps.Clock)
	if err := s.precheck(ctx, in, policy, limit, now); err != nil {
		return nil, nil, nil, err
	}

	var created *entity.Interaction
	err = retryTx(ctx, s.cfg.TxRetries, s.logger, "send "+string(in.Feature), func() error {
		interaction := &entity.Interaction{
			ID:         uuid.New(),
			Feature:    in.Feature,
			SenderID:   in.SenderID,
			ReceiverID: in.ReceiverID,
			ResourceID: in.ResourceID,
			Message:    in.Message,
			CreatedAt:  now,
		}
		err := s.deps.Tx.WithinTransaction(ctx, func(tx repository.Tx) error {
			if _, err := s.ledger.consumeLocked(ctx, tx.Usage(), in.SenderID, in.Feature, now, limit); err != nil {
				return err
			}
			last, err := latestInScope(ctx, tx.Interactions(), in)
			if err != nil {
				return err
			}
			if err := s.cooldown.AssertNotActive(last, now, policy.Cooldown); err != nil {
				return withFeature(err, in.Feature)
			}
			return tx.Interactions().Create(ctx, interaction)
		})
		if err != nil {
			return err
		}
		created = interaction
		return nil
	})
	if err != nil {
		return nil, nil, nil, withFeature(err, in.Feature)
	}
	return created, resource, sender, nil
}

// precheck rejects on an unlocked snapshot so a doomed request never opens
// a transaction. The locked path repeats both checks.
func (s *InteractionService) precheck(ctx context.Context, in SendInput, policy FeaturePolicy, limit *int, now time.Time) error {
	counter, err := s.deps.Usage.Find(ctx, in.SenderID, in.Feature)
	if err != nil {
		return fmt.Errorf("load usage: %w", err)
	}
	if _, err := s.ledger.TryConsume(counter, now, limit); err != nil {
		return withFeature(err, in.Feature)
	}
	last, err := latestInScope(ctx, s.deps.Interactions, in)
	if err != nil {
		return err
	}
	return withFeature(s.cooldown.AssertNotActive(last, now, policy.Cooldown), in.Feature)
}

func latestInScope(ctx context.Context, interactions repository.InteractionRepository, in SendInput) (*time.Time, error) {
	var (
		latest *entity.Interaction
		err    error
	)
	if in.ResourceID != nil {
		latest, err = interactions.LatestOnResource(ctx, in.Feature, in.SenderID, *in.ResourceID)
	} else {
		latest, err = interactions.LatestToReceiver(ctx, in.Feature, in.SenderID, in.ReceiverID)
	}
	if err != nil {
		return nil, fmt.Errorf("load latest interaction: %w", err)
	}
	if latest == nil {
		return nil, nil
	}
	return &latest.CreatedAt, nil
}

func withFeature(err error, feature entity.Feature) error {
	var quota *QuotaExceededError
	if errors.As(err, &quota) {
		quota.Feature = string(feature)
	}
	var cooldown *CooldownActiveError
	if errors.As(err, &cooldown) {
		cooldown.Feature = string(feature)
	}
	return err
}

func (s *InteractionService) notify(ctx context.Context, interaction *entity.Interaction, sender *entity.User, resource *entity.Todo) {
	if s.deps.Notifier == nil {
		return
	}
	payload := map[string]any{
		"interaction_id": interaction.ID,
		"sender_id":      interaction.SenderID,
		"sender_name":    sender.Name(),
		"receiver_id":    interaction.ReceiverID,
		"resource_id":    interaction.ResourceID,
		"message":        interaction.Message,
	}
	if resource != nil {
		payload["resource_title"] = resource.Title
	}
	event := string(interaction.Feature) + ".sent"

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
		defer cancel()
		if err := s.deps.Notifier.Emit(notifyCtx, event, payload); err != nil {
			s.logger.WithFields(logrus.Fields{
				"event":          event,
				"interaction_id": interaction.ID,
			}).WithError(err).Warn("notification failed")
		}
	}()
}

// Wait blocks until in-flight notifications have finished.
func (s *InteractionService) Wait() {
	s.inflight.Wait()
}

func (s *InteractionService) MarkRead(ctx context.Context, receiverID, interactionID uuid.UUID) error {
	interaction, err := s.deps.Interactions.FindByID(ctx, interactionID)
	if err != nil {
		return fmt.Errorf("load interaction: %w", err)
	}
	if interaction == nil {
		return ErrInteractionNotFound
	}
	if interaction.ReceiverID != receiverID {
		return ErrNotInteractionReceiver
	}
	if interaction.ReadAt != nil {
		return nil
	}
	// false means a concurrent call won; the row is read either way.
	if _, err := s.deps.Interactions.MarkRead(ctx, interactionID, receiverID, nowFrom(s.deps.Clock)); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *InteractionService) CooldownStatus(ctx context.Context, in SendInput) (CooldownStatus, error) {
	policy, ok := s.policies[in.Feature]
	if !ok || !policy.Interactive {
		return CooldownStatus{}, ErrInvalidInput
	}
	last, err := latestInScope(ctx, s.deps.Interactions, in)
	if err != nil {
		return CooldownStatus{}, err
	}
	return s.cooldown.Evaluate(last, nowFrom(s.deps.Clock), policy.Cooldown), nil
}

func (s *InteractionService) ListReceived(ctx context.Context, receiverID uuid.UUID, feature *entity.Feature, limit, offset int) ([]entity.Interaction, error) {
	if feature != nil {
		if policy, ok := s.policies[*feature]; !ok || !policy.Interactive {
			return nil, ErrInvalidInput
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.deps.Interactions.ListByReceiver(ctx, receiverID, feature, limit, offset)
}

func (s *InteractionService) UnreadCount(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	return s.deps.Interactions.CountUnread(ctx, receiverID)
}
