package repository

import (
	"context"

	"gorm.io/gorm"
)

// Tx exposes repositories bound to one database transaction.
type Tx interface {
	Users() UserRepository
	Sessions() SessionRepository
	Verifications() VerificationTokenRepository
	Usage() UsageCounterRepository
	Interactions() InteractionRepository
}

type TxRunner interface {
	// WithinTransaction commits when fn returns nil and rolls back otherwise.
	WithinTransaction(ctx context.Context, fn func(tx Tx) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) WithinTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func (t gormTx) Users() UserRepository                      { return NewUserRepository(t.db) }
func (t gormTx) Sessions() SessionRepository                { return NewSessionRepository(t.db) }
func (t gormTx) Verifications() VerificationTokenRepository { return NewVerificationTokenRepository(t.db) }
func (t gormTx) Usage() UsageCounterRepository              { return NewUsageCounterRepository(t.db) }
func (t gormTx) Interactions() InteractionRepository        { return NewInteractionRepository(t.db) }
