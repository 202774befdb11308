package repository

import (
	"context"
	"errors"

	"github.com/trustfundbaby/trustfund/internal/trust"
)

var (
	ErrNotFound     = errors.New("trust not found")
	ErrUserNotFound = errors.New("user not found")
)

// Repository is the store behind the trust service. Implementations must
// apply a deposit atomically: the existence check, the balance increment
// and the ledger append either all happen or none do.
type Repository interface {
	CreateUser(ctx context.Context, u *trust.User) error
	GetUser(ctx context.Context, id string) (*trust.User, error)

	CreateGoal(ctx context.Context, g *trust.Goal) error
	GetGoal(ctx context.Context, id string) (*trust.Goal, error)
	ListGoals(ctx context.Context, userID string) ([]*trust.Goal, error)
	MarkReal(ctx context.Context, id string) error

	AddDeposit(ctx context.Context, d *trust.Deposit) error

	AddNote(ctx context.Context, n *trust.Note) error

	// Ledger returns the goal with its deposits and notes read as one
	// snapshot. DepositTotal and GeneratedAt are left for the caller.
	Ledger(ctx context.Context, trustID string) (*trust.Statement, error)

	Ping(ctx context.Context) error
}
