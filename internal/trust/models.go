package trust

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a registered account. Email is stored as given; there is no
// uniqueness or format check.
type User struct {
	ID    string `json:"id" bson:"_id"`
	Email string `json:"email" bson:"email"`
}

// Goal is a named savings target ("trust goal").
// CurrentBalance is only ever changed by deposits and IsReal only moves
// from false to true.
type Goal struct {
	ID             string    `json:"id" bson:"_id"`
	UserID         string    `json:"user_id" bson:"user_id"`
	Name           string    `json:"name" bson:"name"`
	Description    string    `json:"description" bson:"description"`
	TargetAmount   float64   `json:"target_amount" bson:"target_amount"`
	CurrentBalance float64   `json:"current_balance" bson:"current_balance"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	IsReal         bool      `json:"is_real" bson:"is_real"`
}

// CreateGoal is the request body for creating a goal.
type CreateGoal struct {
	Name         *string  `json:"name" binding:"required"`
	Description  string   `json:"description"`
	TargetAmount *float64 `json:"target_amount" binding:"required"`
}

// Deposit is an immutable balance change applied to a goal.
type Deposit struct {
	ID        string    `json:"id" bson:"_id"`
	TrustID   string    `json:"trust_id" bson:"trust_id"`
	Amount    float64   `json:"amount" bson:"amount"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Note is an immutable free-text annotation on a goal.
type Note struct {
	ID        string    `json:"id" bson:"_id"`
	TrustID   string    `json:"trust_id" bson:"trust_id"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Statement is a point-in-time view of a goal and its ledgers.
type Statement struct {
	Trust        *Goal      `json:"trust"`
	Deposits     []*Deposit `json:"deposits"`
	Notes        []*Note    `json:"notes"`
	DepositTotal float64    `json:"deposit_total"`
	GeneratedAt  time.Time  `json:"generated_at"`
}

// AddAmount returns balance+amount computed in decimal so repeated
// fractional deposits do not accumulate float error.
func AddAmount(balance, amount float64) float64 {
	return decimal.NewFromFloat(balance).Add(decimal.NewFromFloat(amount)).InexactFloat64()
}

// SumDeposits totals the amounts of the given deposits.
func SumDeposits(deps []*Deposit) float64 {
	total := decimal.Zero
	for _, d := range deps {
		total = total.Add(decimal.NewFromFloat(d.Amount))
	}
	return total.InexactFloat64()
}
