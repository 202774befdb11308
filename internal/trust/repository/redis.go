package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trustfundbaby/trustfund/internal/trust"
)

const (
	minTxBackoff = time.Millisecond
	maxTxBackoff = 50 * time.Millisecond
)

// RedisRepo stores records as JSON values. Layout (after the prefix):
//
//	user:<id>          user JSON
//	goal:<id>          goal JSON
//	user_goals:<uid>   list of goal ids in creation order
//	deposits:<tid>     list of deposit JSON
//	notes:<tid>        list of note JSON
//
// Goal mutations run inside WATCH/MULTI on the goal key and are retried
// on conflict until the context is done.
type RedisRepo struct {
	client *redis.Client
	prefix string
}

// NewRedisRepo creates a Redis-backed repository. Prefix may be empty.
func NewRedisRepo(client *redis.Client, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = "trustfund:"
	}
	return &RedisRepo{client: client, prefix: prefix}
}

func (r *RedisRepo) key(parts ...string) string {
	k := r.prefix
	for _, p := range parts {
		k += p
	}
	return k
}

func (r *RedisRepo) CreateUser(ctx context.Context, u *trust.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key("user:", u.ID), b, 0).Err()
}

func (r *RedisRepo) GetUser(ctx context.Context, id string) (*trust.User, error) {
	b, err := r.client.Get(ctx, r.key("user:", id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	var u trust.User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *RedisRepo) CreateGoal(ctx context.Context, g *trust.Goal) error {
	b, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key("goal:", g.ID), b, 0)
		pipe.RPush(ctx, r.key("user_goals:", g.UserID), g.ID)
		return nil
	})
	return err
}

func (r *RedisRepo) GetGoal(ctx context.Context, id string) (*trust.Goal, error) {
	b, err := r.client.Get(ctx, r.key("goal:", id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var g trust.Goal
	if err := json.Unmarshal(b, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *RedisRepo) ListGoals(ctx context.Context, userID string) ([]*trust.Goal, error) {
	out := make([]*trust.Goal, 0)
	ids, err := r.client.LRange(ctx, r.key("user_goals:", userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key("goal:", id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var g trust.Goal
		if err := json.Unmarshal([]byte(s), &g); err != nil {
			return nil, err
		}
		out = append(out, &g)
	}
	return out, nil
}

// updateGoal applies fn to the stored goal under optimistic locking and
// queues extra commands in the same MULTI block.
func (r *RedisRepo) updateGoal(ctx context.Context, id string, fn func(g *trust.Goal), extra func(pipe redis.Pipeliner)) error {
	key := r.key("goal:", id)
	txf := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				return ErrNotFound
			}
			return err
		}
		var g trust.Goal
		if err := json.Unmarshal(b, &g); err != nil {
			return err
		}
		fn(&g)
		nb, err := json.Marshal(&g)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, nb, 0)
			if extra != nil {
				extra(pipe)
			}
			return nil
		})
		return err
	}
	backoff := minTxBackoff
	for {
		err := r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		// another writer touched the goal; retry with jitter until ctx ends
		select {
		case <-ctx.Done():
			return fmt.Errorf("update goal %s: %w", id, ctx.Err())
		case <-time.After(backoff/2 + rand.N(backoff/2+1)):
		}
		if backoff < maxTxBackoff {
			backoff *= 2
		}
	}
}

func (r *RedisRepo) MarkReal(ctx context.Context, id string) error {
	return r.updateGoal(ctx, id, func(g *trust.Goal) { g.IsReal = true }, nil)
}

func (r *RedisRepo) AddDeposit(ctx context.Context, d *trust.Deposit) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.updateGoal(ctx, d.TrustID,
		func(g *trust.Goal) { g.CurrentBalance = trust.AddAmount(g.CurrentBalance, d.Amount) },
		func(pipe redis.Pipeliner) { pipe.RPush(ctx, r.key("deposits:", d.TrustID), b) },
	)
}

func (r *RedisRepo) AddNote(ctx context.Context, n *trust.Note) error {
	if err := r.goalExists(ctx, n.TrustID); err != nil {
		return err
	}
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return r.client.RPush(ctx, r.key("notes:", n.TrustID), b).Err()
}

// Ledger reads the goal and both ledgers in one MULTI block so the
// balance always matches the deposits returned with it.
func (r *RedisRepo) Ledger(ctx context.Context, trustID string) (*trust.Statement, error) {
	var goalCmd *redis.StringCmd
	var depCmd, noteCmd *redis.StringSliceCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		goalCmd = pipe.Get(ctx, r.key("goal:", trustID))
		depCmd = pipe.LRange(ctx, r.key("deposits:", trustID), 0, -1)
		noteCmd = pipe.LRange(ctx, r.key("notes:", trustID), 0, -1)
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, err
	}
	b, err := goalCmd.Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	st := &trust.Statement{Trust: &trust.Goal{}}
	if err := json.Unmarshal(b, st.Trust); err != nil {
		return nil, err
	}
	st.Deposits = make([]*trust.Deposit, 0, len(depCmd.Val()))
	for _, v := range depCmd.Val() {
		var d trust.Deposit
		if err := json.Unmarshal([]byte(v), &d); err != nil {
			return nil, err
		}
		st.Deposits = append(st.Deposits, &d)
	}
	st.Notes = make([]*trust.Note, 0, len(noteCmd.Val()))
	for _, v := range noteCmd.Val() {
		var n trust.Note
		if err := json.Unmarshal([]byte(v), &n); err != nil {
			return nil, err
		}
		st.Notes = append(st.Notes, &n)
	}
	return st, nil
}

func (r *RedisRepo) goalExists(ctx context.Context, id string) error {
	n, err := r.client.Exists(ctx, r.key("goal:", id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
