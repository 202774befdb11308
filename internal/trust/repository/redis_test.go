package repository

import (
	"context"
	"testing"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/trustfundbaby/trustfund/internal/trust"
)

func newMiniredisRepo(t *testing.T) (*RedisRepo, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepo(client, "test:"), m
}

func TestRedisRepo(t *testing.T) {
	r, _ := newMiniredisRepo(t)
	exerciseRepository(t, r)
}

func TestRedisRepo_ConcurrentDeposits(t *testing.T) {
	r, _ := newMiniredisRepo(t)
	exerciseConcurrentDeposits(t, r, 100)
}

func TestRedisRepo_KeyLayout(t *testing.T) {
	r, m := newMiniredisRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateGoal(ctx, &trust.Goal{ID: "t1", UserID: "u1", Name: "Car"}))
	require.NoError(t, r.AddDeposit(ctx, &trust.Deposit{ID: "d1", TrustID: "t1", Amount: 0.1}))
	require.NoError(t, r.AddDeposit(ctx, &trust.Deposit{ID: "d2", TrustID: "t1", Amount: 0.2}))

	require.True(t, m.Exists("test:goal:t1"))
	ids, err := m.List("test:user_goals:u1")
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, ids)
	deps, err := m.List("test:deposits:t1")
	require.NoError(t, err)
	require.Len(t, deps, 2)

	g, err := r.GetGoal(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, 0.3, g.CurrentBalance)
}

func TestRedisRepo_DefaultPrefix(t *testing.T) {
	r := NewRedisRepo(nil, "")
	require.Equal(t, "trustfund:goal:x", r.key("goal:", "x"))
}
