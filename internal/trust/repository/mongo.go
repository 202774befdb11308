package repository

import (
	"context"
	"fmt"

	"time"

	"github.com/shopspring/decimal"
	"github.com/trustfundbaby/trustfund/internal/trust"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository on four collections of one database.
// Balances are stored as Decimal128 and updated with $inc so concurrent
// deposits never overwrite each other and never drift. Every goal, deposit
// and note carries a seq ObjectID that breaks ties between equal
// timestamps when listing.
type MongoRepo struct {
	db       *mongo.Database
	users    *mongo.Collection
	goals    *mongo.Collection
	deposits *mongo.Collection
	notes    *mongo.Collection
}

type goalDoc struct {
	ID             string               `bson:"_id"`
	UserID         string               `bson:"user_id"`
	Name           string               `bson:"name"`
	Description    string               `bson:"description"`
	TargetAmount   float64              `bson:"target_amount"`
	CurrentBalance primitive.Decimal128 `bson:"current_balance"`
	CreatedAt      time.Time            `bson:"created_at"`
	IsReal         bool                 `bson:"is_real"`
	Seq            primitive.ObjectID   `bson:"seq"`
}

func (d *goalDoc) goal() (*trust.Goal, error) {
	bal, err := fromDecimal128(d.CurrentBalance)
	if err != nil {
		return nil, fmt.Errorf("goal %s balance: %w", d.ID, err)
	}
	return &trust.Goal{
		ID:             d.ID,
		UserID:         d.UserID,
		Name:           d.Name,
		Description:    d.Description,
		TargetAmount:   d.TargetAmount,
		CurrentBalance: bal,
		CreatedAt:      d.CreatedAt,
		IsReal:         d.IsReal,
	}, nil
}

type depositDoc struct {
	trust.Deposit `bson:",inline"`
	Seq           primitive.ObjectID `bson:"seq"`
}

type noteDoc struct {
	trust.Note `bson:",inline"`
	Seq        primitive.ObjectID `bson:"seq"`
}

func toDecimal128(f float64) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(decimal.NewFromFloat(f).String())
}

func fromDecimal128(d primitive.Decimal128) (float64, error) {
	v, err := decimal.NewFromString(d.String())
	if err != nil {
		return 0, err
	}
	return v.InexactFloat64(), nil
}

func NewMongoRepo(ctx context.Context, db *mongo.Database) (*MongoRepo, error) {
	m := &MongoRepo{
		db:       db,
		users:    db.Collection("users"),
		goals:    db.Collection("trust_goals"),
		deposits: db.Collection("deposits"),
		notes:    db.Collection("notes"),
	}
	idx := []struct {
		col *mongo.Collection
		key string
	}{
		{m.goals, "user_id"},
		{m.deposits, "trust_id"},
		{m.notes, "trust_id"},
	}
	for _, i := range idx {
		model := mongo.IndexModel{Keys: bson.D{{Key: i.key, Value: 1}}}
		if _, err := i.col.Indexes().CreateOne(ctx, model); err != nil {
			return nil, fmt.Errorf("create index %s.%s: %w", i.col.Name(), i.key, err)
		}
	}
	return m, nil
}

func (m *MongoRepo) CreateUser(ctx context.Context, u *trust.User) error {
	_, err := m.users.InsertOne(ctx, u)
	return err
}

func (m *MongoRepo) GetUser(ctx context.Context, id string) (*trust.User, error) {
	var u trust.User
	if err := m.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (m *MongoRepo) CreateGoal(ctx context.Context, g *trust.Goal) error {
	bal, err := toDecimal128(g.CurrentBalance)
	if err != nil {
		return err
	}
	_, err = m.goals.InsertOne(ctx, &goalDoc{
		ID:             g.ID,
		UserID:         g.UserID,
		Name:           g.Name,
		Description:    g.Description,
		TargetAmount:   g.TargetAmount,
		CurrentBalance: bal,
		CreatedAt:      g.CreatedAt,
		IsReal:         g.IsReal,
		Seq:            primitive.NewObjectID(),
	})
	return err
}

func (m *MongoRepo) GetGoal(ctx context.Context, id string) (*trust.Goal, error) {
	var d goalDoc
	if err := m.goals.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d.goal()
}

func (m *MongoRepo) ListGoals(ctx context.Context, userID string) ([]*trust.Goal, error) {
	var docs []*goalDoc
	if err := m.findSorted(ctx, m.goals, bson.M{"user_id": userID}, "created_at", &docs); err != nil {
		return nil, err
	}
	out := make([]*trust.Goal, 0, len(docs))
	for _, d := range docs {
		g, err := d.goal()
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (m *MongoRepo) MarkReal(ctx context.Context, id string) error {
	res, err := m.goals.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_real": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddDeposit increments the balance first; a zero match means the goal is
// unknown and no deposit document is written.
func (m *MongoRepo) AddDeposit(ctx context.Context, d *trust.Deposit) error {
	amount, err := toDecimal128(d.Amount)
	if err != nil {
		return err
	}
	res, err := m.goals.UpdateOne(ctx, bson.M{"_id": d.TrustID}, bson.M{"$inc": bson.M{"current_balance": amount}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	if _, err := m.deposits.InsertOne(ctx, &depositDoc{Deposit: *d, Seq: primitive.NewObjectID()}); err != nil {
		return fmt.Errorf("insert deposit: %w", err)
	}
	return nil
}

func (m *MongoRepo) AddNote(ctx context.Context, n *trust.Note) error {
	if err := m.goalExists(ctx, n.TrustID); err != nil {
		return err
	}
	_, err := m.notes.InsertOne(ctx, &noteDoc{Note: *n, Seq: primitive.NewObjectID()})
	return err
}

// Ledger reads the goal before its ledgers. Without a replica set there
// is no snapshot across collections, so a deposit landing between the
// reads can appear in the list while the balance predates it.
func (m *MongoRepo) Ledger(ctx context.Context, trustID string) (*trust.Statement, error) {
	g, err := m.GetGoal(ctx, trustID)
	if err != nil {
		return nil, err
	}
	st := &trust.Statement{Trust: g, Deposits: []*trust.Deposit{}, Notes: []*trust.Note{}}
	if err := m.findSorted(ctx, m.deposits, bson.M{"trust_id": trustID}, "timestamp", &st.Deposits); err != nil {
		return nil, err
	}
	if err := m.findSorted(ctx, m.notes, bson.M{"trust_id": trustID}, "created_at", &st.Notes); err != nil {
		return nil, err
	}
	return st, nil
}

func (m *MongoRepo) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, nil)
}

func (m *MongoRepo) goalExists(ctx context.Context, id string) error {
	n, err := m.goals.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) findSorted(ctx context.Context, col *mongo.Collection, filter bson.M, sortKey string, out interface{}) error {
	opts := options.Find().SetSort(bson.D{{Key: sortKey, Value: 1}, {Key: "seq", Value: 1}})
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}
