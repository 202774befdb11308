package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/trustfundbaby/trustfund/internal/trust"
	"github.com/trustfundbaby/trustfund/internal/trust/repository"
	"github.com/trustfundbaby/trustfund/pkg/logger"
	"github.com/trustfundbaby/trustfund/pkg/metrics"
)

var ErrArchiveUnavailable = errors.New("statement archive not configured")

// Archiver uploads serialized statements to object storage.
type Archiver interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Archive describes an uploaded statement.
type Archive struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Service implements the trust goal operations on top of a Repository.
type Service struct {
	repo             repository.Repository
	newID            func() string
	now              func() time.Time
	requireKnownUser bool
	archiver         Archiver
	presignTTL       time.Duration
}

type Option func(*Service)

// WithIDGenerator replaces the default UUIDv4 generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithClock replaces time.Now; returned times are converted to UTC.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// WithRequireKnownUser makes CreateGoal reject owners that were never registered.
func WithRequireKnownUser(v bool) Option {
	return func(s *Service) { s.requireKnownUser = v }
}

// WithArchiver enables statement archiving with presigned URLs valid for ttl.
func WithArchiver(a Archiver, ttl time.Duration) Option {
	return func(s *Service) {
		s.archiver = a
		s.presignTTL = ttl
	}
}

func NewService(r repository.Repository, opts ...Option) *Service {
	s := &Service{
		repo:       r,
		newID:      uuid.NewString,
		now:        time.Now,
		presignTTL: 15 * time.Minute,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) timestamp() time.Time { return s.now().UTC() }

// Register stores a new user. Emails are neither validated nor deduplicated.
func (s *Service) Register(ctx context.Context, email string) (*trust.User, error) {
	u := &trust.User{ID: s.newID(), Email: email}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.UsersRegistered.Inc()
	logger.Debugf("registered user %s", u.ID)
	return u, nil
}

func (s *Service) CreateGoal(ctx context.Context, userID string, req trust.CreateGoal) (*trust.Goal, error) {
	if s.requireKnownUser {
		if _, err := s.repo.GetUser(ctx, userID); err != nil {
			return nil, err
		}
	}
	g := &trust.Goal{
		ID:          s.newID(),
		UserID:      userID,
		Description: req.Description,
		CreatedAt:   s.timestamp(),
	}
	if req.Name != nil {
		g.Name = *req.Name
	}
	if req.TargetAmount != nil {
		g.TargetAmount = *req.TargetAmount
	}
	if err := s.repo.CreateGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("create trust: %w", err)
	}
	metrics.TrustsCreated.Inc()
	logger.Debugf("created trust %s for user %s", g.ID, userID)
	return g, nil
}

func (s *Service) ListGoals(ctx context.Context, userID string) ([]*trust.Goal, error) {
	return s.repo.ListGoals(ctx, userID)
}

func (s *Service) GetGoal(ctx context.Context, id string) (*trust.Goal, error) {
	return s.repo.GetGoal(ctx, id)
}

// MarkReal is idempotent.
func (s *Service) MarkReal(ctx context.Context, id string) error {
	if err := s.repo.MarkReal(ctx, id); err != nil {
		return err
	}
	metrics.TrustsMarkedReal.Inc()
	return nil
}

// AddDeposit accepts any amount, including negative ones.
func (s *Service) AddDeposit(ctx context.Context, trustID string, amount float64) (*trust.Deposit, error) {
	d := &trust.Deposit{
		ID:        s.newID(),
		TrustID:   trustID,
		Amount:    amount,
		Timestamp: s.timestamp(),
	}
	if err := s.repo.AddDeposit(ctx, d); err != nil {
		return nil, err
	}
	metrics.DepositsRecorded.Inc()
	return d, nil
}

func (s *Service) AddNote(ctx context.Context, trustID, content string) (*trust.Note, error) {
	n := &trust.Note{
		ID:        s.newID(),
		TrustID:   trustID,
		Content:   content,
		CreatedAt: s.timestamp(),
	}
	if err := s.repo.AddNote(ctx, n); err != nil {
		return nil, err
	}
	metrics.NotesRecorded.Inc()
	return n, nil
}

// Statement returns the goal with its ledgers from one repository read,
// so the balance and the deposit list describe the same moment.
func (s *Service) Statement(ctx context.Context, trustID string) (*trust.Statement, error) {
	st, err := s.repo.Ledger(ctx, trustID)
	if err != nil {
		return nil, err
	}
	st.DepositTotal = trust.SumDeposits(st.Deposits)
	st.GeneratedAt = s.timestamp()
	return st, nil
}

// ArchiveStatement uploads the current statement as JSON and returns a
// presigned download URL.
func (s *Service) ArchiveStatement(ctx context.Context, trustID string) (*Archive, error) {
	if s.archiver == nil {
		return nil, ErrArchiveUnavailable
	}
	st, err := s.Statement(ctx, trustID)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("statements/%s/%s.json", trustID, st.GeneratedAt.Format("20060102T150405.000000000Z"))
	if err := s.archiver.UploadFile(ctx, key, bytes.NewReader(b), int64(len(b)), "application/json"); err != nil {
		return nil, fmt.Errorf("upload statement: %w", err)
	}
	url, err := s.archiver.GetPresignedURL(ctx, key, s.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("presign statement: %w", err)
	}
	logger.Infof("archived statement for trust %s at %s", trustID, key)
	return &Archive{Key: key, URL: url}, nil
}

// Ready reports whether the backing store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
