// Package scoring orchestrates the full pipeline for one push batch: parse
// the raw texts, classify merchants, run the user's session detectors and
// fuse the FHI score. Persistence of the resulting rows is best effort and
// never fails a scoring call.
package scoring

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	bq "github.com/finnut/finnut/internal/bigquery"
	"github.com/finnut/finnut/internal/category"
	"github.com/finnut/finnut/internal/domain"
	"github.com/finnut/finnut/internal/fhi"
	"github.com/finnut/finnut/internal/parser"
	"github.com/finnut/finnut/internal/session"
)

// Service wires the core pipeline to per-user sessions and optional
// persistence. Repo and Predictor may be nil: without a repo nothing is
// persisted, without a predictor ml mode returns fhi.ErrNoPredictor.
type Service struct {
	parser    *parser.Parser
	sessions  *session.Registry
	predictor fhi.Predictor
	repo      bq.TransactionLogRepository
	log       zerolog.Logger
}

// New creates a scoring service.
func New(p *parser.Parser, sessions *session.Registry, predictor fhi.Predictor, repo bq.TransactionLogRepository, log zerolog.Logger) *Service {
	return &Service{
		parser:    p,
		sessions:  sessions,
		predictor: predictor,
		repo:      repo,
		log:       log,
	}
}

// Parse turns raw push texts into categorized normalized transactions.
// Unparseable texts contribute nothing; the returned batch preserves input
// order for the parseable rest.
func (s *Service) Parse(texts []string) []domain.Transaction {
	var txs []domain.Transaction
	for _, text := range texts {
		for _, tx := range s.parser.Parse(text) {
			tx.Category = category.Categorize(tx.Merchant)
			txs = append(txs, tx)
		}
	}
	return txs
}

// ScorePush parses and scores a push batch against the user's session
// detectors. The batch is also logged to the transaction table and the
// resulting score stored as a snapshot when a repository is configured;
// storage failures are logged, not returned.
func (s *Service) ScorePush(ctx context.Context, userID string, texts []string, mode fhi.Mode) (fhi.Result, []domain.Transaction, error) {
	txs := s.Parse(texts)

	sess := s.sessions.Get(userID)
	sess.Lock()
	result, err := fhi.ComputeWithDetectors(txs, sess.Impulsive, sess.Spike, mode, s.predictor)
	sess.Unlock()
	if err != nil {
		return fhi.Result{}, nil, err
	}

	s.persist(ctx, userID, txs, result)

	return result, txs, nil
}

func (s *Service) persist(ctx context.Context, userID string, txs []domain.Transaction, result fhi.Result) {
	if s.repo == nil {
		return
	}

	now := time.Now()
	rows := make([]*bq.TransactionLogRow, 0, len(txs))
	for _, tx := range txs {
		row := bq.RowFromTransaction(userID, tx)
		row.TransactionID = uuid.New().String()
		row.CreatedTS = now
		rows = append(rows, row)
	}

	if err := s.repo.InsertTransactions(ctx, rows); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to log transactions")
	}

	if len(txs) == 0 {
		return
	}
	snapshot := &bq.FHISnapshotRow{
		SnapshotID:     uuid.New().String(),
		UserID:         userID,
		FHI:            result.FHI,
		ImpulsiveScore: result.Impulsive.Score,
		SpikeScore:     result.Spike.Score,
		Mode:           string(result.Mode),
		TxCount:        int64(len(txs)),
		CreatedTS:      now,
	}
	if err := s.repo.InsertSnapshot(ctx, snapshot); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to store FHI snapshot")
	}
}
