// Package memstore is an in-memory implementation of engine.Store used by
// engine unit tests, so the linearizability guarantees of SPEC_FULL.md §5
// can be exercised without a live Postgres instance. It generalizes this
// repository's teacher's in-memory 500ms market cache
// (internal/service/market_service.go) into a full fake Store: a single
// mutex serializes every operation, which is a stronger guarantee than the
// spec requires (per-prediction locking) but a valid implementation of it.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/google/uuid"
)

type predictionRow struct {
	prediction domain.Prediction
	state      domain.MarketState
	judges     map[domain.PubKey]domain.JudgeState
	judgeOrder []domain.PubKey
}

// core holds all state and implements every Store operation without
// locking. Store wraps core with a mutex for top-level calls; txView
// reuses core directly from inside WithTx, where the mutex is already held.
type core struct {
	nextID      domain.RowId
	predictions map[domain.RowId]*predictionRow
	bets        map[string]*domain.Bet
	cashOuts    map[domain.RowId]map[domain.PubKey]*domain.CashOut
	sessions    map[string]*domain.Session
	users       map[domain.PubKey]*domain.User
	logs        []domain.TransitionLog
}

func newCore() *core {
	return &core{
		predictions: make(map[domain.RowId]*predictionRow),
		bets:        make(map[string]*domain.Bet),
		cashOuts:    make(map[domain.RowId]map[domain.PubKey]*domain.CashOut),
		sessions:    make(map[string]*domain.Session),
		users:       make(map[domain.PubKey]*domain.User),
	}
}

func sessionKey(user domain.PubKey, challenge string) string {
	return string(user) + "|" + challenge
}

// Store is the locking, top-level engine.Store implementation.
type Store struct {
	mu sync.Mutex
	c  *core
}

// New returns an empty in-memory Store.
func New() *Store {
	return &Store{c: newCore()}
}

var _ engine.Store = (*Store)(nil)

func (s *Store) AddPrediction(ctx context.Context, p *domain.Prediction) (domain.RowId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.addPrediction(p)
}

func (s *Store) GetPredictionState(ctx context.Context, id domain.RowId) (domain.MarketState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getPredictionState(id)
}

func (s *Store) SetPredictionState(ctx context.Context, id domain.RowId, st domain.MarketState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.setPredictionState(id, st)
}

func (s *Store) GetTradingEnd(ctx context.Context, id domain.RowId) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getTradingEnd(id)
}

func (s *Store) GetDecisionPeriod(ctx context.Context, id domain.RowId) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getDecisionPeriod(id)
}

func (s *Store) GetJudgeSharePpm(ctx context.Context, id domain.RowId) (domain.Ppm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getJudgeSharePpm(id)
}

func (s *Store) GetJudgeCount(ctx context.Context, id domain.RowId) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getJudgeCount(id)
}

func (s *Store) GetPrediction(ctx context.Context, id domain.RowId) (*domain.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getPrediction(id)
}

func (s *Store) GetPredictions(ctx context.Context) ([]domain.PredictionOverview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getPredictions()
}

func (s *Store) GetPredictionOverview(ctx context.Context, id domain.RowId) (*domain.PredictionOverview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getPredictionOverview(id)
}

func (s *Store) GetPredictionRatio(ctx context.Context, id domain.RowId) (domain.PredictionRatio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getPredictionRatio(id)
}

func (s *Store) GetJudgeState(ctx context.Context, id domain.RowId, user domain.PubKey) (domain.JudgeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getJudgeState(id, user)
}

func (s *Store) SetJudgeState(ctx context.Context, id domain.RowId, user domain.PubKey, st domain.JudgeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.setJudgeState(id, user, st)
}

func (s *Store) GetJudgeStates(ctx context.Context, id domain.RowId) ([]domain.JudgeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getJudgeStates(id)
}

func (s *Store) GetJudges(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.JudgePublic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getJudges(predictionID, user)
}

func (s *Store) GetJudge(ctx context.Context, id domain.RowId, user domain.PubKey) (*domain.Judge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getJudge(id, user)
}

func (s *Store) GetPredictionJudges(ctx context.Context, id domain.RowId) ([]domain.Judge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getPredictionJudges(id)
}

func (s *Store) CreateBet(ctx context.Context, predictionID domain.RowId, user domain.PubKey, side bool, invoice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.createBet(predictionID, user, side, invoice)
}

func (s *Store) GetBet(ctx context.Context, invoice string) (*domain.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getBet(invoice)
}

func (s *Store) SettleBet(ctx context.Context, invoice string, amount domain.Sats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.settleBet(invoice, amount)
}

func (s *Store) InitBetRefund(ctx context.Context, invoice string, refundInvoice *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.initBetRefund(invoice, refundInvoice)
}

func (s *Store) SettleBetRefund(ctx context.Context, invoice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.settleBetRefund(invoice)
}

func (s *Store) GetUserPredictionBets(ctx context.Context, predictionID domain.RowId, user domain.PubKey) ([]domain.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getUserPredictionBets(predictionID, user)
}

func (s *Store) GetPredictionBets(ctx context.Context, predictionID domain.RowId, side bool) ([]domain.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getPredictionBets(predictionID, side)
}

func (s *Store) GetPredictionBetsAggregated(ctx context.Context, predictionID domain.RowId, side bool) (domain.Sats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getPredictionBetsAggregated(predictionID, side)
}

func (s *Store) GetBets(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getBets(predictionID, user)
}

func (s *Store) SetCashOut(ctx context.Context, predictionID domain.RowId, amounts map[domain.PubKey]domain.Sats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.setCashOut(predictionID, amounts)
}

func (s *Store) SetCashOutInvoice(ctx context.Context, predictionID domain.RowId, user domain.PubKey, invoice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.setCashOutInvoice(predictionID, user, invoice)
}

func (s *Store) GetCashOut(ctx context.Context, predictionID domain.RowId, user domain.PubKey) (*domain.CashOut, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getCashOut(predictionID, user)
}

func (s *Store) GetCashOuts(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.CashOut, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getCashOuts(predictionID, user)
}

func (s *Store) CreateSession(ctx context.Context, user domain.PubKey, challenge string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.createSession(user, challenge)
}

func (s *Store) UpdateAccessToken(ctx context.Context, user domain.PubKey, sig, challenge string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.updateAccessToken(user, sig, challenge)
}

func (s *Store) GetLastAccess(ctx context.Context, user domain.PubKey, challenge string) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getLastAccess(user, challenge)
}

func (s *Store) UpdateUsername(ctx context.Context, user domain.PubKey, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.updateUsername(user, name)
}

func (s *Store) GetUsername(ctx context.Context, user domain.PubKey) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getUsername(user)
}

func (s *Store) GetUser(ctx context.Context, user domain.PubKey) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getUser(user)
}

func (s *Store) GetUserRole(ctx context.Context, user domain.PubKey) (domain.UserRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.getUserRole(user)
}

func (s *Store) UpdateUserRole(ctx context.Context, user domain.PubKey, role domain.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.updateUserRole(user, role)
}

func (s *Store) LogTransition(ctx context.Context, predictionID domain.RowId, entity, from, to, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.logTransition(predictionID, entity, from, to, reason)
}

// WithTx holds s.mu for the whole closure and hands fn a txView backed by
// the same core, so nested calls reuse the unlocked methods directly
// instead of re-entering s.mu (sync.Mutex is not reentrant). Writes made by
// fn go straight to the core and are kept when fn returns an error; there
// is no rollback.
func (s *Store) WithTx(ctx context.Context, _ domain.RowId, fn func(ctx context.Context, tx engine.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &txView{s.c})
}

// txView implements engine.Store by delegating straight to core's unlocked
// methods. Valid only while the owning Store's mutex is held, which is
// guaranteed because it is constructed solely inside WithTx.
type txView struct{ c *core }

var _ engine.Store = (*txView)(nil)

func (v *txView) AddPrediction(ctx context.Context, p *domain.Prediction) (domain.RowId, error) {
	return v.c.addPrediction(p)
}
func (v *txView) GetPredictionState(ctx context.Context, id domain.RowId) (domain.MarketState, error) {
	return v.c.getPredictionState(id)
}
func (v *txView) SetPredictionState(ctx context.Context, id domain.RowId, st domain.MarketState) error {
	return v.c.setPredictionState(id, st)
}
func (v *txView) GetTradingEnd(ctx context.Context, id domain.RowId) (time.Time, error) {
	return v.c.getTradingEnd(id)
}
func (v *txView) GetDecisionPeriod(ctx context.Context, id domain.RowId) (time.Duration, error) {
	return v.c.getDecisionPeriod(id)
}
func (v *txView) GetJudgeSharePpm(ctx context.Context, id domain.RowId) (domain.Ppm, error) {
	return v.c.getJudgeSharePpm(id)
}
func (v *txView) GetJudgeCount(ctx context.Context, id domain.RowId) (uint32, error) {
	return v.c.getJudgeCount(id)
}
func (v *txView) GetPrediction(ctx context.Context, id domain.RowId) (*domain.Prediction, error) {
	return v.c.getPrediction(id)
}
func (v *txView) GetPredictions(ctx context.Context) ([]domain.PredictionOverview, error) {
	return v.c.getPredictions()
}
func (v *txView) GetPredictionOverview(ctx context.Context, id domain.RowId) (*domain.PredictionOverview, error) {
	return v.c.getPredictionOverview(id)
}
func (v *txView) GetPredictionRatio(ctx context.Context, id domain.RowId) (domain.PredictionRatio, error) {
	return v.c.getPredictionRatio(id)
}
func (v *txView) GetJudgeState(ctx context.Context, id domain.RowId, user domain.PubKey) (domain.JudgeState, error) {
	return v.c.getJudgeState(id, user)
}
func (v *txView) SetJudgeState(ctx context.Context, id domain.RowId, user domain.PubKey, st domain.JudgeState) error {
	return v.c.setJudgeState(id, user, st)
}
func (v *txView) GetJudgeStates(ctx context.Context, id domain.RowId) ([]domain.JudgeState, error) {
	return v.c.getJudgeStates(id)
}
func (v *txView) GetJudges(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.JudgePublic, error) {
	return v.c.getJudges(predictionID, user)
}
func (v *txView) GetJudge(ctx context.Context, id domain.RowId, user domain.PubKey) (*domain.Judge, error) {
	return v.c.getJudge(id, user)
}
func (v *txView) GetPredictionJudges(ctx context.Context, id domain.RowId) ([]domain.Judge, error) {
	return v.c.getPredictionJudges(id)
}
func (v *txView) CreateBet(ctx context.Context, predictionID domain.RowId, user domain.PubKey, side bool, invoice string) error {
	return v.c.createBet(predictionID, user, side, invoice)
}
func (v *txView) GetBet(ctx context.Context, invoice string) (*domain.Bet, error) {
	return v.c.getBet(invoice)
}
func (v *txView) SettleBet(ctx context.Context, invoice string, amount domain.Sats) error {
	return v.c.settleBet(invoice, amount)
}
func (v *txView) InitBetRefund(ctx context.Context, invoice string, refundInvoice *string) error {
	return v.c.initBetRefund(invoice, refundInvoice)
}
func (v *txView) SettleBetRefund(ctx context.Context, invoice string) error {
	return v.c.settleBetRefund(invoice)
}
func (v *txView) GetUserPredictionBets(ctx context.Context, predictionID domain.RowId, user domain.PubKey) ([]domain.Bet, error) {
	return v.c.getUserPredictionBets(predictionID, user)
}
func (v *txView) GetPredictionBets(ctx context.Context, predictionID domain.RowId, side bool) ([]domain.Bet, error) {
	return v.c.getPredictionBets(predictionID, side)
}
func (v *txView) GetPredictionBetsAggregated(ctx context.Context, predictionID domain.RowId, side bool) (domain.Sats, error) {
	return v.c.getPredictionBetsAggregated(predictionID, side)
}
func (v *txView) GetBets(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.Bet, error) {
	return v.c.getBets(predictionID, user)
}
func (v *txView) SetCashOut(ctx context.Context, predictionID domain.RowId, amounts map[domain.PubKey]domain.Sats) error {
	return v.c.setCashOut(predictionID, amounts)
}
func (v *txView) SetCashOutInvoice(ctx context.Context, predictionID domain.RowId, user domain.PubKey, invoice string) error {
	return v.c.setCashOutInvoice(predictionID, user, invoice)
}
func (v *txView) GetCashOut(ctx context.Context, predictionID domain.RowId, user domain.PubKey) (*domain.CashOut, error) {
	return v.c.getCashOut(predictionID, user)
}
func (v *txView) GetCashOuts(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.CashOut, error) {
	return v.c.getCashOuts(predictionID, user)
}
func (v *txView) CreateSession(ctx context.Context, user domain.PubKey, challenge string) error {
	return v.c.createSession(user, challenge)
}
func (v *txView) UpdateAccessToken(ctx context.Context, user domain.PubKey, sig, challenge string) error {
	return v.c.updateAccessToken(user, sig, challenge)
}
func (v *txView) GetLastAccess(ctx context.Context, user domain.PubKey, challenge string) (string, time.Time, error) {
	return v.c.getLastAccess(user, challenge)
}
func (v *txView) UpdateUsername(ctx context.Context, user domain.PubKey, name string) error {
	return v.c.updateUsername(user, name)
}
func (v *txView) GetUsername(ctx context.Context, user domain.PubKey) (*string, error) {
	return v.c.getUsername(user)
}
func (v *txView) GetUser(ctx context.Context, user domain.PubKey) (*domain.User, error) {
	return v.c.getUser(user)
}
func (v *txView) GetUserRole(ctx context.Context, user domain.PubKey) (domain.UserRole, error) {
	return v.c.getUserRole(user)
}
func (v *txView) UpdateUserRole(ctx context.Context, user domain.PubKey, role domain.UserRole) error {
	return v.c.updateUserRole(user, role)
}
func (v *txView) LogTransition(ctx context.Context, predictionID domain.RowId, entity, from, to, reason string) error {
	return v.c.logTransition(predictionID, entity, from, to, reason)
}
func (v *txView) WithTx(ctx context.Context, predictionID domain.RowId, fn func(ctx context.Context, tx engine.Store) error) error {
	return fn(ctx, v)
}

// --- unlocked core implementation ---

func (c *core) mustRow(id domain.RowId) (*predictionRow, error) {
	row, ok := c.predictions[id]
	if !ok {
		return nil, domain.ErrPredictionNotFound
	}
	return row, nil
}

func (c *core) addPrediction(p *domain.Prediction) (domain.RowId, error) {
	c.nextID++
	id := c.nextID
	cp := *p
	cp.ID = id
	c.predictions[id] = &predictionRow{
		prediction: cp,
		state:      domain.WaitingForJudges(),
		judges:     make(map[domain.PubKey]domain.JudgeState),
	}
	return id, nil
}

func (c *core) getPredictionState(id domain.RowId) (domain.MarketState, error) {
	row, err := c.mustRow(id)
	if err != nil {
		return domain.MarketState{}, err
	}
	return row.state, nil
}

func (c *core) setPredictionState(id domain.RowId, st domain.MarketState) error {
	row, err := c.mustRow(id)
	if err != nil {
		return err
	}
	row.state = st
	return nil
}

func (c *core) getTradingEnd(id domain.RowId) (time.Time, error) {
	row, err := c.mustRow(id)
	if err != nil {
		return time.Time{}, err
	}
	return row.prediction.TradingEnd, nil
}

func (c *core) getDecisionPeriod(id domain.RowId) (time.Duration, error) {
	row, err := c.mustRow(id)
	if err != nil {
		return 0, err
	}
	return row.prediction.DecisionPeriod, nil
}

func (c *core) getJudgeSharePpm(id domain.RowId) (domain.Ppm, error) {
	row, err := c.mustRow(id)
	if err != nil {
		return 0, err
	}
	return row.prediction.JudgeSharePpm, nil
}

func (c *core) getJudgeCount(id domain.RowId) (uint32, error) {
	row, err := c.mustRow(id)
	if err != nil {
		return 0, err
	}
	return row.prediction.JudgeCount, nil
}

func (c *core) getPrediction(id domain.RowId) (*domain.Prediction, error) {
	row, err := c.mustRow(id)
	if err != nil {
		return nil, err
	}
	p := row.prediction
	p.State = row.state
	p.Judges = append([]domain.PubKey(nil), row.judgeOrder...)
	return &p, nil
}

func (c *core) overview(id domain.RowId, row *predictionRow) domain.PredictionOverview {
	var trueAmt, falseAmt domain.Sats
	for _, b := range c.bets {
		if b.PredictionID != id || b.State != domain.BetFunded || b.Amount == nil {
			continue
		}
		if b.Side {
			trueAmt += *b.Amount
		} else {
			falseAmt += *b.Amount
		}
	}
	return domain.PredictionOverview{
		ID:            id,
		Question:      row.prediction.Question,
		State:         row.state,
		TradingEnd:    row.prediction.TradingEnd,
		TrueAmount:    trueAmt,
		FalseAmount:   falseAmt,
		JudgeCount:    row.prediction.JudgeCount,
		JudgeSharePpm: row.prediction.JudgeSharePpm,
	}
}

func (c *core) getPredictions() ([]domain.PredictionOverview, error) {
	out := make([]domain.PredictionOverview, 0, len(c.predictions))
	for id, row := range c.predictions {
		out = append(out, c.overview(id, row))
	}
	return out, nil
}

func (c *core) getPredictionOverview(id domain.RowId) (*domain.PredictionOverview, error) {
	row, err := c.mustRow(id)
	if err != nil {
		return nil, err
	}
	ov := c.overview(id, row)
	return &ov, nil
}

func (c *core) getPredictionRatio(id domain.RowId) (domain.PredictionRatio, error) {
	if _, err := c.mustRow(id); err != nil {
		return domain.PredictionRatio{}, err
	}
	var trueAmt, falseAmt domain.Sats
	for _, b := range c.bets {
		if b.PredictionID != id || b.State != domain.BetFunded || b.Amount == nil {
			continue
		}
		if b.Side {
			trueAmt += *b.Amount
		} else {
			falseAmt += *b.Amount
		}
	}
	return domain.PredictionRatio{TrueAmount: trueAmt, FalseAmount: falseAmt}, nil
}

func (c *core) getJudgeState(id domain.RowId, user domain.PubKey) (domain.JudgeState, error) {
	row, err := c.mustRow(id)
	if err != nil {
		return domain.JudgeState{}, err
	}
	st, ok := row.judges[user]
	if !ok {
		return domain.JudgeState{}, domain.ErrJudgeNotFound
	}
	return st, nil
}

func (c *core) setJudgeState(id domain.RowId, user domain.PubKey, st domain.JudgeState) error {
	row, err := c.mustRow(id)
	if err != nil {
		return err
	}
	if _, existed := row.judges[user]; !existed {
		row.judgeOrder = append(row.judgeOrder, user)
	}
	row.judges[user] = st
	return nil
}

func (c *core) getJudgeStates(id domain.RowId) ([]domain.JudgeState, error) {
	row, err := c.mustRow(id)
	if err != nil {
		return nil, err
	}
	out := make([]domain.JudgeState, 0, len(row.judges))
	for _, u := range row.judgeOrder {
		out = append(out, row.judges[u])
	}
	return out, nil
}

func (c *core) getJudges(predictionID *domain.RowId, user *domain.PubKey) ([]domain.JudgePublic, error) {
	var out []domain.JudgePublic
	for id, row := range c.predictions {
		if predictionID != nil && *predictionID != id {
			continue
		}
		for _, u := range row.judgeOrder {
			if user != nil && *user != u {
				continue
			}
			out = append(out, domain.JudgePublic{PredictionID: id, User: u, State: row.judges[u]})
		}
	}
	return out, nil
}

func (c *core) getJudge(id domain.RowId, user domain.PubKey) (*domain.Judge, error) {
	row, err := c.mustRow(id)
	if err != nil {
		return nil, err
	}
	st, ok := row.judges[user]
	if !ok {
		return nil, domain.ErrJudgeNotFound
	}
	return &domain.Judge{PredictionID: id, User: user, State: st}, nil
}

func (c *core) getPredictionJudges(id domain.RowId) ([]domain.Judge, error) {
	row, err := c.mustRow(id)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Judge, 0, len(row.judgeOrder))
	for _, u := range row.judgeOrder {
		out = append(out, domain.Judge{PredictionID: id, User: u, State: row.judges[u]})
	}
	return out, nil
}

func (c *core) createBet(predictionID domain.RowId, user domain.PubKey, side bool, invoice string) error {
	if _, err := c.mustRow(predictionID); err != nil {
		return err
	}
	c.bets[invoice] = &domain.Bet{
		FundInvoice:  invoice,
		User:         user,
		PredictionID: predictionID,
		Side:         side,
		State:        domain.BetFundInit,
		CreatedAt:    time.Now(),
	}
	return nil
}

func (c *core) getBet(invoice string) (*domain.Bet, error) {
	b, ok := c.bets[invoice]
	if !ok {
		return nil, domain.ErrBetNotFound
	}
	cp := *b
	return &cp, nil
}

func (c *core) settleBet(invoice string, amount domain.Sats) error {
	b, ok := c.bets[invoice]
	if !ok {
		return domain.ErrBetNotFound
	}
	b.Amount = &amount
	b.State = domain.BetFunded
	return nil
}

func (c *core) initBetRefund(invoice string, refundInvoice *string) error {
	b, ok := c.bets[invoice]
	if !ok {
		return domain.ErrBetNotFound
	}
	b.State = domain.BetRefundInit
	b.RefundInvoice = refundInvoice
	return nil
}

func (c *core) settleBetRefund(invoice string) error {
	b, ok := c.bets[invoice]
	if !ok {
		return domain.ErrBetNotFound
	}
	b.State = domain.BetRefunded
	return nil
}

func (c *core) getUserPredictionBets(predictionID domain.RowId, user domain.PubKey) ([]domain.Bet, error) {
	var out []domain.Bet
	for _, b := range c.bets {
		if b.PredictionID == predictionID && b.User == user {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (c *core) getPredictionBets(predictionID domain.RowId, side bool) ([]domain.Bet, error) {
	var out []domain.Bet
	for _, b := range c.bets {
		if b.PredictionID == predictionID && b.Side == side {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (c *core) getPredictionBetsAggregated(predictionID domain.RowId, side bool) (domain.Sats, error) {
	var total domain.Sats
	for _, b := range c.bets {
		if b.PredictionID == predictionID && b.Side == side && b.State == domain.BetFunded && b.Amount != nil {
			total += *b.Amount
		}
	}
	return total, nil
}

func (c *core) getBets(predictionID *domain.RowId, user *domain.PubKey) ([]domain.Bet, error) {
	var out []domain.Bet
	for _, b := range c.bets {
		if predictionID != nil && b.PredictionID != *predictionID {
			continue
		}
		if user != nil && b.User != *user {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (c *core) setCashOut(predictionID domain.RowId, amounts map[domain.PubKey]domain.Sats) error {
	m, ok := c.cashOuts[predictionID]
	if !ok {
		m = make(map[domain.PubKey]*domain.CashOut)
		c.cashOuts[predictionID] = m
	}
	for user, amount := range amounts {
		m[user] = &domain.CashOut{PredictionID: predictionID, User: user, Amount: amount}
	}
	return nil
}

func (c *core) setCashOutInvoice(predictionID domain.RowId, user domain.PubKey, invoice string) error {
	m, ok := c.cashOuts[predictionID]
	if !ok {
		return domain.ErrNoCashOut
	}
	cashOut, ok := m[user]
	if !ok {
		return domain.ErrNoCashOut
	}
	cashOut.Invoice = &invoice
	return nil
}

func (c *core) getCashOut(predictionID domain.RowId, user domain.PubKey) (*domain.CashOut, error) {
	m, ok := c.cashOuts[predictionID]
	if !ok {
		return nil, nil
	}
	cashOut, ok := m[user]
	if !ok {
		return nil, nil
	}
	cp := *cashOut
	return &cp, nil
}

func (c *core) getCashOuts(predictionID *domain.RowId, user *domain.PubKey) ([]domain.CashOut, error) {
	var out []domain.CashOut
	for id, m := range c.cashOuts {
		if predictionID != nil && *predictionID != id {
			continue
		}
		for u, cashOut := range m {
			if user != nil && *user != u {
				continue
			}
			out = append(out, *cashOut)
		}
	}
	return out, nil
}

func (c *core) createSession(user domain.PubKey, challenge string) error {
	c.sessions[sessionKey(user, challenge)] = &domain.Session{User: user, Challenge: challenge}
	return nil
}

func (c *core) updateAccessToken(user domain.PubKey, sig, challenge string) error {
	sess, ok := c.sessions[sessionKey(user, challenge)]
	if !ok {
		return domain.ErrNotAuthenticated
	}
	sess.Sig = sig
	sess.LastAccess = time.Now()
	return nil
}

func (c *core) getLastAccess(user domain.PubKey, challenge string) (string, time.Time, error) {
	sess, ok := c.sessions[sessionKey(user, challenge)]
	if !ok {
		return "", time.Time{}, domain.ErrNotAuthenticated
	}
	return sess.Sig, sess.LastAccess, nil
}

func (c *core) getOrCreateUser(user domain.PubKey) *domain.User {
	u, ok := c.users[user]
	if !ok {
		u = &domain.User{PubKey: user, Role: domain.RoleUser}
		c.users[user] = u
	}
	return u
}

func (c *core) updateUsername(user domain.PubKey, name string) error {
	u := c.getOrCreateUser(user)
	u.DisplayName = &name
	return nil
}

func (c *core) getUsername(user domain.PubKey) (*string, error) {
	u, ok := c.users[user]
	if !ok {
		return nil, nil
	}
	return u.DisplayName, nil
}

func (c *core) getUser(user domain.PubKey) (*domain.User, error) {
	u, ok := c.users[user]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (c *core) getUserRole(user domain.PubKey) (domain.UserRole, error) {
	return c.getOrCreateUser(user).Role, nil
}

func (c *core) updateUserRole(user domain.PubKey, role domain.UserRole) error {
	c.getOrCreateUser(user).Role = role
	return nil
}

func (c *core) logTransition(predictionID domain.RowId, entity, from, to, reason string) error {
	c.logs = append(c.logs, domain.TransitionLog{
		ID:           uuid.New(),
		PredictionID: predictionID,
		Entity:       entity,
		FromState:    from,
		ToState:      to,
		Reason:       reason,
		CreatedAt:    time.Now(),
	})
	return nil
}
