package market

import (
	"context"
	"fmt"
	"math/big"

	"github.com/chatten/compute-engine/pkg/access"
	"github.com/chatten/compute-engine/pkg/config"
	"github.com/chatten/compute-engine/pkg/ledger"
	"github.com/chatten/compute-engine/pkg/metrics"
	"github.com/chatten/compute-engine/pkg/model"
	"github.com/chatten/compute-engine/pkg/reserve"
	"github.com/chatten/compute-engine/pkg/scoring"
	"github.com/chatten/compute-engine/pkg/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// init configures a default global zap logger for the engine. Applications
// may replace it with zap.ReplaceGlobals(...) if they need custom logging.
func init() {
	c := zap.Config{
		Level:            zap.NewAtomicLevelAt(zap.InfoLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := c.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

// Engine is the marketplace engine. Construct with New; the zero value is
// not usable. Methods are not safe for concurrent use; the hosting
// environment serializes operations.
type Engine struct {
	cfg        config.Config
	store      storage.Store
	sink       model.EventSink
	settlement Settlement
	source     metrics.Source

	access  *access.Controller
	ledger  *ledger.Ledger
	reserve *reserve.Accountant
	scorer  *scoring.Scorer
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithStore backs the engine with the given store instead of a fresh
// in-memory one. Restarting over a persisted store keeps rotated roles,
// prices, and the token set intact.
func WithStore(store storage.Store) Option {
	return func(e *Engine) { e.store = store }
}

// WithSink routes domain events to the given sink instead of the log sink.
func WithSink(sink model.EventSink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithSettlement replaces the in-memory settlement with a real payment rail.
func WithSettlement(settlement Settlement) Option {
	return func(e *Engine) { e.settlement = settlement }
}

// WithMetricsSource enables MintFromSource by supplying a metrics source.
func WithMetricsSource(source metrics.Source) Option {
	return func(e *Engine) { e.source = source }
}

// New validates cfg, applies the options, and bootstraps roles, fee rate,
// and price into the store. Bootstrap is a no-op over already-initialized
// state, so the config's Admin/Oracle/PricePerUnit only seed a fresh store.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = storage.NewMemoryStore()
	}
	if e.sink == nil {
		e.sink = NewLogSink()
	}
	if e.settlement == nil {
		e.settlement = NewMemorySettlement()
	}

	scorer, err := scoring.New(cfg.Weights,
		scoring.WithThreshold(cfg.MintThreshold),
		scoring.WithDefaults(cfg.MetricDefaults),
		scoring.WithCache(cfg.ScoreCacheSize, cfg.ScoreCacheTTL),
	)
	if err != nil {
		return nil, err
	}
	e.scorer = scorer

	e.access = access.New(e.store)
	e.access.Bootstrap(cfg.Admin, cfg.Oracle)

	e.reserve = reserve.New(e.store)
	if err := e.reserve.Bootstrap(cfg.FeeRate, cfg.PricePerUnit); err != nil {
		return nil, err
	}

	e.ledger = ledger.New(e.store, e.sink, cfg.MintThreshold)
	return e, nil
}

// MintCompute scores the model's metrics and, when the composite clears the
// mint threshold, mints a token for owner. Oracle only. The minted capacity
// is requestedUnits scaled by the composite score: units * quality / 100,
// floored. Returns the scoring result alongside the token so callers can
// report per-component contributions.
func (e *Engine) MintCompute(caller, owner common.Address, modelID string, requestedUnits *big.Int, metricValues map[string]float64) (model.Token, model.QualityResult, error) {
	if err := e.access.RequireNotPaused(); err != nil {
		return model.Token{}, model.QualityResult{}, err
	}
	if err := e.access.RequireOracle(caller); err != nil {
		return model.Token{}, model.QualityResult{}, err
	}
	if requestedUnits == nil || requestedUnits.Sign() <= 0 {
		return model.Token{}, model.QualityResult{}, ledger.ErrInvalidAmount
	}

	result := e.scorer.Score(modelID, metricValues)
	if result.Recommendation != model.RecommendMint {
		return model.Token{}, result, fmt.Errorf("%w: composite %d < %d",
			ledger.ErrQualityTooLow, result.Composite, e.scorer.Threshold())
	}

	units := new(big.Int).Mul(requestedUnits, big.NewInt(int64(result.Composite)))
	units.Div(units, big.NewInt(100))
	if units.Sign() <= 0 {
		return model.Token{}, result, ledger.ErrInvalidAmount
	}

	token, err := e.ledger.Mint(owner, model.HashModelID(modelID), result.Composite, units)
	if err != nil {
		return model.Token{}, result, err
	}

	zap.L().Info("minted compute token",
		zap.String("token", token.ID.Hex()),
		zap.String("model", modelID),
		zap.Int("quality", result.Composite),
		zap.String("units", units.String()))
	return token, result, nil
}

// MintFromSource fetches the model's metrics from the configured metrics
// source and mints through MintCompute. Fails with ErrNoMetricsSource when
// the engine has no source.
func (e *Engine) MintFromSource(ctx context.Context, caller, owner common.Address, modelID string, requestedUnits *big.Int) (model.Token, model.QualityResult, error) {
	if e.source == nil {
		return model.Token{}, model.QualityResult{}, ErrNoMetricsSource
	}
	metricValues, err := e.source.Metrics(ctx, modelID)
	if err != nil {
		return model.Token{}, model.QualityResult{}, fmt.Errorf("fetch metrics for %s: %w", modelID, err)
	}
	return e.MintCompute(caller, owner, modelID, requestedUnits, metricValues)
}

// BuyCompute converts the buyer's payment into a fresh token holding
// floor(paid / price) compute units at the configured default market
// quality. The payment is credited to the reserve; the division remainder
// is not refunded.
func (e *Engine) BuyCompute(buyer common.Address, modelID string, paid *big.Int) (model.Token, error) {
	if err := e.access.RequireNotPaused(); err != nil {
		return model.Token{}, err
	}
	units, err := e.reserve.ComputeBuyMint(paid)
	if err != nil {
		return model.Token{}, err
	}

	if err := e.reserve.Credit(paid); err != nil {
		return model.Token{}, err
	}
	token, err := e.ledger.Mint(buyer, model.HashModelID(modelID), e.cfg.DefaultMarketQuality, units)
	if err != nil {
		// Unreachable with validated config: quality and units were
		// checked above.
		return model.Token{}, err
	}

	e.sink.Emit(model.BuyEvent{
		Buyer:        buyer,
		TokenID:      token.ID,
		Paid:         new(big.Int).Set(paid),
		ComputeUnits: units,
	})
	return token, nil
}

// SellCompute burns the seller's token and pays out its compute units at the
// configured price, minus the sell fee, from the reserve. The settlement
// transfer happens before any ledger or reserve mutation; if it fails the
// token and the reserve are untouched.
func (e *Engine) SellCompute(seller common.Address, tokenID common.Hash) (payout, fee *big.Int, err error) {
	if err := e.access.RequireNotPaused(); err != nil {
		return nil, nil, err
	}
	token, err := e.ledger.TokenInfo(tokenID)
	if err != nil {
		return nil, nil, err
	}
	if token.Owner != seller {
		return nil, nil, fmt.Errorf("%w: %s", ledger.ErrNotOwner, seller.Hex())
	}
	payout, fee, err = e.reserve.ComputeSellPayout(token.Metadata.ComputeUnits)
	if err != nil {
		return nil, nil, err
	}

	if err := e.settlement.Transfer(seller, payout); err != nil {
		return nil, nil, fmt.Errorf("settlement payout to %s: %w", seller.Hex(), err)
	}
	// The reserve covers the payout (validated above) and the token exists,
	// so neither call below can fail.
	if err := e.reserve.Debit(payout); err != nil {
		return nil, nil, err
	}
	if _, err := e.ledger.Burn(tokenID); err != nil {
		return nil, nil, err
	}

	e.sink.Emit(model.SellEvent{
		Seller:  seller,
		TokenID: tokenID,
		Payout:  payout,
		Fee:     fee,
	})
	return payout, fee, nil
}

// WithdrawGas pays amount from the reserve out to the admin. Admin only.
func (e *Engine) WithdrawGas(caller common.Address, amount *big.Int) error {
	if err := e.access.RequireNotPaused(); err != nil {
		return err
	}
	if err := e.access.RequireAdmin(caller); err != nil {
		return err
	}
	if err := e.reserve.Require(amount); err != nil {
		return err
	}

	if err := e.settlement.Transfer(caller, amount); err != nil {
		return fmt.Errorf("settlement withdrawal to %s: %w", caller.Hex(), err)
	}
	if err := e.reserve.Debit(amount); err != nil {
		return err
	}

	e.sink.Emit(model.WithdrawEvent{Admin: caller, Amount: new(big.Int).Set(amount)})
	return nil
}

// FundReserve credits amount to the reserve outside the buy flow. Not
// pause-gated: deposits already submitted to the settlement layer must land
// even during an emergency pause.
func (e *Engine) FundReserve(from common.Address, amount *big.Int) error {
	if err := e.reserve.Credit(amount); err != nil {
		return err
	}
	e.sink.Emit(model.ReserveFundedEvent{From: from, Amount: new(big.Int).Set(amount)})
	return nil
}

// Transfer moves a token between accounts, honoring single-token approvals
// and operator approvals.
func (e *Engine) Transfer(caller, from, to common.Address, tokenID common.Hash, data []byte) error {
	if err := e.access.RequireNotPaused(); err != nil {
		return err
	}
	return e.ledger.Transfer(caller, from, to, tokenID, data)
}

// Approve sets spender as the single approved spender of tokenID.
func (e *Engine) Approve(caller, spender common.Address, tokenID common.Hash) error {
	if err := e.access.RequireNotPaused(); err != nil {
		return err
	}
	return e.ledger.Approve(caller, spender, tokenID)
}

// SetApprovalForAll grants or revokes operator rights over all of the
// caller's tokens.
func (e *Engine) SetApprovalForAll(caller, operator common.Address, approved bool) error {
	if err := e.access.RequireNotPaused(); err != nil {
		return err
	}
	e.ledger.SetApprovalForAll(caller, operator, approved)
	return nil
}

// RegisterReceiver marks account as contract-capable, routing transfer
// notifications to receiver.
func (e *Engine) RegisterReceiver(account common.Address, receiver ledger.Receiver) {
	e.ledger.RegisterReceiver(account, receiver)
}

// SetPrice updates the price per compute unit. Oracle only.
func (e *Engine) SetPrice(caller common.Address, price *big.Int) error {
	if err := e.access.RequireNotPaused(); err != nil {
		return err
	}
	if err := e.access.RequireOracle(caller); err != nil {
		return err
	}
	old, _ := e.reserve.Price()
	if err := e.reserve.SetPrice(price); err != nil {
		return err
	}
	e.sink.Emit(model.PriceChangedEvent{Old: old, New: new(big.Int).Set(price)})
	return nil
}

// Pause sets the pause flag, blocking every state-changing operation except
// FundReserve and the admin controls. Admin only. Pausing an already paused
// engine is a no-op and emits no event.
func (e *Engine) Pause(caller common.Address) error {
	changed, err := e.access.Pause(caller)
	if err != nil {
		return err
	}
	if changed {
		zap.L().Warn("engine paused", zap.String("admin", caller.Hex()))
		e.sink.Emit(model.PausedEvent{})
	}
	return nil
}

// Resume clears the pause flag. Admin only. Resuming a running engine is a
// no-op and emits no event.
func (e *Engine) Resume(caller common.Address) error {
	changed, err := e.access.Resume(caller)
	if err != nil {
		return err
	}
	if changed {
		zap.L().Info("engine resumed", zap.String("admin", caller.Hex()))
		e.sink.Emit(model.ResumedEvent{})
	}
	return nil
}

// SetOracle rotates the oracle/minter role. Admin only. Allowed while
// paused, so a compromised oracle can be replaced during an emergency stop.
func (e *Engine) SetOracle(caller, oracle common.Address) error {
	old, err := e.access.SetOracle(caller, oracle)
	if err != nil {
		return err
	}
	e.sink.Emit(model.OracleChangedEvent{Old: old, New: oracle})
	return nil
}

// SetAdmin hands the admin role over. Only the current admin may call it.
// Allowed while paused.
func (e *Engine) SetAdmin(caller, admin common.Address) error {
	old, err := e.access.SetAdmin(caller, admin)
	if err != nil {
		return err
	}
	e.sink.Emit(model.AdminChangedEvent{Old: old, New: admin})
	return nil
}

// Score runs the quality scorer without minting. Read-only and open to any
// caller.
func (e *Engine) Score(modelID string, metricValues map[string]float64) model.QualityResult {
	return e.scorer.Score(modelID, metricValues)
}

// Rank scores every model in inputs and orders the results by descending
// composite score.
func (e *Engine) Rank(inputs map[string]map[string]float64) []model.QualityResult {
	return e.scorer.Rank(inputs)
}

// OwnerOf returns the owner of tokenID.
func (e *Engine) OwnerOf(tokenID common.Hash) (common.Address, error) {
	return e.ledger.OwnerOf(tokenID)
}

// TokenInfo returns the full token record.
func (e *Engine) TokenInfo(tokenID common.Hash) (model.Token, error) {
	return e.ledger.TokenInfo(tokenID)
}

// BalanceOf returns the number of tokens owned by owner.
func (e *Engine) BalanceOf(owner common.Address) int {
	return e.ledger.BalanceOf(owner)
}

// TokensOf returns the ids of all tokens owned by owner.
func (e *Engine) TokensOf(owner common.Address) []common.Hash {
	return e.ledger.TokensOf(owner)
}

// TotalSupply returns the number of existing tokens.
func (e *Engine) TotalSupply() uint64 {
	return e.ledger.TotalSupply()
}

// IsApprovedForAll reports whether operator may transfer any of owner's
// tokens.
func (e *Engine) IsApprovedForAll(owner, operator common.Address) bool {
	return e.ledger.IsApprovedForAll(owner, operator)
}

// ReserveBalance returns the current reserve balance.
func (e *Engine) ReserveBalance() *big.Int {
	return e.reserve.Balance()
}

// Price returns the configured price per compute unit and whether it is set.
func (e *Engine) Price() (*big.Int, bool) {
	return e.reserve.Price()
}

// FeeRate returns the sell fee rate as a decimal fraction.
func (e *Engine) FeeRate() decimal.Decimal {
	return e.reserve.FeeRate()
}

// IsPaused reports the pause flag.
func (e *Engine) IsPaused() bool {
	return e.access.IsPaused()
}

// Admin returns the current admin address.
func (e *Engine) Admin() common.Address {
	return e.access.Admin()
}

// Oracle returns the current oracle/minter address.
func (e *Engine) Oracle() common.Address {
	return e.access.Oracle()
}
