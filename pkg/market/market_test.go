package market

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/chatten/compute-engine/pkg/access"
	"github.com/chatten/compute-engine/pkg/config"
	"github.com/chatten/compute-engine/pkg/ledger"
	"github.com/chatten/compute-engine/pkg/metrics"
	"github.com/chatten/compute-engine/pkg/model"
	"github.com/chatten/compute-engine/pkg/reserve"
	"github.com/chatten/compute-engine/pkg/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	admin    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	oracle   = common.HexToAddress("0x2000000000000000000000000000000000000002")
	alice    = common.HexToAddress("0xa000000000000000000000000000000000000001")
	bob      = common.HexToAddress("0xb000000000000000000000000000000000000002")
	stranger = common.HexToAddress("0xc000000000000000000000000000000000000003")
)

// three-component weights matching the worked scoring example:
// 0.4*90 + 0.3*70 + 0.3*100 = 87
func testWeights() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"latency":    decimal.NewFromFloat(0.4),
		"throughput": decimal.NewFromFloat(0.3),
		"accuracy":   decimal.NewFromFloat(0.3),
	}
}

func goodMetrics() map[string]float64 {
	return map[string]float64{"latency": 90, "throughput": 70, "accuracy": 100}
}

func newEngine(t *testing.T, opts ...Option) (*Engine, *CollectSink, *MemorySettlement) {
	t.Helper()
	sink := &CollectSink{}
	settlement := NewMemorySettlement()
	cfg := config.Config{
		Admin:        admin,
		Oracle:       oracle,
		PricePerUnit: big.NewInt(10),
		Weights:      testWeights(),
	}
	opts = append([]Option{WithSink(sink), WithSettlement(settlement)}, opts...)
	e, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, sink, settlement
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(config.Config{Oracle: oracle}); err == nil {
		t.Fatal("expected error for missing admin")
	}
	cfg := config.Config{
		Admin:   admin,
		Oracle:  oracle,
		Weights: map[string]decimal.Decimal{"latency": decimal.NewFromFloat(0.5)},
	}
	if _, err := New(cfg); !errors.Is(err, config.ErrWeightsInvalid) {
		t.Fatalf("expected ErrWeightsInvalid, got %v", err)
	}
}

func TestMintComputeScalesByQuality(t *testing.T) {
	e, sink, _ := newEngine(t)

	token, result, err := e.MintCompute(oracle, alice, "gpt-x", big.NewInt(100), goodMetrics())
	if err != nil {
		t.Fatalf("MintCompute: %v", err)
	}
	if result.Composite != 87 {
		t.Fatalf("composite = %d, want 87", result.Composite)
	}
	// 100 * 87 / 100 = 87 units
	if token.Metadata.ComputeUnits.Cmp(big.NewInt(87)) != 0 {
		t.Fatalf("units = %s, want 87", token.Metadata.ComputeUnits)
	}
	if owner, _ := e.OwnerOf(token.ID); owner != alice {
		t.Fatalf("owner = %s", owner.Hex())
	}

	names := sink.Names()
	if names[0] != "Mint" || names[1] != "Transfer" {
		t.Fatalf("unexpected events: %v", names)
	}
}

func TestMintComputeRejectsLowQuality(t *testing.T) {
	e, _, _ := newEngine(t)

	low := map[string]float64{"latency": 30, "throughput": 30, "accuracy": 30}
	_, result, err := e.MintCompute(oracle, alice, "weak-model", big.NewInt(100), low)
	if !errors.Is(err, ledger.ErrQualityTooLow) {
		t.Fatalf("expected ErrQualityTooLow, got %v", err)
	}
	if result.Recommendation != model.RecommendImprove {
		t.Fatalf("recommendation = %s", result.Recommendation)
	}
	if e.TotalSupply() != 0 {
		t.Fatal("failed mint changed supply")
	}
	if !IsValidationError(err) {
		t.Fatalf("low quality should be a validation error: %v", err)
	}
}

func TestMintComputeRequiresOracle(t *testing.T) {
	e, _, _ := newEngine(t)

	_, _, err := e.MintCompute(stranger, alice, "gpt-x", big.NewInt(100), goodMetrics())
	if !errors.Is(err, access.ErrNotOracle) {
		t.Fatalf("expected ErrNotOracle, got %v", err)
	}
	if !IsAuthorizationError(err) {
		t.Fatalf("role failure should be an authorization error: %v", err)
	}
}

func TestMintComputeWhilePausedFailsRegardlessOfQuality(t *testing.T) {
	e, _, _ := newEngine(t)
	if err := e.Pause(admin); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	_, _, err := e.MintCompute(oracle, alice, "gpt-x", big.NewInt(100), goodMetrics())
	if !errors.Is(err, access.ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
	if !IsStateError(err) {
		t.Fatalf("pause should be a state error: %v", err)
	}
	if e.TotalSupply() != 0 {
		t.Fatal("paused mint changed supply")
	}
}

func TestBuyComputeFloorsAndKeepsRemainder(t *testing.T) {
	e, sink, _ := newEngine(t)

	// price 10, paid 25: floor(25/10) = 2 units, 25 credited
	token, err := e.BuyCompute(alice, "gpt-x", big.NewInt(25))
	if err != nil {
		t.Fatalf("BuyCompute: %v", err)
	}
	if token.Metadata.ComputeUnits.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("units = %s, want 2", token.Metadata.ComputeUnits)
	}
	if got := e.ReserveBalance(); got.Cmp(big.NewInt(25)) != 0 {
		t.Fatalf("reserve = %s, want 25", got)
	}

	names := sink.Names()
	if names[len(names)-1] != "Buy" {
		t.Fatalf("expected trailing Buy event, got %v", names)
	}

	if _, err := e.BuyCompute(alice, "gpt-x", big.NewInt(9)); !errors.Is(err, reserve.ErrPaymentTooSmall) {
		t.Fatalf("expected ErrPaymentTooSmall, got %v", err)
	}
}

func TestBuyThenSellReconcilesReserve(t *testing.T) {
	e, _, settlement := newEngine(t)

	token, err := e.BuyCompute(alice, "gpt-x", big.NewInt(25))
	if err != nil {
		t.Fatalf("BuyCompute: %v", err)
	}

	// gross = 2 * 10 = 20, fee = floor(20 * 0.003) = 0
	payout, fee, err := e.SellCompute(alice, token.ID)
	if err != nil {
		t.Fatalf("SellCompute: %v", err)
	}
	if payout.Cmp(big.NewInt(20)) != 0 || fee.Sign() != 0 {
		t.Fatalf("payout = %s fee = %s, want 20 and 0", payout, fee)
	}

	// reserve keeps the division remainder plus the fee
	if got := e.ReserveBalance(); got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("reserve = %s, want 5", got)
	}
	if got := settlement.Balance(alice); got.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("settlement balance = %s, want 20", got)
	}
	if e.TotalSupply() != 0 {
		t.Fatalf("supply = %d after sell", e.TotalSupply())
	}
	if _, err := e.TokenInfo(token.ID); !errors.Is(err, ledger.ErrTokenNotFound) {
		t.Fatalf("expected token gone, got %v", err)
	}
}

func TestSellComputeRequiresOwner(t *testing.T) {
	e, _, settlement := newEngine(t)

	token, err := e.BuyCompute(alice, "gpt-x", big.NewInt(100))
	if err != nil {
		t.Fatalf("BuyCompute: %v", err)
	}

	_, _, err = e.SellCompute(bob, token.ID)
	if !errors.Is(err, ledger.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if !IsAuthorizationError(err) {
		t.Fatalf("non-owner sell should be an authorization error: %v", err)
	}
	if owner, _ := e.OwnerOf(token.ID); owner != alice {
		t.Fatal("failed sell moved the token")
	}
	if settlement.Balance(bob).Sign() != 0 {
		t.Fatal("failed sell paid out")
	}
}

type failSettlement struct{}

func (failSettlement) Transfer(common.Address, *big.Int) error {
	return errors.New("rail unavailable")
}

func TestSellComputeAbortsCleanlyOnSettlementFailure(t *testing.T) {
	e, _, _ := newEngine(t, WithSettlement(failSettlement{}))

	token, err := e.BuyCompute(alice, "gpt-x", big.NewInt(100))
	if err != nil {
		t.Fatalf("BuyCompute: %v", err)
	}

	if _, _, err := e.SellCompute(alice, token.ID); err == nil {
		t.Fatal("expected settlement failure")
	}
	// the token and the reserve are untouched
	if owner, _ := e.OwnerOf(token.ID); owner != alice {
		t.Fatal("failed settlement burned the token")
	}
	if got := e.ReserveBalance(); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("reserve = %s, want 100", got)
	}
}

func TestWithdrawGas(t *testing.T) {
	e, sink, settlement := newEngine(t)
	if err := e.FundReserve(alice, big.NewInt(500)); err != nil {
		t.Fatalf("FundReserve: %v", err)
	}

	if err := e.WithdrawGas(admin, big.NewInt(200)); err != nil {
		t.Fatalf("WithdrawGas: %v", err)
	}
	if got := e.ReserveBalance(); got.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("reserve = %s, want 300", got)
	}
	if got := settlement.Balance(admin); got.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("admin settlement balance = %s, want 200", got)
	}

	names := sink.Names()
	if names[len(names)-1] != "Withdraw" {
		t.Fatalf("expected trailing Withdraw event, got %v", names)
	}

	if err := e.WithdrawGas(admin, big.NewInt(10_000)); !errors.Is(err, reserve.ErrInsufficientReserve) {
		t.Fatalf("expected ErrInsufficientReserve, got %v", err)
	}
	if !IsResourceError(e.WithdrawGas(admin, big.NewInt(10_000))) {
		t.Fatal("insufficient reserve should be a resource error")
	}
}

func TestWithdrawGasByNonAdminLeavesReserveUnchanged(t *testing.T) {
	e, _, settlement := newEngine(t)
	if err := e.FundReserve(alice, big.NewInt(500)); err != nil {
		t.Fatalf("FundReserve: %v", err)
	}

	err := e.WithdrawGas(stranger, big.NewInt(100))
	if !errors.Is(err, access.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	if got := e.ReserveBalance(); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("reserve = %s, want 500", got)
	}
	if settlement.Balance(stranger).Sign() != 0 {
		t.Fatal("failed withdrawal paid out")
	}
}

func TestFundReserveAllowedWhilePaused(t *testing.T) {
	e, sink, _ := newEngine(t)
	if err := e.Pause(admin); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	if err := e.FundReserve(alice, big.NewInt(50)); err != nil {
		t.Fatalf("FundReserve while paused: %v", err)
	}
	if got := e.ReserveBalance(); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("reserve = %s, want 50", got)
	}

	names := sink.Names()
	if names[len(names)-1] != "ReserveFunded" {
		t.Fatalf("expected trailing ReserveFunded event, got %v", names)
	}
}

func TestPauseResumeIdempotent(t *testing.T) {
	e, sink, _ := newEngine(t)

	if err := e.Pause(admin); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := e.Pause(admin); err != nil {
		t.Fatalf("second Pause: %v", err)
	}
	if err := e.Resume(admin); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := e.Resume(admin); err != nil {
		t.Fatalf("second Resume: %v", err)
	}
	if e.IsPaused() {
		t.Fatal("engine still paused")
	}

	// the repeated calls must not emit duplicate events
	var paused, resumed int
	for _, name := range sink.Names() {
		switch name {
		case "Paused":
			paused++
		case "Resumed":
			resumed++
		}
	}
	if paused != 1 || resumed != 1 {
		t.Fatalf("paused events = %d, resumed events = %d, want 1 and 1", paused, resumed)
	}

	if err := e.Pause(stranger); !errors.Is(err, access.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
}

func TestTransferAndApprovalsGatedByPause(t *testing.T) {
	e, _, _ := newEngine(t)
	token, err := e.BuyCompute(alice, "gpt-x", big.NewInt(100))
	if err != nil {
		t.Fatalf("BuyCompute: %v", err)
	}
	if err := e.Pause(admin); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	if err := e.Transfer(alice, alice, bob, token.ID, nil); !errors.Is(err, access.ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
	if err := e.Approve(alice, bob, token.ID); !errors.Is(err, access.ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
	if err := e.SetApprovalForAll(alice, bob, true); !errors.Is(err, access.ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}

	if err := e.Resume(admin); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := e.Transfer(alice, alice, bob, token.ID, nil); err != nil {
		t.Fatalf("Transfer after resume: %v", err)
	}
	if owner, _ := e.OwnerOf(token.ID); owner != bob {
		t.Fatalf("owner = %s, want %s", owner.Hex(), bob.Hex())
	}
}

func TestSetPriceOracleOnly(t *testing.T) {
	e, sink, _ := newEngine(t)

	if err := e.SetPrice(stranger, big.NewInt(20)); !errors.Is(err, access.ErrNotOracle) {
		t.Fatalf("expected ErrNotOracle, got %v", err)
	}
	if err := e.SetPrice(oracle, big.NewInt(20)); err != nil {
		t.Fatalf("SetPrice: %v", err)
	}

	price, ok := e.Price()
	if !ok || price.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("price = %s ok=%v, want 20", price, ok)
	}

	events := sink.Events()
	change, okCast := events[len(events)-1].(model.PriceChangedEvent)
	if !okCast || change.Old.Cmp(big.NewInt(10)) != 0 || change.New.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("unexpected price change event: %+v", events[len(events)-1])
	}
}

func TestRoleRotationAllowedWhilePaused(t *testing.T) {
	e, _, _ := newEngine(t)
	if err := e.Pause(admin); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	if err := e.SetOracle(admin, bob); err != nil {
		t.Fatalf("SetOracle while paused: %v", err)
	}
	if e.Oracle() != bob {
		t.Fatalf("oracle = %s, want %s", e.Oracle().Hex(), bob.Hex())
	}

	if err := e.SetAdmin(admin, alice); err != nil {
		t.Fatalf("SetAdmin while paused: %v", err)
	}
	if e.Admin() != alice {
		t.Fatalf("admin = %s, want %s", e.Admin().Hex(), alice.Hex())
	}
	// the old admin lost the role
	if err := e.Resume(admin); !errors.Is(err, access.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin for old admin, got %v", err)
	}
	if err := e.Resume(alice); err != nil {
		t.Fatalf("Resume by new admin: %v", err)
	}
}

func TestMintFromSource(t *testing.T) {
	src := metrics.StaticSource{"gpt-x": goodMetrics()}
	e, _, _ := newEngine(t, WithMetricsSource(src))

	token, result, err := e.MintFromSource(context.Background(), oracle, alice, "gpt-x", big.NewInt(100))
	if err != nil {
		t.Fatalf("MintFromSource: %v", err)
	}
	if result.Composite != 87 || token.Metadata.Quality != 87 {
		t.Fatalf("composite = %d quality = %d, want 87", result.Composite, token.Metadata.Quality)
	}

	if _, _, err := e.MintFromSource(context.Background(), oracle, alice, "unlisted", big.NewInt(100)); err == nil {
		t.Fatal("expected error for unknown model")
	}
}

func TestMintFromSourceWithoutSource(t *testing.T) {
	e, _, _ := newEngine(t)
	_, _, err := e.MintFromSource(context.Background(), oracle, alice, "gpt-x", big.NewInt(100))
	if !errors.Is(err, ErrNoMetricsSource) {
		t.Fatalf("expected ErrNoMetricsSource, got %v", err)
	}
}

func TestEngineRestartKeepsState(t *testing.T) {
	store := storage.NewMemoryStore()

	sink := &CollectSink{}
	cfg := config.Config{
		Admin:        admin,
		Oracle:       oracle,
		PricePerUnit: big.NewInt(10),
		Weights:      testWeights(),
	}
	e, err := New(cfg, WithStore(store), WithSink(sink))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.SetOracle(admin, bob); err != nil {
		t.Fatalf("SetOracle: %v", err)
	}
	token, err := e.BuyCompute(alice, "gpt-x", big.NewInt(100))
	if err != nil {
		t.Fatalf("BuyCompute: %v", err)
	}

	// a second engine over the same store sees the rotated oracle, the
	// reserve, and the token set; config roles do not clobber them
	restarted, err := New(cfg, WithStore(store), WithSink(sink))
	if err != nil {
		t.Fatalf("restart New: %v", err)
	}
	if restarted.Oracle() != bob {
		t.Fatalf("oracle after restart = %s, want %s", restarted.Oracle().Hex(), bob.Hex())
	}
	if restarted.ReserveBalance().Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("reserve after restart = %s, want 100", restarted.ReserveBalance())
	}
	if owner, err := restarted.OwnerOf(token.ID); err != nil || owner != alice {
		t.Fatalf("token after restart: owner=%s err=%v", owner.Hex(), err)
	}
}
