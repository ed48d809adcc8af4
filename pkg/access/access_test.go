package access

import (
	"errors"
	"testing"

	"github.com/chatten/compute-engine/pkg/storage"
	"github.com/ethereum/go-ethereum/common"
)

var (
	admin    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	oracle   = common.HexToAddress("0x2000000000000000000000000000000000000002")
	stranger = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

func newController(t *testing.T) *Controller {
	t.Helper()
	c := New(storage.NewMemoryStore())
	c.Bootstrap(admin, oracle)
	return c
}

func TestBootstrapIsIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	c := New(store)
	c.Bootstrap(admin, oracle)

	// a second bootstrap must not clobber rotated roles
	if _, err := c.SetOracle(admin, stranger); err != nil {
		t.Fatalf("SetOracle: %v", err)
	}
	c.Bootstrap(admin, oracle)
	if got := c.Oracle(); got != stranger {
		t.Fatalf("bootstrap overwrote rotated oracle: %s", got.Hex())
	}
}

func TestRequireAdmin(t *testing.T) {
	c := newController(t)
	if err := c.RequireAdmin(admin); err != nil {
		t.Fatalf("RequireAdmin(admin): %v", err)
	}
	err := c.RequireAdmin(oracle)
	if !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
}

func TestRequireOracle(t *testing.T) {
	c := newController(t)
	if err := c.RequireOracle(oracle); err != nil {
		t.Fatalf("RequireOracle(oracle): %v", err)
	}
	if err := c.RequireOracle(admin); !errors.Is(err, ErrNotOracle) {
		t.Fatalf("expected ErrNotOracle, got %v", err)
	}
}

func TestPauseResumeLifecycle(t *testing.T) {
	c := newController(t)

	if c.IsPaused() {
		t.Fatal("fresh controller must not be paused")
	}
	if err := c.RequireNotPaused(); err != nil {
		t.Fatalf("RequireNotPaused: %v", err)
	}

	changed, err := c.Pause(admin)
	if err != nil || !changed {
		t.Fatalf("Pause: changed=%v err=%v", changed, err)
	}
	if !c.IsPaused() {
		t.Fatal("expected paused state")
	}
	if err := c.RequireNotPaused(); !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}

	// pausing again is a no-op, not an error
	changed, err = c.Pause(admin)
	if err != nil || changed {
		t.Fatalf("second Pause: changed=%v err=%v", changed, err)
	}

	changed, err = c.Resume(admin)
	if err != nil || !changed {
		t.Fatalf("Resume: changed=%v err=%v", changed, err)
	}
	changed, err = c.Resume(admin)
	if err != nil || changed {
		t.Fatalf("second Resume: changed=%v err=%v", changed, err)
	}
}

func TestPauseRequiresAdmin(t *testing.T) {
	c := newController(t)
	if _, err := c.Pause(stranger); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	if _, err := c.Resume(stranger); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
}

func TestSetOracle(t *testing.T) {
	c := newController(t)

	old, err := c.SetOracle(admin, stranger)
	if err != nil {
		t.Fatalf("SetOracle: %v", err)
	}
	if old != oracle {
		t.Fatalf("old oracle = %s, want %s", old.Hex(), oracle.Hex())
	}
	if err := c.RequireOracle(stranger); err != nil {
		t.Fatalf("rotated oracle rejected: %v", err)
	}
	if err := c.RequireOracle(oracle); !errors.Is(err, ErrNotOracle) {
		t.Fatalf("previous oracle still accepted: %v", err)
	}

	if _, err := c.SetOracle(oracle, oracle); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin for non-admin rotation, got %v", err)
	}
}

func TestSetAdminOnlyBySelf(t *testing.T) {
	c := newController(t)

	if _, err := c.SetAdmin(stranger, stranger); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}

	old, err := c.SetAdmin(admin, stranger)
	if err != nil {
		t.Fatalf("SetAdmin: %v", err)
	}
	if old != admin {
		t.Fatalf("old admin = %s, want %s", old.Hex(), admin.Hex())
	}
	if err := c.RequireAdmin(stranger); err != nil {
		t.Fatalf("new admin rejected: %v", err)
	}
	if err := c.RequireAdmin(admin); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("previous admin still accepted: %v", err)
	}
}
