package access

import (
	"errors"
	"fmt"

	"github.com/chatten/compute-engine/pkg/storage"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNotAdmin is returned when an admin-only operation is attempted by
	// another caller.
	ErrNotAdmin = errors.New("caller is not the admin")
	// ErrNotOracle is returned when an oracle-only operation is attempted by
	// another caller.
	ErrNotOracle = errors.New("caller is not the oracle")
	// ErrPaused is returned when a state-changing operation is attempted
	// while the engine is paused.
	ErrPaused = errors.New("contract is paused")
)

// Controller gates every mutating engine operation on roles and the pause
// flag. All state lives in the shared key-value store.
type Controller struct {
	store storage.Store
}

// New returns a Controller backed by the given store.
func New(store storage.Store) *Controller {
	return &Controller{store: store}
}

// Bootstrap writes the initial role assignments if none exist yet, mirroring
// contract deployment. It is a no-op on an already-initialized store, so
// restarting an engine over persisted state keeps rotated roles intact.
func (c *Controller) Bootstrap(admin, oracle common.Address) {
	if _, ok := c.store.Get(storage.KeyAdmin); !ok {
		c.store.Put(storage.KeyAdmin, admin.Bytes())
	}
	if _, ok := c.store.Get(storage.KeyOracle); !ok {
		c.store.Put(storage.KeyOracle, oracle.Bytes())
	}
}

// Admin returns the current admin address.
func (c *Controller) Admin() common.Address {
	v, _ := c.store.Get(storage.KeyAdmin)
	return common.BytesToAddress(v)
}

// Oracle returns the current oracle/minter address.
func (c *Controller) Oracle() common.Address {
	v, _ := c.store.Get(storage.KeyOracle)
	return common.BytesToAddress(v)
}

// RequireAdmin fails with ErrNotAdmin unless caller is the admin.
func (c *Controller) RequireAdmin(caller common.Address) error {
	if caller != c.Admin() {
		return fmt.Errorf("%w: %s", ErrNotAdmin, caller.Hex())
	}
	return nil
}

// RequireOracle fails with ErrNotOracle unless caller is the oracle.
func (c *Controller) RequireOracle(caller common.Address) error {
	if caller != c.Oracle() {
		return fmt.Errorf("%w: %s", ErrNotOracle, caller.Hex())
	}
	return nil
}

// RequireNotPaused fails with ErrPaused while the pause flag is set.
func (c *Controller) RequireNotPaused() error {
	if c.IsPaused() {
		return ErrPaused
	}
	return nil
}

// IsPaused reports the pause flag. Read-only, no authorization required.
func (c *Controller) IsPaused() bool {
	v, ok := c.store.Get(storage.KeyPaused)
	return ok && len(v) == 1 && v[0] == 0x01
}

// Pause sets the pause flag. Admin only. Returns false without error when
// the engine is already paused.
func (c *Controller) Pause(caller common.Address) (bool, error) {
	if err := c.RequireAdmin(caller); err != nil {
		return false, err
	}
	if c.IsPaused() {
		return false, nil
	}
	c.store.Put(storage.KeyPaused, []byte{0x01})
	return true, nil
}

// Resume clears the pause flag. Admin only. Returns false without error when
// the engine is not paused.
func (c *Controller) Resume(caller common.Address) (bool, error) {
	if err := c.RequireAdmin(caller); err != nil {
		return false, err
	}
	if !c.IsPaused() {
		return false, nil
	}
	c.store.Delete(storage.KeyPaused)
	return true, nil
}

// SetOracle rotates the oracle/minter role. Admin only. Returns the previous
// oracle address.
func (c *Controller) SetOracle(caller, oracle common.Address) (common.Address, error) {
	if err := c.RequireAdmin(caller); err != nil {
		return common.Address{}, err
	}
	old := c.Oracle()
	c.store.Put(storage.KeyOracle, oracle.Bytes())
	return old, nil
}

// SetAdmin rotates the admin. Only the current admin may hand the role over.
// Returns the previous admin address.
func (c *Controller) SetAdmin(caller, admin common.Address) (common.Address, error) {
	if err := c.RequireAdmin(caller); err != nil {
		return common.Address{}, err
	}
	old := c.Admin()
	c.store.Put(storage.KeyAdmin, admin.Bytes())
	return old, nil
}
