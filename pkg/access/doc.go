// Package access owns the role assignments and the pause flag of the
// marketplace engine.
//
// Two independent axes are tracked in storage: role assignment (exactly one
// admin, rotatable only by itself; one oracle/minter, rotatable by the admin)
// and the pause flag (toggled by the admin). Every check takes the caller
// identity explicitly and fails with a named sentinel rather than silently
// doing nothing:
//
//   - RequireAdmin  -> ErrNotAdmin
//   - RequireOracle -> ErrNotOracle
//   - RequireNotPaused -> ErrPaused
//
// Pause and Resume are idempotent; both report whether the flag actually
// changed so callers can avoid emitting duplicate events.
package access
