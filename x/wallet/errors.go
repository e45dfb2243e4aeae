package wallet

import (
	"github.com/crawltoll/vault/errors"
)

var (
	// ErrAlreadyConfirmed is returned when an owner confirms a transaction
	// more than once.
	ErrAlreadyConfirmed = errors.Register(1200, "already confirmed")

	// ErrAlreadyExecuted is returned when an executed transaction is
	// confirmed, revoked or executed again.
	ErrAlreadyExecuted = errors.Register(1201, "already executed")

	// ErrNotConfirmed is returned when an owner revokes a confirmation that
	// was never given.
	ErrNotConfirmed = errors.Register(1202, "not confirmed")

	// ErrInsufficientConfirmations is returned when a transaction execution
	// is requested before the wallet threshold is satisfied.
	ErrInsufficientConfirmations = errors.Register(1203, "insufficient confirmations")

	// ErrTimeLockNotElapsed is returned when a transaction execution is
	// requested before the mandatory delay has passed.
	ErrTimeLockNotElapsed = errors.Register(1204, "time lock not elapsed")

	// ErrThresholdViolation is returned when an owner set change would
	// leave fewer active owners than the confirmation threshold.
	ErrThresholdViolation = errors.Register(1205, "threshold violation")

	// ErrDuplicateOwner is returned when adding an address that is already
	// an active owner.
	ErrDuplicateOwner = errors.Register(1206, "duplicate owner")

	// ErrOwnerNotFound is returned when referencing an address that is not
	// an active owner of the wallet.
	ErrOwnerNotFound = errors.Register(1207, "owner not found")

	// ErrEmergencyNotPermitted is returned when a non emergency responder
	// submits an emergency transaction.
	ErrEmergencyNotPermitted = errors.Register(1208, "emergency not permitted")

	// ErrReentrancy is returned when a wallet operation is attempted from
	// within a transaction execution.
	ErrReentrancy = errors.Register(1209, "reentrant call")
)
