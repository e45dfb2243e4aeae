package wallet

import (
	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
)

// activeConfirmations returns the number of confirmations that count toward
// the threshold. Confirmations of owners that were deactivated since signing
// are not counted.
func activeConfirmations(w *Wallet, t *Transaction) uint32 {
	var n uint32
	for _, c := range t.Confirmations {
		if w.IsActiveOwner(c) {
			n++
		}
	}
	return n
}

// executableAt returns the earliest point in time the transaction may
// execute. Emergency transactions skip the mandatory delay. The returned
// value is meaningless unless the threshold was reached.
func executableAt(w *Wallet, t *Transaction) vault.UnixTime {
	if t.Emergency {
		return t.ThresholdReachedAt
	}
	return t.ThresholdReachedAt.Add(w.Timelock.Duration())
}

// canExecute returns nil if the transaction is ready to run with the current
// block time.
func canExecute(ctx vault.Context, w *Wallet, t *Transaction) error {
	if t.Executed {
		return errors.Wrap(ErrAlreadyExecuted, "transaction already executed")
	}
	if activeConfirmations(w, t) < w.Threshold {
		return errors.Wrapf(ErrInsufficientConfirmations, "%d of %d", activeConfirmations(w, t), w.Threshold)
	}
	if t.ThresholdReachedAt.IsZero() {
		// Possible when confirmations of deactivated owners were
		// replaced by new ones without passing through the threshold.
		return errors.Wrap(ErrInsufficientConfirmations, "threshold time not recorded")
	}
	now, err := vault.BlockTime(ctx)
	if err != nil {
		return errors.Wrap(err, "block time")
	}
	if at := executableAt(w, t); vault.AsUnixTime(now) < at {
		return errors.Wrapf(ErrTimeLockNotElapsed, "executable at %s", at)
	}
	return nil
}
