package factory

import (
	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/migration"
)

func init() {
	migration.MustRegister(1, &DeployWalletMsg{}, migration.NoModification)
}

const (
	// maxSaltSize bounds the deployment salt length.
	maxSaltSize = 32
)

var _ vault.Msg = (*DeployWalletMsg)(nil)

// Path implements vault.Msg interface.
func (DeployWalletMsg) Path() string {
	return "factory/deploy_wallet"
}

// Validate implements vault.Msg interface.
func (m *DeployWalletMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if len(m.Salt) == 0 {
		return errors.Wrap(errors.ErrEmpty, "salt is required")
	}
	if len(m.Salt) > maxSaltSize {
		return errors.Wrap(errors.ErrInput, "salt too long")
	}
	if len(m.Owners) == 0 {
		return errors.Wrap(errors.ErrEmpty, "no owners")
	}
	seen := make(map[string]struct{}, len(m.Owners))
	for i, o := range m.Owners {
		if err := o.Validate(); err != nil {
			return errors.Wrapf(err, "owner #%d", i)
		}
		if _, ok := seen[string(o.Address)]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "owner #%d", i)
		}
		seen[string(o.Address)] = struct{}{}
	}
	if m.Threshold < 1 {
		return errors.Wrap(errors.ErrInput, "threshold must be at least one")
	}
	if m.Threshold > uint32(len(m.Owners)) {
		return errors.Wrap(errors.ErrInput, "threshold above owner count")
	}
	if err := m.Timelock.Validate(); err != nil {
		return errors.Wrap(err, "timelock")
	}
	return nil
}
