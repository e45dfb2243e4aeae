package wallet

import (
	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/migration"
)

func init() {
	migration.MustRegister(1, &SubmitTransactionMsg{}, migration.NoModification)
	migration.MustRegister(1, &ConfirmTransactionMsg{}, migration.NoModification)
	migration.MustRegister(1, &RevokeConfirmationMsg{}, migration.NoModification)
	migration.MustRegister(1, &ExecuteTransactionMsg{}, migration.NoModification)
	migration.MustRegister(1, &AddOwnerMsg{}, migration.NoModification)
	migration.MustRegister(1, &RemoveOwnerMsg{}, migration.NoModification)
}

const (
	// maxDescriptionSize is the maximum length of a transaction
	// description.
	maxDescriptionSize = 256

	// maxLabelSize is the maximum length of an owner role or device class
	// label.
	maxLabelSize = 64
)

var _ vault.Msg = (*SubmitTransactionMsg)(nil)

// Path implements vault.Msg interface.
func (SubmitTransactionMsg) Path() string {
	return "wallet/submit_transaction"
}

// Validate implements vault.Msg interface.
func (m *SubmitTransactionMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Wallet.Validate(); err != nil {
		return errors.Wrap(err, "wallet")
	}
	if err := m.Destination.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	if m.Amount == nil && len(m.Payload) == 0 {
		return errors.Wrap(errors.ErrEmpty, "transaction carries no value and no payload")
	}
	if m.Amount != nil {
		if err := m.Amount.Validate(); err != nil {
			return errors.Wrap(err, "amount")
		}
		if !m.Amount.IsNonNegative() {
			return errors.Wrap(errors.ErrAmount, "negative amount")
		}
	}
	if len(m.Description) > maxDescriptionSize {
		return errors.Wrap(errors.ErrInput, "description too long")
	}
	return nil
}

var _ vault.Msg = (*ConfirmTransactionMsg)(nil)

// Path implements vault.Msg interface.
func (ConfirmTransactionMsg) Path() string {
	return "wallet/confirm_transaction"
}

// Validate implements vault.Msg interface.
func (m *ConfirmTransactionMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return validateTransactionID(m.TransactionID)
}

var _ vault.Msg = (*RevokeConfirmationMsg)(nil)

// Path implements vault.Msg interface.
func (RevokeConfirmationMsg) Path() string {
	return "wallet/revoke_confirmation"
}

// Validate implements vault.Msg interface.
func (m *RevokeConfirmationMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return validateTransactionID(m.TransactionID)
}

var _ vault.Msg = (*ExecuteTransactionMsg)(nil)

// Path implements vault.Msg interface.
func (ExecuteTransactionMsg) Path() string {
	return "wallet/execute_transaction"
}

// Validate implements vault.Msg interface.
func (m *ExecuteTransactionMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return validateTransactionID(m.TransactionID)
}

var _ vault.Msg = (*AddOwnerMsg)(nil)

// Path implements vault.Msg interface.
func (AddOwnerMsg) Path() string {
	return "wallet/add_owner"
}

// Validate implements vault.Msg interface.
func (m *AddOwnerMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Wallet.Validate(); err != nil {
		return errors.Wrap(err, "wallet")
	}
	if err := m.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	if len(m.Role) > maxLabelSize {
		return errors.Wrap(errors.ErrInput, "role too long")
	}
	if len(m.DeviceClass) > maxLabelSize {
		return errors.Wrap(errors.ErrInput, "device class too long")
	}
	return nil
}

var _ vault.Msg = (*RemoveOwnerMsg)(nil)

// Path implements vault.Msg interface.
func (RemoveOwnerMsg) Path() string {
	return "wallet/remove_owner"
}

// Validate implements vault.Msg interface.
func (m *RemoveOwnerMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Wallet.Validate(); err != nil {
		return errors.Wrap(err, "wallet")
	}
	if err := m.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	return nil
}

// transaction IDs are raw sequence counter values.
func validateTransactionID(id []byte) error {
	if len(id) != 8 {
		return errors.Wrap(errors.ErrInput, "invalid transaction ID")
	}
	return nil
}

// Validate returns an error unless exactly one payload field is set and that
// field content is valid.
func (m *GovernancePayload) Validate() error {
	switch {
	case m.AddOwner != nil && m.RemoveOwner != nil:
		return errors.Wrap(errors.ErrInput, "more than one payload set")
	case m.AddOwner != nil:
		return m.AddOwner.Validate()
	case m.RemoveOwner != nil:
		return m.RemoveOwner.Validate()
	default:
		return errors.Wrap(errors.ErrEmpty, "no payload set")
	}
}
