package wallet

import (
	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/migration"
	"github.com/crawltoll/vault/orm"
)

func init() {
	migration.MustRegister(1, &Wallet{}, migration.NoModification)
	migration.MustRegister(1, &Transaction{}, migration.NoModification)
}

var _ orm.CloneableData = (*Wallet)(nil)

// Validate enforces the wallet configuration invariants.
func (w *Wallet) Validate() error {
	if err := w.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if w.Threshold < 1 {
		return errors.Wrap(errors.ErrInput, "threshold must be at least one")
	}
	if err := w.Timelock.Validate(); err != nil {
		return errors.Wrap(err, "timelock")
	}
	if len(w.Owners) == 0 {
		return errors.Wrap(errors.ErrEmpty, "no owners")
	}
	seen := make(map[string]struct{}, len(w.Owners))
	for i, o := range w.Owners {
		if err := o.Validate(); err != nil {
			return errors.Wrapf(err, "owner #%d", i)
		}
		if _, ok := seen[string(o.Address)]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "owner #%d", i)
		}
		seen[string(o.Address)] = struct{}{}
	}
	if w.ActiveOwnerCount() < w.Threshold {
		return errors.Wrap(ErrThresholdViolation, "fewer active owners than threshold")
	}
	return nil
}

// Copy returns a deep copy of this wallet.
func (w *Wallet) Copy() orm.CloneableData {
	owners := make([]*Owner, len(w.Owners))
	for i, o := range w.Owners {
		cpy := *o
		cpy.Address = o.Address.Clone()
		owners[i] = &cpy
	}
	return &Wallet{
		Metadata:  w.Metadata.Copy(),
		Owners:    owners,
		Threshold: w.Threshold,
		Timelock:  w.Timelock,
	}
}

// OwnerInfo returns the owner entry for given address, regardless of its
// active state. Nil is returned if the address was never an owner.
func (w *Wallet) OwnerInfo(addr vault.Address) *Owner {
	for _, o := range w.Owners {
		if o.Address.Equals(addr) {
			return o
		}
	}
	return nil
}

// IsActiveOwner returns true if given address is a current member of the
// signer set.
func (w *Wallet) IsActiveOwner(addr vault.Address) bool {
	o := w.OwnerInfo(addr)
	return o != nil && o.Active
}

// ActiveOwnerCount returns the number of owners that can confirm
// transactions.
func (w *Wallet) ActiveOwnerCount() uint32 {
	var n uint32
	for _, o := range w.Owners {
		if o.Active {
			n++
		}
	}
	return n
}

// Validate enforces the owner entry invariants.
func (o *Owner) Validate() error {
	if err := o.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	if err := o.AddedAt.Validate(); err != nil {
		return errors.Wrap(err, "added at")
	}
	if err := o.LastActivityAt.Validate(); err != nil {
		return errors.Wrap(err, "last activity at")
	}
	if len(o.Role) > maxLabelSize {
		return errors.Wrap(errors.ErrInput, "role too long")
	}
	if len(o.DeviceClass) > maxLabelSize {
		return errors.Wrap(errors.ErrInput, "device class too long")
	}
	return nil
}

var _ orm.CloneableData = (*Transaction)(nil)

// Validate enforces the ledger entry invariants.
func (t *Transaction) Validate() error {
	if err := t.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := t.Wallet.Validate(); err != nil {
		return errors.Wrap(err, "wallet")
	}
	if err := t.Destination.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	if t.Amount != nil {
		if err := t.Amount.Validate(); err != nil {
			return errors.Wrap(err, "amount")
		}
	}
	if len(t.Description) > maxDescriptionSize {
		return errors.Wrap(errors.ErrInput, "description too long")
	}
	if err := t.SubmittedAt.Validate(); err != nil {
		return errors.Wrap(err, "submitted at")
	}
	if err := t.ThresholdReachedAt.Validate(); err != nil {
		return errors.Wrap(err, "threshold reached at")
	}
	seen := make(map[string]struct{}, len(t.Confirmations))
	for i, c := range t.Confirmations {
		if err := c.Validate(); err != nil {
			return errors.Wrapf(err, "confirmation #%d", i)
		}
		if _, ok := seen[string(c)]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "confirmation #%d", i)
		}
		seen[string(c)] = struct{}{}
	}
	return nil
}

// Copy returns a deep copy of this transaction.
func (t *Transaction) Copy() orm.CloneableData {
	confirmations := make([]vault.Address, len(t.Confirmations))
	for i, c := range t.Confirmations {
		confirmations[i] = c.Clone()
	}
	cpy := &Transaction{
		Metadata:           t.Metadata.Copy(),
		Wallet:             t.Wallet.Clone(),
		Destination:        t.Destination.Clone(),
		Payload:            append([]byte(nil), t.Payload...),
		Description:        t.Description,
		Emergency:          t.Emergency,
		SubmittedAt:        t.SubmittedAt,
		ThresholdReachedAt: t.ThresholdReachedAt,
		Confirmations:      confirmations,
		Executed:           t.Executed,
	}
	if t.Amount != nil {
		cpy.Amount = t.Amount.Clone()
	}
	return cpy
}

// IsConfirmedBy returns true if given address already confirmed this
// transaction.
func (t *Transaction) IsConfirmedBy(addr vault.Address) bool {
	for _, c := range t.Confirmations {
		if c.Equals(addr) {
			return true
		}
	}
	return false
}

// IsSelfTargeted returns true if this transaction addresses the owning
// wallet and carries a governance payload.
func (t *Transaction) IsSelfTargeted() bool {
	return t.Destination.Equals(t.Wallet)
}

// NewWalletBucket returns a bucket for keeping wallet configurations. Wallets
// are stored under their deterministic address.
func NewWalletBucket() orm.ModelBucket {
	b := orm.NewModelBucket("wallet", &Wallet{})
	return migration.NewModelBucket("wallet", b)
}

// NewTransactionBucket returns a bucket for keeping the transaction ledger.
// Entries are given sequence assigned IDs and indexed by the owning wallet
// address.
func NewTransactionBucket() orm.ModelBucket {
	b := orm.NewModelBucket("wltx", &Transaction{},
		orm.WithIDSequence(transactionSeq),
		orm.WithIndex("wallet", indexWallet, false),
	)
	return migration.NewModelBucket("wallet", b)
}

// transactionSeq is a single sequence instance shared by all transaction
// bucket instances.
var transactionSeq = orm.NewSequence("wltx", "id")

func indexWallet(obj orm.Object) ([]byte, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot index nil object")
	}
	tx, ok := obj.Value().(*Transaction)
	if !ok {
		return nil, errors.Wrap(errors.ErrState, "can only index transactions")
	}
	return tx.Wallet, nil
}

// RegisterQuery registers the wallet and transaction buckets for queries.
func RegisterQuery(qr vault.QueryRouter) {
	NewWalletBucket().Register("wallets", qr)
	NewTransactionBucket().Register("wallettxs", qr)
}
