package wallet

import (
	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/orm"
)

// Controller provides read access to the wallet state for other extensions.
type Controller struct {
	wallets orm.ModelBucket
	txs     orm.ModelBucket
}

// NewController returns a controller instance operating on the wallet
// buckets.
func NewController() Controller {
	return Controller{
		wallets: NewWalletBucket(),
		txs:     NewTransactionBucket(),
	}
}

// GetWallet loads the wallet stored under given address.
func (c Controller) GetWallet(db vault.ReadOnlyKVStore, addr vault.Address) (*Wallet, error) {
	var w Wallet
	if err := c.wallets.One(db, addr, &w); err != nil {
		return nil, errors.Wrap(err, "wallet")
	}
	return &w, nil
}

// GetTransaction loads the ledger entry with given ID.
func (c Controller) GetTransaction(db vault.ReadOnlyKVStore, txID []byte) (*Transaction, error) {
	var t Transaction
	if err := c.txs.One(db, txID, &t); err != nil {
		return nil, errors.Wrap(err, "transaction")
	}
	return &t, nil
}

// IsOwner returns true if given address is an active owner of the wallet.
func (c Controller) IsOwner(db vault.ReadOnlyKVStore, wallet, addr vault.Address) (bool, error) {
	w, err := c.GetWallet(db, wallet)
	if err != nil {
		return false, err
	}
	return w.IsActiveOwner(addr), nil
}

// Threshold returns the confirmation threshold of the wallet.
func (c Controller) Threshold(db vault.ReadOnlyKVStore, wallet vault.Address) (uint32, error) {
	w, err := c.GetWallet(db, wallet)
	if err != nil {
		return 0, err
	}
	return w.Threshold, nil
}

// GetOwnerInfo returns the owner entry for given address, including inactive
// entries kept for audit purposes. ErrNotFound is returned if the address
// was never an owner.
func (c Controller) GetOwnerInfo(db vault.ReadOnlyKVStore, wallet, addr vault.Address) (*Owner, error) {
	w, err := c.GetWallet(db, wallet)
	if err != nil {
		return nil, err
	}
	o := w.OwnerInfo(addr)
	if o == nil {
		return nil, errors.Wrap(errors.ErrNotFound, "owner")
	}
	return o, nil
}

// IsConfirmedBy returns true if given address confirmed the transaction.
func (c Controller) IsConfirmedBy(db vault.ReadOnlyKVStore, txID []byte, addr vault.Address) (bool, error) {
	t, err := c.GetTransaction(db, txID)
	if err != nil {
		return false, err
	}
	return t.IsConfirmedBy(addr), nil
}

// WalletTransactions returns all ledger entries of given wallet.
func (c Controller) WalletTransactions(db vault.ReadOnlyKVStore, wallet vault.Address) ([]*Transaction, error) {
	var entries []*Transaction
	if _, err := c.txs.ByIndex(db, "wallet", wallet, &entries); err != nil {
		return nil, errors.Wrap(err, "by wallet index")
	}
	return entries, nil
}
