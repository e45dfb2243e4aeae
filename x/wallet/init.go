package wallet

import (
	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
)

// Initializer fulfils the Initializer interface to load data from the genesis
// file.
type Initializer struct{}

var _ vault.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial wallet info from genesis and save it in the
// database.
func (*Initializer) FromGenesis(opts vault.Options, kv vault.KVStore) error {
	var wallets []struct {
		Address vault.Address `json:"address"`
		Owners  []struct {
			Address            vault.Address `json:"address"`
			Role               string        `json:"role"`
			DeviceClass        string        `json:"device_class"`
			EmergencyResponder bool          `json:"emergency_responder"`
		} `json:"owners"`
		Threshold uint32             `json:"threshold"`
		Timelock  vault.UnixDuration `json:"timelock"`
	}
	if err := opts.ReadOptions("wallet", &wallets); err != nil {
		return err
	}

	bucket := NewWalletBucket()
	for i, w := range wallets {
		owners := make([]*Owner, 0, len(w.Owners))
		for _, o := range w.Owners {
			owners = append(owners, &Owner{
				Address:            o.Address,
				Active:             true,
				Role:               o.Role,
				DeviceClass:        o.DeviceClass,
				EmergencyResponder: o.EmergencyResponder,
			})
		}
		wallet := Wallet{
			Metadata:  &vault.Metadata{Schema: 1},
			Owners:    owners,
			Threshold: w.Threshold,
			Timelock:  w.Timelock,
		}
		if _, err := bucket.Put(kv, w.Address, &wallet); err != nil {
			return errors.Wrapf(err, "cannot save #%d wallet", i)
		}
	}
	return nil
}
