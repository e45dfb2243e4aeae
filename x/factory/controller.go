package factory

import (
	"bytes"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/orm"
	"github.com/crawltoll/vault/x/wallet"
)

// Controller provides the read access to the deployment records for other
// packages.
type Controller struct {
	records orm.ModelBucket
}

// NewController returns a controller instance.
func NewController() Controller {
	return Controller{records: NewDeploymentBucket()}
}

// GetRecord returns the deployment record of the wallet deployed under given
// address.
func (c Controller) GetRecord(db vault.ReadOnlyKVStore, addr vault.Address) (*DeploymentRecord, error) {
	var recs []*DeploymentRecord
	if _, err := c.records.ByIndex(db, "address", addr, &recs); err != nil {
		return nil, errors.Wrap(err, "deployment record")
	}
	if len(recs) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "no deployment under %s", addr)
	}
	return recs[0], nil
}

// IsDeployed returns true if a wallet was deployed under given address by
// this factory.
func (c Controller) IsDeployed(db vault.ReadOnlyKVStore, addr vault.Address) (bool, error) {
	var recs []*DeploymentRecord
	if _, err := c.records.ByIndex(db, "address", addr, &recs); err != nil {
		return false, errors.Wrap(err, "deployment record")
	}
	return len(recs) > 0, nil
}

// Verify returns nil if the wallet under given address was deployed with
// exactly the given configuration.
func (c Controller) Verify(db vault.ReadOnlyKVStore, addr vault.Address, owners []*wallet.Owner, threshold uint32, timelock vault.UnixDuration) error {
	rec, err := c.GetRecord(db, addr)
	if err != nil {
		return err
	}
	hash, err := ConfigHash(owners, threshold, timelock)
	if err != nil {
		return err
	}
	if !bytes.Equal(rec.ConfigHash, hash) {
		return errors.Wrap(errors.ErrState, "configuration does not match the deployment")
	}
	return nil
}

// Deployments returns all records of wallets deployed with the configuration
// committed to by given hash.
func (c Controller) Deployments(db vault.ReadOnlyKVStore, configHash []byte) ([]*DeploymentRecord, error) {
	var recs []*DeploymentRecord
	if _, err := c.records.ByIndex(db, "confighash", configHash, &recs); err != nil {
		return nil, errors.Wrap(err, "deployment records")
	}
	return recs, nil
}

// ListDeployed returns all deployment records in submission order. Records
// are immutable and never removed, so every sequence value up to the latest
// one resolves to a record.
func (c Controller) ListDeployed(db vault.ReadOnlyKVStore) ([]*DeploymentRecord, error) {
	latest, _, err := deploySeq.Latest(db)
	if err != nil {
		return nil, errors.Wrap(err, "deployment sequence")
	}
	recs := make([]*DeploymentRecord, 0, latest)
	for i := int64(1); i <= latest; i++ {
		var rec DeploymentRecord
		if err := c.records.One(db, orm.EncodeSequence(i), &rec); err != nil {
			return nil, errors.Wrapf(err, "deployment record %d", i)
		}
		recs = append(recs, &rec)
	}
	return recs, nil
}
