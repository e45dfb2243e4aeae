package factory

import (
	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/migration"
	"github.com/crawltoll/vault/orm"
)

func init() {
	migration.MustRegister(1, &DeploymentRecord{}, migration.NoModification)
}

var _ orm.CloneableData = (*DeploymentRecord)(nil)

// Validate enforces the deployment record invariants.
func (r *DeploymentRecord) Validate() error {
	if err := r.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if len(r.Salt) == 0 {
		return errors.Wrap(errors.ErrEmpty, "salt is required")
	}
	if len(r.ConfigHash) != 32 {
		return errors.Wrap(errors.ErrInput, "invalid config hash")
	}
	if err := r.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	if err := r.CreatedAt.Validate(); err != nil {
		return errors.Wrap(err, "created at")
	}
	return nil
}

// Copy returns a deep copy of this record.
func (r *DeploymentRecord) Copy() orm.CloneableData {
	return &DeploymentRecord{
		Metadata:   r.Metadata.Copy(),
		Salt:       append([]byte(nil), r.Salt...),
		ConfigHash: append([]byte(nil), r.ConfigHash...),
		Address:    r.Address.Clone(),
		CreatedAt:  r.CreatedAt,
	}
}

// deploySeq assigns every deployment record a monotonic ID, so iterating
// records in key order walks them in submission order.
var deploySeq = orm.NewSequence("deploy", "id")

// NewDeploymentBucket returns a bucket for keeping deployment records.
// Records are keyed by a monotonic sequence and indexed by the deployed
// address (unique) and by the configuration hash.
func NewDeploymentBucket() orm.ModelBucket {
	b := orm.NewModelBucket("deploy", &DeploymentRecord{},
		orm.WithIDSequence(deploySeq),
		orm.WithIndex("address", indexAddress, true),
		orm.WithIndex("confighash", indexConfigHash, false),
	)
	return migration.NewModelBucket("factory", b)
}

func indexAddress(obj orm.Object) ([]byte, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot index nil object")
	}
	rec, ok := obj.Value().(*DeploymentRecord)
	if !ok {
		return nil, errors.Wrap(errors.ErrState, "can only index deployment records")
	}
	return rec.Address, nil
}

func indexConfigHash(obj orm.Object) ([]byte, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot index nil object")
	}
	rec, ok := obj.Value().(*DeploymentRecord)
	if !ok {
		return nil, errors.Wrap(errors.ErrState, "can only index deployment records")
	}
	return rec.ConfigHash, nil
}

// RegisterQuery registers the deployment bucket for queries.
func RegisterQuery(qr vault.QueryRouter) {
	NewDeploymentBucket().Register("deployments", qr)
}
