package factory

import (
	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/migration"
	"github.com/crawltoll/vault/orm"
	"github.com/crawltoll/vault/x"
	"github.com/crawltoll/vault/x/wallet"
	"github.com/tendermint/tendermint/libs/common"
)

const deployCost int64 = 500

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r vault.Registry, auth x.Authenticator) {
	r = migration.NewSchemaMigratingRegistry("factory", r)
	r.Handle(&DeployWalletMsg{}, DeployWalletHandler{
		auth:    auth,
		records: NewDeploymentBucket(),
		wallets: wallet.NewWalletBucket(),
	})
}

// DeployWalletHandler creates a wallet under an address derived from the
// configuration and the salt. Deploying the same configuration with the same
// salt twice is rejected, a different salt yields a fresh address.
type DeployWalletHandler struct {
	auth    x.Authenticator
	records orm.ModelBucket
	wallets orm.ModelBucket
}

var _ vault.Handler = DeployWalletHandler{}

// Check does the validation and sets the cost of the transaction.
func (h DeployWalletHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: deployCost}, nil
}

// Deliver creates the wallet and the deployment record under the predicted
// address.
func (h DeployWalletHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, configHash, addr, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	blockNow, err := vault.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	now := vault.AsUnixTime(blockNow)

	owners := make([]*wallet.Owner, len(msg.Owners))
	for i, o := range msg.Owners {
		cpy := *o
		cpy.Active = true
		cpy.AddedAt = now
		cpy.LastActivityAt = 0
		owners[i] = &cpy
	}
	w := &wallet.Wallet{
		Metadata:  &vault.Metadata{Schema: 1},
		Owners:    owners,
		Threshold: msg.Threshold,
		Timelock:  msg.Timelock,
	}
	if _, err := h.wallets.Put(db, addr, w); err != nil {
		return nil, errors.Wrap(err, "cannot store wallet")
	}

	rec := &DeploymentRecord{
		Metadata:   &vault.Metadata{Schema: 1},
		Salt:       msg.Salt,
		ConfigHash: configHash,
		Address:    addr,
		CreatedAt:  now,
	}
	if _, err := h.records.Put(db, nil, rec); err != nil {
		return nil, errors.Wrap(err, "cannot store deployment record")
	}

	res := &vault.DeliverResult{Data: addr}
	res.Tags = append(res.Tags, []common.KVPair{
		{Key: []byte("wallet-id"), Value: addr},
		{Key: []byte("action"), Value: []byte("deploy")},
	}...)
	return res, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h DeployWalletHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*DeployWalletMsg, []byte, vault.Address, error) {
	var msg DeployWalletMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	configHash, err := ConfigHash(msg.Owners, msg.Threshold, msg.Timelock)
	if err != nil {
		return nil, nil, nil, err
	}
	addr := PredictAddress(configHash, msg.Salt)
	var recs []*DeploymentRecord
	if _, err := h.records.ByIndex(db, "address", addr, &recs); err != nil {
		return nil, nil, nil, errors.Wrap(err, "deployment record")
	}
	if len(recs) != 0 {
		return nil, nil, nil, errors.Wrapf(ErrAlreadyDeployed, "address %s", addr)
	}
	return &msg, configHash, addr, nil
}
