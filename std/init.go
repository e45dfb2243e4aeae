package std

import (
	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/migration"
	"github.com/crawltoll/vault/x/wallet"
)

// Initialize prepares an empty database: it declares the schema version of
// every package and provisions the wallets listed in the genesis options.
func Initialize(db vault.KVStore, opts vault.Options) error {
	migration.MustInitPkg(db, "wallet", "factory")

	var ini wallet.Initializer
	if err := ini.FromGenesis(opts, db); err != nil {
		return errors.Wrap(err, "wallet genesis")
	}
	return nil
}
