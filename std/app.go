/*
Package std wires the components of this repository into a ready to use
stack. It is a good place to see how the pieces fit together and a sane
default for embedding the authorization engine into a platform process.
*/
package std

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/app"
	"github.com/crawltoll/vault/store/iavl"
	"github.com/crawltoll/vault/x"
	"github.com/crawltoll/vault/x/factory"
	"github.com/crawltoll/vault/x/utils"
	"github.com/crawltoll/vault/x/wallet"
)

// Chain returns the decorator chain that wraps every operation: logging,
// panic recovery, action tagging and savepoints so a failed operation leaves
// no partial state behind.
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		utils.NewActionTagger(),
		// on Check, bad operations must not affect state
		utils.NewSavepoint().OnCheck(),
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns a router with all message handlers registered. The
// authenticator resolves the platform caller identity, the caller is the
// boundary for external transaction effects and may be nil.
func Router(auth x.Authenticator, caller wallet.Caller) *app.Router {
	r := app.NewRouter()
	authn := x.ChainAuth(auth, wallet.Authenticate{})
	wallet.RegisterRoutes(r, authn, caller, wallet.HandlerAsExecutor(r))
	factory.RegisterRoutes(r, authn)
	return r
}

// Stack wires the router with the standard decorator chain.
func Stack(auth x.Authenticator, caller wallet.Caller) vault.Handler {
	return Chain().WithHandler(Router(auth, caller))
}

// RegisterQuery registers all bucket queries on the router.
func RegisterQuery(qr vault.QueryRouter) {
	wallet.RegisterQuery(qr)
	factory.RegisterQuery(qr)
}

// CommitKVStore returns an initialized KVStore that persists the data under
// the given path. An empty path returns a memory backed store for testing.
func CommitKVStore(dbPath string) (vault.CommitKVStore, error) {
	if dbPath == "" {
		return iavl.MockCommitStore(), nil
	}

	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("invalid database name: %s", path)
	}

	// Some external calls accidentally add a ".db", which is removed here.
	path = strings.TrimSuffix(path, filepath.Ext(path))

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return iavl.NewCommitStore(dir, name), nil
}
