package factory

import (
	"crypto/sha256"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/x/wallet"
)

// ConfigHash commits to a wallet configuration. The same owner set, threshold
// and time lock always produce the same hash, so clients can compute it
// offline.
func ConfigHash(owners []*wallet.Owner, threshold uint32, timelock vault.UnixDuration) ([]byte, error) {
	cfg := DeployWalletMsg{
		Owners:    owners,
		Threshold: threshold,
		Timelock:  timelock,
	}
	raw, err := cfg.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "cannot serialize configuration")
	}
	h := sha256.Sum256(raw)
	return h[:], nil
}

// PredictAddress returns the address a wallet with given configuration hash
// and salt is deployed under. The result depends on nothing else, so the
// address is known before the deployment happens.
func PredictAddress(configHash, salt []byte) vault.Address {
	seed := make([]byte, 0, len(configHash)+len(salt))
	seed = append(seed, configHash...)
	seed = append(seed, salt...)
	return vault.NewCondition("wallet", "deploy", seed).Address()
}
