package factory

import (
	"time"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/x/wallet"
)

// Profile is a deployment policy template. It pins the threshold and the time
// lock and optionally demands owner attribution.
type Profile struct {
	// Name is used in error messages only.
	Name string

	Threshold uint32
	Timelock  vault.UnixDuration

	// RequireLabels demands that every owner declares a role and a device
	// class. Production deployments must be auditable.
	RequireLabels bool
}

// TestnetProfile is a low friction template for development deployments. A
// single confirmation and a short delay.
var TestnetProfile = Profile{
	Name:      "testnet",
	Threshold: 1,
	Timelock:  vault.AsUnixDuration(time.Hour),
}

// ProductionProfile is the template for wallets holding real crawl budgets.
var ProductionProfile = Profile{
	Name:          "production",
	Threshold:     3,
	Timelock:      vault.AsUnixDuration(24 * time.Hour),
	RequireLabels: true,
}

// Check returns an error if given deployment does not follow this profile.
func (p Profile) Check(msg *DeployWalletMsg) error {
	if msg.Threshold != p.Threshold {
		return errors.Wrapf(errors.ErrInput, "%s profile requires threshold %d", p.Name, p.Threshold)
	}
	if msg.Timelock != p.Timelock {
		return errors.Wrapf(errors.ErrInput, "%s profile requires a %s time lock", p.Name, p.Timelock)
	}
	if p.RequireLabels {
		for i, o := range msg.Owners {
			if o.Role == "" {
				return errors.Wrapf(errors.ErrInput, "%s profile: owner #%d has no role", p.Name, i)
			}
			if o.DeviceClass == "" {
				return errors.Wrapf(errors.ErrInput, "%s profile: owner #%d has no device class", p.Name, i)
			}
		}
	}
	return nil
}

// Deployment returns a deployment message following this profile.
func (p Profile) Deployment(salt []byte, owners []*wallet.Owner) *DeployWalletMsg {
	return &DeployWalletMsg{
		Metadata:  &vault.Metadata{Schema: 1},
		Salt:      salt,
		Owners:    owners,
		Threshold: p.Threshold,
		Timelock:  p.Timelock,
	}
}
