package factory

import (
	"github.com/crawltoll/vault/errors"
)

var (
	// ErrAlreadyDeployed is returned when a wallet already exists under the
	// address derived from the configuration and the salt.
	ErrAlreadyDeployed = errors.Register(1300, "already deployed")
)
