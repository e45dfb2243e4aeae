package vaulttest

import (
	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/crypto"
)

func NewKey() crypto.Signer {
	return crypto.GenPrivKeyEd25519()
}

func NewCondition() vault.Condition {
	return NewKey().PublicKey().Condition()
}
