package wallet

import (
	"context"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/x"
)

type contextKey int // local to the wallet module

const (
	contextKeyWallet contextKey = iota
	contextKeyExecution
)

// withWallet binds the wallet self authority to the context. Only the
// execution path of this module can act on behalf of a wallet.
func withWallet(ctx vault.Context, addr vault.Address) vault.Context {
	return context.WithValue(ctx, contextKeyWallet, Condition(addr))
}

// withExecution marks the context as running inside a transaction execution.
// Any wallet operation dispatched with such context is a reentrant call.
func withExecution(ctx vault.Context) vault.Context {
	return context.WithValue(ctx, contextKeyExecution, true)
}

func isExecuting(ctx vault.Context) bool {
	val, _ := ctx.Value(contextKeyExecution).(bool)
	return val
}

// Condition returns the self authority condition of a wallet. Governance
// messages are valid only when this condition is fulfilled.
func Condition(addr vault.Address) vault.Condition {
	return vault.NewCondition("wallet", "self", addr)
}

// Authenticate implements the authenticator interface over the wallet self
// authority stored in the context.
type Authenticate struct {
}

var _ x.Authenticator = Authenticate{}

// GetConditions returns the wallet condition previously set on this context.
func (a Authenticate) GetConditions(ctx vault.Context) []vault.Condition {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeyWallet).(vault.Condition)
	if val == nil {
		return nil
	}
	return []vault.Condition{val}
}

// HasAddress returns true iff this address is in GetConditions.
func (a Authenticate) HasAddress(ctx vault.Context, addr vault.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
