package wallet

import (
	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/coin"
	"github.com/crawltoll/vault/errors"
)

// Caller is the platform boundary for external transaction effects. An
// implementation moves funds or delivers the payload to the destination.
//
// Call failures are terminal for the transaction. The ledger entry is marked
// executed before the call is attempted and a failed call is never retried.
type Caller interface {
	Call(ctx vault.Context, db vault.KVStore, source vault.Address, destination vault.Address, amount *coin.Coin, payload []byte) error
}

// CallerFunc turns a plain function into a Caller.
type CallerFunc func(ctx vault.Context, db vault.KVStore, source vault.Address, destination vault.Address, amount *coin.Coin, payload []byte) error

var _ Caller = CallerFunc(nil)

// Call implements Caller interface.
func (f CallerFunc) Call(ctx vault.Context, db vault.KVStore, source, destination vault.Address, amount *coin.Coin, payload []byte) error {
	return f(ctx, db, source, destination, amount, payload)
}

// Executor is a function that dispatches a self targeted governance message.
// It is usually constructed from the application router so that governance
// messages pass through the same handler stack as any other message.
type Executor func(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error)

// HandlerAsExecutor wraps a handler (typically the application router) to be
// used as an executor for governance payloads.
func HandlerAsExecutor(h vault.Handler) Executor {
	return func(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
		return h.Deliver(ctx, db, tx)
	}
}

// payloadTx wraps a message dispatched on behalf of a wallet. It exists only
// in memory during the execution and is never serialized.
type payloadTx struct {
	msg vault.Msg
}

var _ vault.Tx = (*payloadTx)(nil)

func (tx *payloadTx) GetMsg() (vault.Msg, error) {
	return tx.msg, nil
}

func (tx *payloadTx) Marshal() ([]byte, error) {
	return nil, errors.Wrap(errors.ErrHuman, "payload tx cannot be serialized")
}

func (tx *payloadTx) Unmarshal([]byte) error {
	return errors.Wrap(errors.ErrHuman, "payload tx cannot be deserialized")
}

// governanceMsg decodes a self targeted transaction payload and returns the
// message to dispatch. The message wallet reference must match the wallet the
// transaction belongs to.
func governanceMsg(t *Transaction) (vault.Msg, error) {
	var payload GovernancePayload
	if err := payload.Unmarshal(t.Payload); err != nil {
		return nil, errors.Wrap(errors.ErrInput, "cannot decode governance payload")
	}
	if err := payload.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid governance payload")
	}

	var msg vault.Msg
	var target vault.Address
	switch {
	case payload.AddOwner != nil:
		msg = payload.AddOwner
		target = payload.AddOwner.Wallet
	case payload.RemoveOwner != nil:
		msg = payload.RemoveOwner
		target = payload.RemoveOwner.Wallet
	}
	if !target.Equals(t.Wallet) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "payload targets another wallet")
	}
	return msg, nil
}
