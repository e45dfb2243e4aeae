package wallet

import (
	"fmt"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/migration"
	"github.com/crawltoll/vault/orm"
	"github.com/crawltoll/vault/x"
	"github.com/tendermint/tendermint/libs/common"
)

const (
	submitCost  int64 = 200
	confirmCost int64 = 100
	revokeCost  int64 = 100
	executeCost int64 = 300
)

// RegisterRoutes will instantiate and register all handlers in this package.
//
// The executor is used to dispatch self targeted governance payloads and is
// usually the application router wrapped with HandlerAsExecutor. The caller
// is the platform boundary for external transaction effects.
func RegisterRoutes(r vault.Registry, auth x.Authenticator, caller Caller, executor Executor) {
	r = migration.NewSchemaMigratingRegistry("wallet", r)
	wallets := NewWalletBucket()
	txs := NewTransactionBucket()
	run := &runner{txs: txs, caller: caller, executor: executor}

	r.Handle(&SubmitTransactionMsg{}, SubmitTransactionHandler{auth, wallets, txs, run})
	r.Handle(&ConfirmTransactionMsg{}, ConfirmTransactionHandler{auth, wallets, txs, run})
	r.Handle(&RevokeConfirmationMsg{}, RevokeConfirmationHandler{auth, wallets, txs})
	r.Handle(&ExecuteTransactionMsg{}, ExecuteTransactionHandler{auth, wallets, txs, run})
	r.Handle(&AddOwnerMsg{}, AddOwnerHandler{auth, wallets})
	r.Handle(&RemoveOwnerMsg{}, RemoveOwnerHandler{auth, wallets})
}

// ledgerTags describe a ledger operation so the transaction history can be
// searched by wallet, entry or acting owner.
func ledgerTags(action string, txID []byte, walletID, owner vault.Address) []common.KVPair {
	return []common.KVPair{
		{Key: []byte("tx-id"), Value: txID},
		{Key: []byte("wallet-id"), Value: walletID},
		{Key: []byte("action"), Value: []byte(action)},
		{Key: []byte("owner"), Value: owner},
	}
}

// actingOwner returns the first active owner of the wallet that authorized
// the current request, or nil if the request is not signed by an owner.
func actingOwner(ctx vault.Context, auth x.Authenticator, w *Wallet) *Owner {
	for _, o := range w.Owners {
		if o.Active && auth.HasAddress(ctx, o.Address) {
			return o
		}
	}
	return nil
}

// runner executes a ready transaction. The ledger entry is marked executed
// before any effect is attempted so that a failed call can never be retried.
// Call failures are reported through the result log, not as an error, as an
// error would roll back the executed flag.
type runner struct {
	txs      orm.ModelBucket
	caller   Caller
	executor Executor
}

func (r *runner) execute(ctx vault.Context, db vault.KVStore, txID []byte, t *Transaction) (*vault.DeliverResult, error) {
	t.Executed = true
	if _, err := r.txs.Put(db, txID, t); err != nil {
		return nil, errors.Wrap(err, "cannot update transaction")
	}

	res := &vault.DeliverResult{Data: txID}

	if t.IsSelfTargeted() {
		msg, err := governanceMsg(t)
		if err != nil {
			vault.GetLogger(ctx).Error("governance payload rejected", "tx", fmt.Sprintf("%X", txID), "err", err)
			res.Log = fmt.Sprintf("execution failed: %s", err)
			return res, nil
		}
		subCtx := withExecution(withWallet(ctx, t.Wallet))
		out, err := r.executor(subCtx, db, &payloadTx{msg: msg})
		if err != nil {
			vault.GetLogger(ctx).Error("governance execution failed", "tx", fmt.Sprintf("%X", txID), "err", err)
			res.Log = fmt.Sprintf("execution failed: %s", err)
			return res, nil
		}
		if out != nil {
			res.Log = out.Log
			res.Tags = append(res.Tags, out.Tags...)
		}
		return res, nil
	}

	if r.caller == nil {
		res.Log = "execution skipped: no caller configured"
		return res, nil
	}
	if err := r.caller.Call(withExecution(ctx), db, t.Wallet, t.Destination, t.Amount, t.Payload); err != nil {
		vault.GetLogger(ctx).Error("transaction call failed", "tx", fmt.Sprintf("%X", txID), "err", err)
		res.Log = fmt.Sprintf("execution failed: %s", err)
	}
	return res, nil
}

//---- submit

// SubmitTransactionHandler appends a new entry to the transaction ledger.
// Submission counts as the first confirmation of the submitting owner.
type SubmitTransactionHandler struct {
	auth    x.Authenticator
	wallets orm.ModelBucket
	txs     orm.ModelBucket
	run     *runner
}

var _ vault.Handler = SubmitTransactionHandler{}

// Check does the validation and sets the cost of the transaction.
func (h SubmitTransactionHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: submitCost}, nil
}

// Deliver creates the ledger entry and executes it right away when the
// wallet threshold is one and no delay applies.
func (h SubmitTransactionHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, w, owner, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	blockNow, err := vault.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	now := vault.AsUnixTime(blockNow)

	t := &Transaction{
		Metadata:      &vault.Metadata{Schema: 1},
		Wallet:        msg.Wallet,
		Destination:   msg.Destination,
		Amount:        msg.Amount,
		Payload:       msg.Payload,
		Description:   msg.Description,
		Emergency:     msg.Emergency,
		SubmittedAt:   now,
		Confirmations: []vault.Address{owner.Address},
	}
	if activeConfirmations(w, t) >= w.Threshold {
		t.ThresholdReachedAt = now
	}

	txID, err := h.txs.Put(db, nil, t)
	if err != nil {
		return nil, errors.Wrap(err, "cannot store transaction")
	}

	owner.LastActivityAt = now
	if _, err := h.wallets.Put(db, msg.Wallet, w); err != nil {
		return nil, errors.Wrap(err, "cannot update wallet")
	}

	res := &vault.DeliverResult{Data: txID}
	if canExecute(ctx, w, t) == nil {
		if res, err = h.run.execute(ctx, db, txID, t); err != nil {
			return nil, err
		}
	}
	res.Tags = append(res.Tags, ledgerTags("submit", txID, msg.Wallet, owner.Address)...)
	return res, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h SubmitTransactionHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*SubmitTransactionMsg, *Wallet, *Owner, error) {
	if isExecuting(ctx) {
		return nil, nil, nil, errors.Wrap(ErrReentrancy, "submit during execution")
	}
	var msg SubmitTransactionMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	var w Wallet
	if err := h.wallets.One(db, msg.Wallet, &w); err != nil {
		return nil, nil, nil, errors.Wrap(err, "wallet")
	}
	owner := actingOwner(ctx, h.auth, &w)
	if owner == nil {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "not an active owner")
	}
	if msg.Emergency && !owner.EmergencyResponder {
		return nil, nil, nil, errors.Wrap(ErrEmergencyNotPermitted, "not an emergency responder")
	}
	return &msg, &w, owner, nil
}

//---- confirm

// ConfirmTransactionHandler records an owner confirmation and executes the
// transaction as soon as the threshold is met and no delay applies.
type ConfirmTransactionHandler struct {
	auth    x.Authenticator
	wallets orm.ModelBucket
	txs     orm.ModelBucket
	run     *runner
}

var _ vault.Handler = ConfirmTransactionHandler{}

// Check does the validation and sets the cost of the transaction.
func (h ConfirmTransactionHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: confirmCost}, nil
}

// Deliver adds the confirmation. Reaching the threshold captures the
// threshold time once. A transaction blocked by the time lock is not an
// error, execution is deferred to a later explicit execute request.
func (h ConfirmTransactionHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, w, t, owner, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	blockNow, err := vault.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	now := vault.AsUnixTime(blockNow)

	t.Confirmations = append(t.Confirmations, owner.Address)
	if t.ThresholdReachedAt.IsZero() && activeConfirmations(w, t) >= w.Threshold {
		t.ThresholdReachedAt = now
	}
	if _, err := h.txs.Put(db, msg.TransactionID, t); err != nil {
		return nil, errors.Wrap(err, "cannot update transaction")
	}

	owner.LastActivityAt = now
	if _, err := h.wallets.Put(db, t.Wallet, w); err != nil {
		return nil, errors.Wrap(err, "cannot update wallet")
	}

	res := &vault.DeliverResult{Data: msg.TransactionID}
	if canExecute(ctx, w, t) == nil {
		if res, err = h.run.execute(ctx, db, msg.TransactionID, t); err != nil {
			return nil, err
		}
	}
	res.Tags = append(res.Tags, ledgerTags("confirm", msg.TransactionID, t.Wallet, owner.Address)...)
	return res, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h ConfirmTransactionHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ConfirmTransactionMsg, *Wallet, *Transaction, *Owner, error) {
	if isExecuting(ctx) {
		return nil, nil, nil, nil, errors.Wrap(ErrReentrancy, "confirm during execution")
	}
	var msg ConfirmTransactionMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "load msg")
	}
	var t Transaction
	if err := h.txs.One(db, msg.TransactionID, &t); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "transaction")
	}
	var w Wallet
	if err := h.wallets.One(db, t.Wallet, &w); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "wallet")
	}
	owner := actingOwner(ctx, h.auth, &w)
	if owner == nil {
		return nil, nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "not an active owner")
	}
	if t.Executed {
		return nil, nil, nil, nil, errors.Wrap(ErrAlreadyExecuted, "cannot confirm")
	}
	if t.IsConfirmedBy(owner.Address) {
		return nil, nil, nil, nil, errors.Wrap(ErrAlreadyConfirmed, "cannot confirm twice")
	}
	return &msg, &w, &t, owner, nil
}

//---- revoke

// RevokeConfirmationHandler withdraws a confirmation that was given before.
// The recorded threshold time is never reset by a revocation.
type RevokeConfirmationHandler struct {
	auth    x.Authenticator
	wallets orm.ModelBucket
	txs     orm.ModelBucket
}

var _ vault.Handler = RevokeConfirmationHandler{}

// Check does the validation and sets the cost of the transaction.
func (h RevokeConfirmationHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: revokeCost}, nil
}

// Deliver removes the confirmation of the acting owner.
func (h RevokeConfirmationHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, w, t, owner, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	confirmations := make([]vault.Address, 0, len(t.Confirmations)-1)
	for _, c := range t.Confirmations {
		if !c.Equals(owner.Address) {
			confirmations = append(confirmations, c)
		}
	}
	t.Confirmations = confirmations
	if _, err := h.txs.Put(db, msg.TransactionID, t); err != nil {
		return nil, errors.Wrap(err, "cannot update transaction")
	}

	blockNow, err := vault.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	owner.LastActivityAt = vault.AsUnixTime(blockNow)
	if _, err := h.wallets.Put(db, t.Wallet, w); err != nil {
		return nil, errors.Wrap(err, "cannot update wallet")
	}

	res := &vault.DeliverResult{Data: msg.TransactionID}
	res.Tags = append(res.Tags, ledgerTags("revoke", msg.TransactionID, t.Wallet, owner.Address)...)
	return res, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h RevokeConfirmationHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*RevokeConfirmationMsg, *Wallet, *Transaction, *Owner, error) {
	if isExecuting(ctx) {
		return nil, nil, nil, nil, errors.Wrap(ErrReentrancy, "revoke during execution")
	}
	var msg RevokeConfirmationMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "load msg")
	}
	var t Transaction
	if err := h.txs.One(db, msg.TransactionID, &t); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "transaction")
	}
	var w Wallet
	if err := h.wallets.One(db, t.Wallet, &w); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "wallet")
	}
	owner := actingOwner(ctx, h.auth, &w)
	if owner == nil {
		return nil, nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "not an active owner")
	}
	if t.Executed {
		return nil, nil, nil, nil, errors.Wrap(ErrAlreadyExecuted, "cannot revoke")
	}
	if !t.IsConfirmedBy(owner.Address) {
		return nil, nil, nil, nil, errors.Wrap(ErrNotConfirmed, "cannot revoke")
	}
	return &msg, &w, &t, owner, nil
}

//---- execute

// ExecuteTransactionHandler runs a transaction that satisfied the threshold
// and whose delay elapsed. Any active owner may trigger the execution.
type ExecuteTransactionHandler struct {
	auth    x.Authenticator
	wallets orm.ModelBucket
	txs     orm.ModelBucket
	run     *runner
}

var _ vault.Handler = ExecuteTransactionHandler{}

// Check does the validation and sets the cost of the transaction.
func (h ExecuteTransactionHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: executeCost}, nil
}

// Deliver marks the transaction executed and performs its effect.
func (h ExecuteTransactionHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, w, t, owner, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	blockNow, err := vault.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	owner.LastActivityAt = vault.AsUnixTime(blockNow)
	if _, err := h.wallets.Put(db, t.Wallet, w); err != nil {
		return nil, errors.Wrap(err, "cannot update wallet")
	}

	res, err := h.run.execute(ctx, db, msg.TransactionID, t)
	if err != nil {
		return nil, err
	}
	res.Tags = append(res.Tags, ledgerTags("execute", msg.TransactionID, t.Wallet, owner.Address)...)
	return res, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h ExecuteTransactionHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ExecuteTransactionMsg, *Wallet, *Transaction, *Owner, error) {
	if isExecuting(ctx) {
		return nil, nil, nil, nil, errors.Wrap(ErrReentrancy, "execute during execution")
	}
	var msg ExecuteTransactionMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "load msg")
	}
	var t Transaction
	if err := h.txs.One(db, msg.TransactionID, &t); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "transaction")
	}
	var w Wallet
	if err := h.wallets.One(db, t.Wallet, &w); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "wallet")
	}
	owner := actingOwner(ctx, h.auth, &w)
	if owner == nil {
		return nil, nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "not an active owner")
	}
	if err := canExecute(ctx, &w, &t); err != nil {
		return nil, nil, nil, nil, err
	}
	return &msg, &w, &t, owner, nil
}

//---- governance

// AddOwnerHandler extends the wallet signer set. It accepts only requests
// authorized by the wallet self authority, so the only way to add an owner
// is through the submit, confirm and execute cycle.
type AddOwnerHandler struct {
	auth    x.Authenticator
	wallets orm.ModelBucket
}

var _ vault.Handler = AddOwnerHandler{}

// Check does the validation and sets the cost of the transaction.
func (h AddOwnerHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{}, nil
}

// Deliver adds the owner or reactivates a previously removed one.
func (h AddOwnerHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, w, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	blockNow, err := vault.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	now := vault.AsUnixTime(blockNow)

	if existing := w.OwnerInfo(msg.Address); existing != nil {
		// Owners are never deleted, so adding a removed address again
		// reactivates the old entry with fresh attributes.
		existing.Active = true
		existing.AddedAt = now
		existing.Role = msg.Role
		existing.DeviceClass = msg.DeviceClass
		existing.EmergencyResponder = msg.EmergencyResponder
	} else {
		w.Owners = append(w.Owners, &Owner{
			Address:            msg.Address,
			Active:             true,
			AddedAt:            now,
			Role:               msg.Role,
			DeviceClass:        msg.DeviceClass,
			EmergencyResponder: msg.EmergencyResponder,
		})
	}

	if _, err := h.wallets.Put(db, msg.Wallet, w); err != nil {
		return nil, errors.Wrap(err, "cannot update wallet")
	}
	res := &vault.DeliverResult{Data: msg.Address}
	res.Tags = append(res.Tags, []common.KVPair{
		{Key: []byte("wallet-id"), Value: msg.Wallet},
		{Key: []byte("action"), Value: []byte("add-owner")},
		{Key: []byte("owner"), Value: msg.Address},
	}...)
	return res, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h AddOwnerHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*AddOwnerMsg, *Wallet, error) {
	var msg AddOwnerMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !x.HasAllConditions(ctx, h.auth, []vault.Condition{Condition(msg.Wallet)}) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "wallet authority required")
	}
	var w Wallet
	if err := h.wallets.One(db, msg.Wallet, &w); err != nil {
		return nil, nil, errors.Wrap(err, "wallet")
	}
	if w.IsActiveOwner(msg.Address) {
		return nil, nil, errors.Wrap(ErrDuplicateOwner, "cannot add")
	}
	return &msg, &w, nil
}

// RemoveOwnerHandler deactivates an owner. The entry stays in the wallet for
// audit purposes. A removal that would leave fewer active owners than the
// threshold is rejected.
type RemoveOwnerHandler struct {
	auth    x.Authenticator
	wallets orm.ModelBucket
}

var _ vault.Handler = RemoveOwnerHandler{}

// Check does the validation and sets the cost of the transaction.
func (h RemoveOwnerHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{}, nil
}

// Deliver clears the active flag of the owner.
func (h RemoveOwnerHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, w, owner, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	owner.Active = false
	if _, err := h.wallets.Put(db, msg.Wallet, w); err != nil {
		return nil, errors.Wrap(err, "cannot update wallet")
	}
	res := &vault.DeliverResult{Data: msg.Address}
	res.Tags = append(res.Tags, []common.KVPair{
		{Key: []byte("wallet-id"), Value: msg.Wallet},
		{Key: []byte("action"), Value: []byte("remove-owner")},
		{Key: []byte("owner"), Value: msg.Address},
	}...)
	return res, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h RemoveOwnerHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*RemoveOwnerMsg, *Wallet, *Owner, error) {
	var msg RemoveOwnerMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	if !x.HasAllConditions(ctx, h.auth, []vault.Condition{Condition(msg.Wallet)}) {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "wallet authority required")
	}
	var w Wallet
	if err := h.wallets.One(db, msg.Wallet, &w); err != nil {
		return nil, nil, nil, errors.Wrap(err, "wallet")
	}
	owner := w.OwnerInfo(msg.Address)
	if owner == nil || !owner.Active {
		return nil, nil, nil, errors.Wrap(ErrOwnerNotFound, "cannot remove")
	}
	if w.ActiveOwnerCount()-1 < w.Threshold {
		return nil, nil, nil, errors.Wrap(ErrThresholdViolation, "cannot remove")
	}
	return &msg, &w, owner, nil
}
