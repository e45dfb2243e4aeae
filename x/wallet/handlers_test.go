package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/app"
	"github.com/crawltoll/vault/coin"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/migration"
	"github.com/crawltoll/vault/store"
	"github.com/crawltoll/vault/vaulttest"
	"github.com/crawltoll/vault/x"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	source      vault.Address
	destination vault.Address
	amount      *coin.Coin
	payload     []byte
}

// capturingCaller records external call attempts and optionally fails them.
type capturingCaller struct {
	calls []call
	err   error
}

func (c *capturingCaller) Call(ctx vault.Context, db vault.KVStore, source, destination vault.Address, amount *coin.Coin, payload []byte) error {
	c.calls = append(c.calls, call{source, destination, amount, payload})
	return c.err
}

type walletCfg struct {
	owners     int
	threshold  uint32
	timelock   time.Duration
	responders []int
}

type testEnv struct {
	db      vault.KVStore
	rt      *app.Router
	sigs    *vaulttest.CtxAuth
	wallet  vault.Address
	owners  []vault.Condition
	caller  *capturingCaller
	wallets Controller
}

func newTestEnv(t *testing.T, cfg walletCfg) *testEnv {
	t.Helper()

	db := store.MemStore()
	migration.MustInitPkg(db, "wallet")

	owners := make([]vault.Condition, cfg.owners)
	entries := make([]*Owner, cfg.owners)
	for i := range owners {
		owners[i] = vaulttest.NewCondition()
		entries[i] = &Owner{
			Address: owners[i].Address(),
			Active:  true,
		}
	}
	for _, i := range cfg.responders {
		entries[i].EmergencyResponder = true
	}

	walletAddr := vaulttest.RandomAddr(t)
	w := Wallet{
		Metadata:  &vault.Metadata{Schema: 1},
		Owners:    entries,
		Threshold: cfg.threshold,
		Timelock:  vault.AsUnixDuration(cfg.timelock),
	}
	_, err := NewWalletBucket().Put(db, walletAddr, &w)
	require.NoError(t, err)

	rt := app.NewRouter()
	sigs := &vaulttest.CtxAuth{Key: "auth"}
	caller := &capturingCaller{}
	RegisterRoutes(rt, x.ChainAuth(sigs, Authenticate{}), caller, HandlerAsExecutor(rt))

	return &testEnv{
		db:      db,
		rt:      rt,
		sigs:    sigs,
		wallet:  walletAddr,
		owners:  owners,
		caller:  caller,
		wallets: NewController(),
	}
}

func (e *testEnv) ctx(owner int, now time.Time) vault.Context {
	ctx := vault.WithBlockTime(context.Background(), now)
	return e.sigs.SetConditions(ctx, e.owners[owner])
}

func (e *testEnv) deliver(ctx vault.Context, msg vault.Msg) (*vault.DeliverResult, error) {
	return e.rt.Deliver(ctx, e.db, &vaulttest.Tx{Msg: msg})
}

func (e *testEnv) submit(destination vault.Address, amount *coin.Coin, payload []byte, emergency bool) *SubmitTransactionMsg {
	return &SubmitTransactionMsg{
		Metadata:    &vault.Metadata{Schema: 1},
		Wallet:      e.wallet,
		Destination: destination,
		Amount:      amount,
		Payload:     payload,
		Emergency:   emergency,
	}
}

func confirm(txID []byte) *ConfirmTransactionMsg {
	return &ConfirmTransactionMsg{
		Metadata:      &vault.Metadata{Schema: 1},
		TransactionID: txID,
	}
}

func TestSubmitAndAutoExecute(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 2})
	now := time.Now().UTC()
	dest := vaulttest.RandomAddr(t)
	amount := coin.NewCoinp(5, 0, "TOLL")

	res, err := e.deliver(e.ctx(0, now), e.submit(dest, amount, nil, false))
	require.NoError(t, err)
	assert.Equal(t, vaulttest.SequenceID(1), res.Data)
	assert.Len(t, e.caller.calls, 0)

	tx, err := e.wallets.GetTransaction(e.db, res.Data)
	require.NoError(t, err)
	assert.False(t, tx.Executed)
	assert.True(t, tx.IsConfirmedBy(e.owners[0].Address()))
	assert.True(t, tx.ThresholdReachedAt.IsZero())

	_, err = e.deliver(e.ctx(1, now.Add(time.Minute)), confirm(res.Data))
	require.NoError(t, err)

	tx, err = e.wallets.GetTransaction(e.db, res.Data)
	require.NoError(t, err)
	assert.True(t, tx.Executed)
	assert.Equal(t, vault.AsUnixTime(now.Add(time.Minute)), tx.ThresholdReachedAt)

	require.Len(t, e.caller.calls, 1)
	assert.Equal(t, e.wallet, e.caller.calls[0].source)
	assert.Equal(t, dest, e.caller.calls[0].destination)
	assert.True(t, amount.Equals(*e.caller.calls[0].amount))
}

func TestSingleOwnerSubmitExecutesImmediately(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 1, threshold: 1})
	now := time.Now().UTC()
	dest := vaulttest.RandomAddr(t)
	amount := coin.NewCoinp(2, 0, "TOLL")

	res, err := e.deliver(e.ctx(0, now), e.submit(dest, amount, []byte("crawl-receipt"), false))
	require.NoError(t, err)

	// Submission alone reaches the threshold, no separate confirmation or
	// execution request is needed.
	tx, err := e.wallets.GetTransaction(e.db, res.Data)
	require.NoError(t, err)
	assert.True(t, tx.Executed)
	assert.Equal(t, vault.AsUnixTime(now), tx.ThresholdReachedAt)

	require.Len(t, e.caller.calls, 1)
	assert.Equal(t, e.wallet, e.caller.calls[0].source)
	assert.Equal(t, dest, e.caller.calls[0].destination)
	assert.Equal(t, []byte("crawl-receipt"), e.caller.calls[0].payload)
	assert.True(t, amount.Equals(*e.caller.calls[0].amount))
}

func TestTimeLockDefersExecution(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 5, threshold: 3, timelock: 24 * time.Hour})
	now := time.Now().UTC()
	dest := vaulttest.RandomAddr(t)

	res, err := e.deliver(e.ctx(0, now), e.submit(dest, coin.NewCoinp(1, 0, "TOLL"), nil, false))
	require.NoError(t, err)
	_, err = e.deliver(e.ctx(1, now), confirm(res.Data))
	require.NoError(t, err)
	_, err = e.deliver(e.ctx(2, now), confirm(res.Data))
	require.NoError(t, err)

	// Threshold is met but the delay keeps the transaction pending.
	tx, err := e.wallets.GetTransaction(e.db, res.Data)
	require.NoError(t, err)
	assert.False(t, tx.Executed)
	assert.Equal(t, vault.AsUnixTime(now), tx.ThresholdReachedAt)
	assert.Len(t, e.caller.calls, 0)

	execMsg := &ExecuteTransactionMsg{
		Metadata:      &vault.Metadata{Schema: 1},
		TransactionID: res.Data,
	}
	_, err = e.deliver(e.ctx(0, now.Add(time.Hour)), execMsg)
	assert.True(t, ErrTimeLockNotElapsed.Is(err), "unexpected error: %+v", err)

	_, err = e.deliver(e.ctx(0, now.Add(24*time.Hour+time.Second)), execMsg)
	require.NoError(t, err)

	tx, err = e.wallets.GetTransaction(e.db, res.Data)
	require.NoError(t, err)
	assert.True(t, tx.Executed)
	assert.Len(t, e.caller.calls, 1)
}

func TestEmergencyBypassesTimeLock(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 5, threshold: 3, timelock: 24 * time.Hour, responders: []int{0}})
	now := time.Now().UTC()
	dest := vaulttest.RandomAddr(t)

	res, err := e.deliver(e.ctx(0, now), e.submit(dest, coin.NewCoinp(1, 0, "TOLL"), nil, true))
	require.NoError(t, err)
	_, err = e.deliver(e.ctx(1, now), confirm(res.Data))
	require.NoError(t, err)
	_, err = e.deliver(e.ctx(2, now), confirm(res.Data))
	require.NoError(t, err)

	// The third confirmation reached the threshold and executed without
	// waiting for the delay.
	tx, err := e.wallets.GetTransaction(e.db, res.Data)
	require.NoError(t, err)
	assert.True(t, tx.Executed)
	assert.Len(t, e.caller.calls, 1)
}

func TestEmergencyRequiresResponder(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 2, responders: []int{0}})
	now := time.Now().UTC()
	dest := vaulttest.RandomAddr(t)

	_, err := e.deliver(e.ctx(1, now), e.submit(dest, coin.NewCoinp(1, 0, "TOLL"), nil, true))
	assert.True(t, ErrEmergencyNotPermitted.Is(err), "unexpected error: %+v", err)
}

func TestDoubleConfirmationRejected(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 3})
	now := time.Now().UTC()
	dest := vaulttest.RandomAddr(t)

	res, err := e.deliver(e.ctx(0, now), e.submit(dest, coin.NewCoinp(1, 0, "TOLL"), nil, false))
	require.NoError(t, err)

	// Submission already counts as the first confirmation.
	_, err = e.deliver(e.ctx(0, now), confirm(res.Data))
	assert.True(t, ErrAlreadyConfirmed.Is(err), "unexpected error: %+v", err)

	_, err = e.deliver(e.ctx(1, now), confirm(res.Data))
	require.NoError(t, err)
	_, err = e.deliver(e.ctx(1, now), confirm(res.Data))
	assert.True(t, ErrAlreadyConfirmed.Is(err), "unexpected error: %+v", err)
}

func TestNonOwnerRejected(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 2})
	now := time.Now().UTC()
	stranger := vaulttest.NewCondition()

	ctx := vault.WithBlockTime(context.Background(), now)
	ctx = e.sigs.SetConditions(ctx, stranger)
	_, err := e.rt.Deliver(ctx, e.db, &vaulttest.Tx{
		Msg: e.submit(vaulttest.RandomAddr(t), coin.NewCoinp(1, 0, "TOLL"), nil, false),
	})
	assert.True(t, errors.ErrUnauthorized.Is(err), "unexpected error: %+v", err)
}

func TestRevokeConfirmation(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 3})
	now := time.Now().UTC()
	dest := vaulttest.RandomAddr(t)

	res, err := e.deliver(e.ctx(0, now), e.submit(dest, coin.NewCoinp(1, 0, "TOLL"), nil, false))
	require.NoError(t, err)
	_, err = e.deliver(e.ctx(1, now), confirm(res.Data))
	require.NoError(t, err)

	revoke := &RevokeConfirmationMsg{
		Metadata:      &vault.Metadata{Schema: 1},
		TransactionID: res.Data,
	}

	// An owner that never confirmed cannot revoke.
	_, err = e.deliver(e.ctx(2, now), revoke)
	assert.True(t, ErrNotConfirmed.Is(err), "unexpected error: %+v", err)

	_, err = e.deliver(e.ctx(1, now), revoke)
	require.NoError(t, err)

	tx, err := e.wallets.GetTransaction(e.db, res.Data)
	require.NoError(t, err)
	assert.False(t, tx.IsConfirmedBy(e.owners[1].Address()))
	assert.True(t, tx.IsConfirmedBy(e.owners[0].Address()))
}

func TestRevokeAfterExecutionRejected(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 2})
	now := time.Now().UTC()
	dest := vaulttest.RandomAddr(t)

	res, err := e.deliver(e.ctx(0, now), e.submit(dest, coin.NewCoinp(1, 0, "TOLL"), nil, false))
	require.NoError(t, err)
	_, err = e.deliver(e.ctx(1, now), confirm(res.Data))
	require.NoError(t, err)

	_, err = e.deliver(e.ctx(1, now), &RevokeConfirmationMsg{
		Metadata:      &vault.Metadata{Schema: 1},
		TransactionID: res.Data,
	})
	assert.True(t, ErrAlreadyExecuted.Is(err), "unexpected error: %+v", err)
}

func TestRevokeDoesNotResetThresholdTime(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 2, timelock: 24 * time.Hour})
	now := time.Now().UTC()
	dest := vaulttest.RandomAddr(t)

	res, err := e.deliver(e.ctx(0, now), e.submit(dest, coin.NewCoinp(1, 0, "TOLL"), nil, false))
	require.NoError(t, err)
	_, err = e.deliver(e.ctx(1, now), confirm(res.Data))
	require.NoError(t, err)

	_, err = e.deliver(e.ctx(1, now.Add(time.Hour)), &RevokeConfirmationMsg{
		Metadata:      &vault.Metadata{Schema: 1},
		TransactionID: res.Data,
	})
	require.NoError(t, err)

	// Re-confirmation much later does not extend the delay window.
	_, err = e.deliver(e.ctx(2, now.Add(2*time.Hour)), confirm(res.Data))
	require.NoError(t, err)

	tx, err := e.wallets.GetTransaction(e.db, res.Data)
	require.NoError(t, err)
	assert.Equal(t, vault.AsUnixTime(now), tx.ThresholdReachedAt)

	_, err = e.deliver(e.ctx(0, now.Add(24*time.Hour)), &ExecuteTransactionMsg{
		Metadata:      &vault.Metadata{Schema: 1},
		TransactionID: res.Data,
	})
	require.NoError(t, err)
}

func TestExecuteBelowThresholdRejected(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 3})
	now := time.Now().UTC()

	res, err := e.deliver(e.ctx(0, now), e.submit(vaulttest.RandomAddr(t), coin.NewCoinp(1, 0, "TOLL"), nil, false))
	require.NoError(t, err)

	_, err = e.deliver(e.ctx(0, now), &ExecuteTransactionMsg{
		Metadata:      &vault.Metadata{Schema: 1},
		TransactionID: res.Data,
	})
	assert.True(t, ErrInsufficientConfirmations.Is(err), "unexpected error: %+v", err)
}

func TestFailedCallIsTerminal(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 2})
	e.caller.err = errors.Wrap(errors.ErrState, "destination rejected payment")
	now := time.Now().UTC()

	res, err := e.deliver(e.ctx(0, now), e.submit(vaulttest.RandomAddr(t), coin.NewCoinp(1, 0, "TOLL"), nil, false))
	require.NoError(t, err)
	out, err := e.deliver(e.ctx(1, now), confirm(res.Data))
	require.NoError(t, err)
	assert.Contains(t, out.Log, "execution failed")

	// The entry is burned even though the call failed.
	tx, err := e.wallets.GetTransaction(e.db, res.Data)
	require.NoError(t, err)
	assert.True(t, tx.Executed)

	_, err = e.deliver(e.ctx(2, now), &ExecuteTransactionMsg{
		Metadata:      &vault.Metadata{Schema: 1},
		TransactionID: res.Data,
	})
	assert.True(t, ErrAlreadyExecuted.Is(err), "unexpected error: %+v", err)
	assert.Len(t, e.caller.calls, 1)
}

func TestGovernanceAddOwner(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 2})
	now := time.Now().UTC()
	newOwner := vaulttest.NewCondition()

	payload := GovernancePayload{
		AddOwner: &AddOwnerMsg{
			Metadata:    &vault.Metadata{Schema: 1},
			Wallet:      e.wallet,
			Address:     newOwner.Address(),
			Role:        "operator",
			DeviceClass: "hardware",
		},
	}
	raw := x.MustMarshal(&payload)

	res, err := e.deliver(e.ctx(0, now), e.submit(e.wallet, nil, raw, false))
	require.NoError(t, err)
	out, err := e.deliver(e.ctx(1, now), confirm(res.Data))
	require.NoError(t, err)
	assert.Empty(t, out.Log)

	w, err := e.wallets.GetWallet(e.db, e.wallet)
	require.NoError(t, err)
	assert.True(t, w.IsActiveOwner(newOwner.Address()))
	info := w.OwnerInfo(newOwner.Address())
	require.NotNil(t, info)
	assert.Equal(t, "operator", info.Role)
	assert.Equal(t, vault.AsUnixTime(now), info.AddedAt)
	assert.Len(t, e.caller.calls, 0)
}

func TestGovernanceRequiresWalletAuthority(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 2})
	now := time.Now().UTC()

	// An owner signature is not enough, the message must come through the
	// confirmation cycle.
	_, err := e.deliver(e.ctx(0, now), &AddOwnerMsg{
		Metadata: &vault.Metadata{Schema: 1},
		Wallet:   e.wallet,
		Address:  vaulttest.RandomAddr(t),
	})
	assert.True(t, errors.ErrUnauthorized.Is(err), "unexpected error: %+v", err)
}

func TestGovernanceRemoveOwner(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 2})
	now := time.Now().UTC()

	payload := GovernancePayload{
		RemoveOwner: &RemoveOwnerMsg{
			Metadata: &vault.Metadata{Schema: 1},
			Wallet:   e.wallet,
			Address:  e.owners[2].Address(),
		},
	}
	raw := x.MustMarshal(&payload)

	res, err := e.deliver(e.ctx(0, now), e.submit(e.wallet, nil, raw, false))
	require.NoError(t, err)
	_, err = e.deliver(e.ctx(1, now), confirm(res.Data))
	require.NoError(t, err)

	w, err := e.wallets.GetWallet(e.db, e.wallet)
	require.NoError(t, err)
	assert.False(t, w.IsActiveOwner(e.owners[2].Address()))
	// The entry is kept for the audit history.
	assert.NotNil(t, w.OwnerInfo(e.owners[2].Address()))

	// A removed owner cannot act anymore.
	_, err = e.deliver(e.ctx(2, now), e.submit(vaulttest.RandomAddr(t), coin.NewCoinp(1, 0, "TOLL"), nil, false))
	assert.True(t, errors.ErrUnauthorized.Is(err), "unexpected error: %+v", err)
}

func TestGovernanceRemoveBelowThresholdFails(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 2, threshold: 2})
	now := time.Now().UTC()

	payload := GovernancePayload{
		RemoveOwner: &RemoveOwnerMsg{
			Metadata: &vault.Metadata{Schema: 1},
			Wallet:   e.wallet,
			Address:  e.owners[1].Address(),
		},
	}
	raw := x.MustMarshal(&payload)

	res, err := e.deliver(e.ctx(0, now), e.submit(e.wallet, nil, raw, false))
	require.NoError(t, err)
	out, err := e.deliver(e.ctx(1, now), confirm(res.Data))
	require.NoError(t, err)

	// The governance dispatch failed but the ledger entry is consumed.
	assert.Contains(t, out.Log, "execution failed")
	tx, err := e.wallets.GetTransaction(e.db, res.Data)
	require.NoError(t, err)
	assert.True(t, tx.Executed)

	w, err := e.wallets.GetWallet(e.db, e.wallet)
	require.NoError(t, err)
	assert.True(t, w.IsActiveOwner(e.owners[1].Address()))
}

func TestReactivatedOwnerKeepsHistory(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 2})
	now := time.Now().UTC()
	removed := e.owners[2].Address()

	remove := GovernancePayload{
		RemoveOwner: &RemoveOwnerMsg{
			Metadata: &vault.Metadata{Schema: 1},
			Wallet:   e.wallet,
			Address:  removed,
		},
	}
	raw := x.MustMarshal(&remove)
	res, err := e.deliver(e.ctx(0, now), e.submit(e.wallet, nil, raw, false))
	require.NoError(t, err)
	_, err = e.deliver(e.ctx(1, now), confirm(res.Data))
	require.NoError(t, err)

	later := now.Add(time.Hour)
	add := GovernancePayload{
		AddOwner: &AddOwnerMsg{
			Metadata:           &vault.Metadata{Schema: 1},
			Wallet:             e.wallet,
			Address:            removed,
			EmergencyResponder: true,
		},
	}
	raw = x.MustMarshal(&add)
	res, err = e.deliver(e.ctx(0, later), e.submit(e.wallet, nil, raw, false))
	require.NoError(t, err)
	_, err = e.deliver(e.ctx(1, later), confirm(res.Data))
	require.NoError(t, err)

	w, err := e.wallets.GetWallet(e.db, e.wallet)
	require.NoError(t, err)
	// Still three entries, the removed one was reactivated in place.
	assert.Len(t, w.Owners, 3)
	info := w.OwnerInfo(removed)
	require.NotNil(t, info)
	assert.True(t, info.Active)
	assert.True(t, info.EmergencyResponder)
	assert.Equal(t, vault.AsUnixTime(later), info.AddedAt)
}

func TestReentrantSubmitRejected(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 2})
	now := time.Now().UTC()

	ctx := withExecution(e.ctx(0, now))
	_, err := e.rt.Deliver(ctx, e.db, &vaulttest.Tx{
		Msg: e.submit(vaulttest.RandomAddr(t), coin.NewCoinp(1, 0, "TOLL"), nil, false),
	})
	assert.True(t, ErrReentrancy.Is(err), "unexpected error: %+v", err)
}

func TestOwnerActivityTracked(t *testing.T) {
	e := newTestEnv(t, walletCfg{owners: 3, threshold: 2})
	now := time.Now().UTC()

	res, err := e.deliver(e.ctx(0, now), e.submit(vaulttest.RandomAddr(t), coin.NewCoinp(1, 0, "TOLL"), nil, false))
	require.NoError(t, err)

	later := now.Add(30 * time.Minute)
	_, err = e.deliver(e.ctx(1, later), confirm(res.Data))
	require.NoError(t, err)

	w, err := e.wallets.GetWallet(e.db, e.wallet)
	require.NoError(t, err)
	assert.Equal(t, vault.AsUnixTime(now), w.OwnerInfo(e.owners[0].Address()).LastActivityAt)
	assert.Equal(t, vault.AsUnixTime(later), w.OwnerInfo(e.owners[1].Address()).LastActivityAt)
	assert.True(t, w.OwnerInfo(e.owners[2].Address()).LastActivityAt.IsZero())
}
