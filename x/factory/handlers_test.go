package factory

import (
	"context"
	"testing"
	"time"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/app"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/migration"
	"github.com/crawltoll/vault/store"
	"github.com/crawltoll/vault/vaulttest"
	"github.com/crawltoll/vault/x/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db      vault.KVStore
	rt      *app.Router
	sigs    *vaulttest.CtxAuth
	signer  vault.Condition
	owners  []*wallet.Owner
	wallets wallet.Controller
	records Controller
}

func newTestEnv(t *testing.T, owners int) *testEnv {
	t.Helper()

	db := store.MemStore()
	migration.MustInitPkg(db, "wallet", "factory")

	entries := make([]*wallet.Owner, owners)
	for i := range entries {
		entries[i] = &wallet.Owner{Address: vaulttest.RandomAddr(t)}
	}

	rt := app.NewRouter()
	sigs := &vaulttest.CtxAuth{Key: "auth"}
	RegisterRoutes(rt, sigs)

	return &testEnv{
		db:      db,
		rt:      rt,
		sigs:    sigs,
		signer:  vaulttest.NewCondition(),
		owners:  entries,
		wallets: wallet.NewController(),
		records: NewController(),
	}
}

func (e *testEnv) ctx(now time.Time) vault.Context {
	ctx := vault.WithBlockTime(context.Background(), now)
	return e.sigs.SetConditions(ctx, e.signer)
}

func (e *testEnv) deploy(salt []byte, threshold uint32, timelock time.Duration) *DeployWalletMsg {
	return &DeployWalletMsg{
		Metadata:  &vault.Metadata{Schema: 1},
		Salt:      salt,
		Owners:    e.owners,
		Threshold: threshold,
		Timelock:  vault.AsUnixDuration(timelock),
	}
}

func TestDeployWallet(t *testing.T) {
	e := newTestEnv(t, 3)
	now := time.Now().UTC()
	msg := e.deploy([]byte("crawl-budget-1"), 2, time.Hour)

	hash, err := ConfigHash(msg.Owners, msg.Threshold, msg.Timelock)
	require.NoError(t, err)
	predicted := PredictAddress(hash, msg.Salt)

	res, err := e.rt.Deliver(e.ctx(now), e.db, &vaulttest.Tx{Msg: msg})
	require.NoError(t, err)
	assert.Equal(t, []byte(predicted), res.Data)

	w, err := e.wallets.GetWallet(e.db, predicted)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), w.Threshold)
	assert.Equal(t, vault.AsUnixDuration(time.Hour), w.Timelock)
	require.Len(t, w.Owners, 3)
	for _, o := range w.Owners {
		assert.True(t, o.Active)
		assert.Equal(t, vault.AsUnixTime(now), o.AddedAt)
	}

	rec, err := e.records.GetRecord(e.db, predicted)
	require.NoError(t, err)
	assert.Equal(t, hash, rec.ConfigHash)
	assert.Equal(t, msg.Salt, rec.Salt)
	assert.Equal(t, predicted, rec.Address)
	assert.Equal(t, vault.AsUnixTime(now), rec.CreatedAt)
}

func TestRedeploySameSaltRejected(t *testing.T) {
	e := newTestEnv(t, 2)
	now := time.Now().UTC()
	msg := e.deploy([]byte("salt"), 2, 0)

	_, err := e.rt.Deliver(e.ctx(now), e.db, &vaulttest.Tx{Msg: msg})
	require.NoError(t, err)

	_, err = e.rt.Deliver(e.ctx(now.Add(time.Minute)), e.db, &vaulttest.Tx{Msg: msg})
	assert.True(t, ErrAlreadyDeployed.Is(err), "unexpected error: %+v", err)
}

func TestDifferentSaltDifferentAddress(t *testing.T) {
	e := newTestEnv(t, 2)
	now := time.Now().UTC()

	first, err := e.rt.Deliver(e.ctx(now), e.db, &vaulttest.Tx{Msg: e.deploy([]byte("one"), 2, 0)})
	require.NoError(t, err)
	second, err := e.rt.Deliver(e.ctx(now), e.db, &vaulttest.Tx{Msg: e.deploy([]byte("two"), 2, 0)})
	require.NoError(t, err)
	assert.NotEqual(t, first.Data, second.Data)

	hash, err := ConfigHash(e.owners, 2, 0)
	require.NoError(t, err)
	recs, err := e.records.Deployments(e.db, hash)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	for _, addr := range [][]byte{first.Data, second.Data} {
		ok, err := e.records.IsDeployed(e.db, vault.Address(addr))
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := e.records.IsDeployed(e.db, vaulttest.RandomAddr(t))
	require.NoError(t, err)
	assert.False(t, ok)

	// Enumeration walks the registry in submission order.
	all, err := e.records.ListDeployed(e.db)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, vault.Address(first.Data), all[0].Address)
	assert.Equal(t, vault.Address(second.Data), all[1].Address)
}

func TestDeployRequiresSigner(t *testing.T) {
	e := newTestEnv(t, 2)
	ctx := vault.WithBlockTime(context.Background(), time.Now().UTC())

	_, err := e.rt.Deliver(ctx, e.db, &vaulttest.Tx{Msg: e.deploy([]byte("salt"), 2, 0)})
	assert.True(t, errors.ErrUnauthorized.Is(err), "unexpected error: %+v", err)
}

func TestPredictedAddressIsStable(t *testing.T) {
	e := newTestEnv(t, 3)

	first, err := ConfigHash(e.owners, 2, vault.AsUnixDuration(time.Hour))
	require.NoError(t, err)
	second, err := ConfigHash(e.owners, 2, vault.AsUnixDuration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, PredictAddress(first, []byte("s")), PredictAddress(second, []byte("s")))

	other, err := ConfigHash(e.owners, 3, vault.AsUnixDuration(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestVerifyDeployment(t *testing.T) {
	e := newTestEnv(t, 2)
	now := time.Now().UTC()

	res, err := e.rt.Deliver(e.ctx(now), e.db, &vaulttest.Tx{Msg: e.deploy([]byte("salt"), 2, time.Hour)})
	require.NoError(t, err)
	addr := vault.Address(res.Data)

	assert.NoError(t, e.records.Verify(e.db, addr, e.owners, 2, vault.AsUnixDuration(time.Hour)))

	err = e.records.Verify(e.db, addr, e.owners, 1, vault.AsUnixDuration(time.Hour))
	assert.True(t, errors.ErrState.Is(err), "unexpected error: %+v", err)

	err = e.records.Verify(e.db, vaulttest.RandomAddr(t), e.owners, 2, vault.AsUnixDuration(time.Hour))
	assert.True(t, errors.ErrNotFound.Is(err), "unexpected error: %+v", err)
}
