package std

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/store"
	"github.com/crawltoll/vault/vaulttest"
	"github.com/crawltoll/vault/x/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack(t *testing.T) {
	db := store.MemStore()

	alice := vaulttest.NewCondition()
	bob := vaulttest.NewCondition()
	walletAddr := vaulttest.RandomAddr(t)

	genesis := fmt.Sprintf(`{
		"wallet": [
			{
				"address": "%s",
				"owners": [
					{"address": "%s", "role": "operator"},
					{"address": "%s", "role": "finance"}
				],
				"threshold": 2,
				"timelock": "0s"
			}
		]
	}`, walletAddr, alice.Address(), bob.Address())

	var opts vault.Options
	require.NoError(t, json.Unmarshal([]byte(genesis), &opts))
	require.NoError(t, Initialize(db, opts))

	sigs := &vaulttest.CtxAuth{Key: "auth"}
	stack := Stack(sigs, nil)

	ctx := vault.WithBlockTime(context.Background(), time.Now().UTC())

	submit := &wallet.SubmitTransactionMsg{
		Metadata:    &vault.Metadata{Schema: 1},
		Wallet:      walletAddr,
		Destination: vaulttest.RandomAddr(t),
		Payload:     []byte("crawl-receipt"),
	}
	res, err := stack.Deliver(sigs.SetConditions(ctx, alice), db, &vaulttest.Tx{Msg: submit})
	require.NoError(t, err)

	// Both the handler tag and the ActionTagger path tag are present.
	var actions []string
	for _, tag := range res.Tags {
		if string(tag.Key) == "action" {
			actions = append(actions, string(tag.Value))
		}
	}
	assert.Contains(t, actions, "submit")
	assert.Contains(t, actions, "wallet/submit_transaction")

	confirm := &wallet.ConfirmTransactionMsg{
		Metadata:      &vault.Metadata{Schema: 1},
		TransactionID: res.Data,
	}
	_, err = stack.Deliver(sigs.SetConditions(ctx, bob), db, &vaulttest.Tx{Msg: confirm})
	require.NoError(t, err)

	tx, err := wallet.NewController().GetTransaction(db, res.Data)
	require.NoError(t, err)
	assert.True(t, tx.Executed)

	// An unauthorized submission is rejected and, thanks to the savepoint,
	// leaves no trace in the ledger.
	outsider := vaulttest.NewCondition()
	_, err = stack.Deliver(sigs.SetConditions(ctx, outsider), db, &vaulttest.Tx{Msg: submit})
	assert.Error(t, err)
}

func TestQueryRegistry(t *testing.T) {
	db := store.MemStore()

	alice := vaulttest.NewCondition()
	walletAddr := vaulttest.RandomAddr(t)

	genesis := fmt.Sprintf(`{
		"wallet": [
			{
				"address": "%s",
				"owners": [{"address": "%s", "role": "operator"}],
				"threshold": 1,
				"timelock": "0s"
			}
		]
	}`, walletAddr, alice.Address())

	var opts vault.Options
	require.NoError(t, json.Unmarshal([]byte(genesis), &opts))
	require.NoError(t, Initialize(db, opts))

	sigs := &vaulttest.CtxAuth{Key: "auth"}
	stack := Stack(sigs, nil)
	ctx := vault.WithBlockTime(context.Background(), time.Now().UTC())

	submit := &wallet.SubmitTransactionMsg{
		Metadata:    &vault.Metadata{Schema: 1},
		Wallet:      walletAddr,
		Destination: vaulttest.RandomAddr(t),
		Payload:     []byte("crawl-receipt"),
	}
	res, err := stack.Deliver(sigs.SetConditions(ctx, alice), db, &vaulttest.Tx{Msg: submit})
	require.NoError(t, err)

	qr := vault.NewQueryRouter()
	RegisterQuery(qr)

	// A wallet can be fetched by its address.
	h := qr.Handler("/wallets")
	require.NotNil(t, h)
	models, err := h.Query(db, vault.KeyQueryMod, walletAddr)
	require.NoError(t, err)
	require.Len(t, models, 1)
	var w wallet.Wallet
	require.NoError(t, w.Unmarshal(models[0].Value))
	assert.Equal(t, uint32(1), w.Threshold)
	require.Len(t, w.Owners, 1)
	assert.Equal(t, alice.Address(), w.Owners[0].Address)

	// The whole ledger is available under the prefix query.
	h = qr.Handler("/wallettxs")
	require.NotNil(t, h)
	models, err = h.Query(db, vault.PrefixQueryMod, nil)
	require.NoError(t, err)
	require.Len(t, models, 1)
	var tx wallet.Transaction
	require.NoError(t, tx.Unmarshal(models[0].Value))
	assert.Equal(t, walletAddr, tx.Wallet)
	assert.True(t, tx.Executed)
	// The database key carries the transaction ID.
	assert.Equal(t, res.Data, models[0].Key[len(models[0].Key)-8:])

	// The factory registry is wired as well.
	assert.NotNil(t, qr.Handler("/deployments"))
	assert.Nil(t, qr.Handler("/unknown"))
}

func TestCommitKVStore(t *testing.T) {
	kv, err := CommitKVStore("")
	require.NoError(t, err)
	require.NoError(t, kv.LoadLatestVersion())

	cache := kv.CacheWrap()
	require.NoError(t, cache.Set([]byte("k"), []byte("v")))
	require.NoError(t, cache.Write())

	id, err := kv.Commit()
	require.NoError(t, err)
	assert.NotEmpty(t, id.Hash)
}
