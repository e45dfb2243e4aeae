package wallet

import (
	"testing"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/migration"
	"github.com/crawltoll/vault/store"
	"github.com/crawltoll/vault/vaulttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletValidate(t *testing.T) {
	alice := vaulttest.RandomAddr(t)
	bob := vaulttest.RandomAddr(t)

	cases := map[string]struct {
		wallet  Wallet
		wantErr *errors.Error
	}{
		"valid wallet": {
			wallet: Wallet{
				Metadata: &vault.Metadata{Schema: 1},
				Owners: []*Owner{
					{Address: alice, Active: true},
					{Address: bob, Active: true},
				},
				Threshold: 2,
			},
		},
		"missing metadata": {
			wallet: Wallet{
				Owners:    []*Owner{{Address: alice, Active: true}},
				Threshold: 1,
			},
			wantErr: errors.ErrMetadata,
		},
		"zero threshold": {
			wallet: Wallet{
				Metadata:  &vault.Metadata{Schema: 1},
				Owners:    []*Owner{{Address: alice, Active: true}},
				Threshold: 0,
			},
			wantErr: errors.ErrInput,
		},
		"no owners": {
			wallet: Wallet{
				Metadata:  &vault.Metadata{Schema: 1},
				Threshold: 1,
			},
			wantErr: errors.ErrEmpty,
		},
		"duplicate owner": {
			wallet: Wallet{
				Metadata: &vault.Metadata{Schema: 1},
				Owners: []*Owner{
					{Address: alice, Active: true},
					{Address: alice, Active: true},
				},
				Threshold: 1,
			},
			wantErr: errors.ErrDuplicate,
		},
		"threshold above active owners": {
			wallet: Wallet{
				Metadata: &vault.Metadata{Schema: 1},
				Owners: []*Owner{
					{Address: alice, Active: true},
					{Address: bob, Active: false},
				},
				Threshold: 2,
			},
			wantErr: ErrThresholdViolation,
		},
		"negative timelock": {
			wallet: Wallet{
				Metadata:  &vault.Metadata{Schema: 1},
				Owners:    []*Owner{{Address: alice, Active: true}},
				Threshold: 1,
				Timelock:  -1,
			},
			wantErr: errors.ErrState,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.wallet.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)
			}
		})
	}
}

func TestSubmitTransactionMsgValidate(t *testing.T) {
	walletAddr := vaulttest.RandomAddr(t)
	dest := vaulttest.RandomAddr(t)

	cases := map[string]struct {
		msg     SubmitTransactionMsg
		wantErr *errors.Error
	}{
		"payload only": {
			msg: SubmitTransactionMsg{
				Metadata:    &vault.Metadata{Schema: 1},
				Wallet:      walletAddr,
				Destination: dest,
				Payload:     []byte("crawl-receipt"),
			},
		},
		"no value and no payload": {
			msg: SubmitTransactionMsg{
				Metadata:    &vault.Metadata{Schema: 1},
				Wallet:      walletAddr,
				Destination: dest,
			},
			wantErr: errors.ErrEmpty,
		},
		"invalid destination": {
			msg: SubmitTransactionMsg{
				Metadata:    &vault.Metadata{Schema: 1},
				Wallet:      walletAddr,
				Destination: []byte("too-short"),
				Payload:     []byte("x"),
			},
			wantErr: errors.ErrInput,
		},
		"missing metadata": {
			msg: SubmitTransactionMsg{
				Wallet:      walletAddr,
				Destination: dest,
				Payload:     []byte("x"),
			},
			wantErr: errors.ErrMetadata,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)
			}
		})
	}
}

func TestGovernancePayloadValidate(t *testing.T) {
	walletAddr := vaulttest.RandomAddr(t)
	addr := vaulttest.RandomAddr(t)

	add := &AddOwnerMsg{
		Metadata: &vault.Metadata{Schema: 1},
		Wallet:   walletAddr,
		Address:  addr,
	}
	remove := &RemoveOwnerMsg{
		Metadata: &vault.Metadata{Schema: 1},
		Wallet:   walletAddr,
		Address:  addr,
	}

	assert.NoError(t, (&GovernancePayload{AddOwner: add}).Validate())
	assert.NoError(t, (&GovernancePayload{RemoveOwner: remove}).Validate())

	err := (&GovernancePayload{}).Validate()
	assert.True(t, errors.ErrEmpty.Is(err), "unexpected error: %+v", err)

	err = (&GovernancePayload{AddOwner: add, RemoveOwner: remove}).Validate()
	assert.True(t, errors.ErrInput.Is(err), "unexpected error: %+v", err)
}

func TestTransactionBucketIndexByWallet(t *testing.T) {
	db := store.MemStore()
	migration.MustInitPkg(db, "wallet")

	walletA := vaulttest.RandomAddr(t)
	walletB := vaulttest.RandomAddr(t)
	txs := NewTransactionBucket()

	for i, w := range []vault.Address{walletA, walletA, walletB} {
		tx := &Transaction{
			Metadata:    &vault.Metadata{Schema: 1},
			Wallet:      w,
			Destination: vaulttest.RandomAddr(t),
			Payload:     []byte{byte(i)},
			SubmittedAt: 1000,
		}
		_, err := txs.Put(db, nil, tx)
		require.NoError(t, err)
	}

	var entries []*Transaction
	keys, err := txs.ByIndex(db, "wallet", walletA, &entries)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Len(t, keys, 2)
	for _, e := range entries {
		assert.Equal(t, walletA, e.Wallet)
	}
}

func TestTransactionSerialization(t *testing.T) {
	tx := &Transaction{
		Metadata:           &vault.Metadata{Schema: 1},
		Wallet:             vaulttest.RandomAddr(t),
		Destination:        vaulttest.RandomAddr(t),
		Payload:            []byte("payload"),
		Description:        "monthly crawl budget",
		Emergency:          true,
		SubmittedAt:        1700000000,
		ThresholdReachedAt: 1700000600,
		Confirmations: []vault.Address{
			vaulttest.RandomAddr(t),
			vaulttest.RandomAddr(t),
		},
		Executed: true,
	}

	raw, err := tx.Marshal()
	require.NoError(t, err)

	var loaded Transaction
	require.NoError(t, loaded.Unmarshal(raw))
	assert.Equal(t, tx.Wallet, loaded.Wallet)
	assert.Equal(t, tx.Description, loaded.Description)
	assert.Equal(t, tx.Confirmations, loaded.Confirmations)
	assert.True(t, loaded.Emergency)
	assert.True(t, loaded.Executed)
	assert.Equal(t, tx.ThresholdReachedAt, loaded.ThresholdReachedAt)
}
