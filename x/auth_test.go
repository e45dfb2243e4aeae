package x_test

import (
	"context"
	"testing"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/vaulttest"
	"github.com/crawltoll/vault/x"
	"github.com/stretchr/testify/assert"
)

func TestAuth(t *testing.T) {
	a := vaulttest.NewCondition()
	b := vaulttest.NewCondition()
	c := vaulttest.NewCondition()

	ctx := context.Background()

	cases := map[string]struct {
		auth         x.Authenticator
		mainSigner   vault.Condition
		has          vault.Address
		notHave      vault.Address
		all          []vault.Address
		notAll       []vault.Address
		conditions   []vault.Condition
		notcondition []vault.Condition
	}{
		"empty authentication": {
			auth:         &vaulttest.Auth{},
			notHave:      b.Address(),
			notAll:       []vault.Address{b.Address()},
			notcondition: []vault.Condition{c},
		},
		"single signer": {
			auth:         &vaulttest.Auth{Signer: a},
			mainSigner:   a,
			has:          a.Address(),
			notHave:      b.Address(),
			all:          []vault.Address{a.Address()},
			notAll:       []vault.Address{a.Address(), b.Address()},
			conditions:   []vault.Condition{a},
			notcondition: []vault.Condition{a, b},
		},
		"multiple signers": {
			auth:       &vaulttest.Auth{Signers: []vault.Condition{a, b}},
			mainSigner: a,
			has:        b.Address(),
			notHave:    c.Address(),
			all:        []vault.Address{a.Address(), b.Address()},
			conditions: []vault.Condition{a, b},
		},
		"chained authenticators": {
			auth:       x.ChainAuth(&vaulttest.Auth{Signer: a}, &vaulttest.Auth{Signer: b}),
			mainSigner: a,
			has:        b.Address(),
			notHave:    c.Address(),
			all:        []vault.Address{a.Address(), b.Address()},
			conditions: []vault.Condition{a, b},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if tc.mainSigner == nil {
				assert.Nil(t, x.MainSigner(ctx, tc.auth))
			} else {
				assert.True(t, tc.mainSigner.Equals(x.MainSigner(ctx, tc.auth)))
			}

			if tc.has != nil {
				assert.True(t, tc.auth.HasAddress(ctx, tc.has))
			}
			assert.False(t, tc.auth.HasAddress(ctx, tc.notHave))

			if tc.all != nil {
				assert.True(t, x.HasAllAddresses(ctx, tc.auth, tc.all))
			}
			if tc.notAll != nil {
				assert.False(t, x.HasAllAddresses(ctx, tc.auth, tc.notAll))
			}

			if tc.conditions != nil {
				assert.True(t, x.HasAllConditions(ctx, tc.auth, tc.conditions))
			}
			if tc.notcondition != nil {
				assert.False(t, x.HasAllConditions(ctx, tc.auth, tc.notcondition))
			}
		})
	}
}

func TestHasNConditions(t *testing.T) {
	a := vaulttest.NewCondition()
	b := vaulttest.NewCondition()
	c := vaulttest.NewCondition()

	ctx := context.Background()
	auth := &vaulttest.Auth{Signers: []vault.Condition{a, b}}

	assert.True(t, x.HasNConditions(ctx, auth, []vault.Condition{a, b, c}, 2))
	assert.False(t, x.HasNConditions(ctx, auth, []vault.Condition{a, b, c}, 3))
	// Zero or less is always fulfilled.
	assert.True(t, x.HasNConditions(ctx, auth, nil, 0))
}
