package vault

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionParse(t *testing.T) {
	c := NewCondition("wallet", "self", []byte{1, 2, 3, 4})
	ext, typ, data, err := c.Parse()
	require.NoError(t, err)
	assert.Equal(t, "wallet", ext)
	assert.Equal(t, "self", typ)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
	assert.NoError(t, c.Validate())

	// Data containing a newline must still parse.
	c = NewCondition("wallet", "deploy", []byte{0x20, 0x0a, 0x07})
	_, _, data, err = c.Parse()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x20, 0x0a, 0x07}, data)
}

func TestConditionInvalid(t *testing.T) {
	cases := map[string]Condition{
		"empty":             {},
		"no separators":     Condition("walletselfdata"),
		"extension too big": NewCondition("extensiontoolong", "self", []byte("data")),
		"no data":           Condition("wallet/self/"),
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, c.Validate())
			_, _, _, err := c.Parse()
			assert.Error(t, err)
		})
	}
}

func TestConditionAddress(t *testing.T) {
	a := NewCondition("wallet", "self", []byte("first")).Address()
	require.NoError(t, a.Validate())
	assert.Len(t, []byte(a), AddressLength)

	// The derivation is deterministic and collision free for distinct
	// inputs.
	same := NewCondition("wallet", "self", []byte("first")).Address()
	assert.True(t, a.Equals(same))
	other := NewCondition("wallet", "self", []byte("second")).Address()
	assert.False(t, a.Equals(other))
}

func TestAddressClone(t *testing.T) {
	a := NewCondition("wallet", "self", []byte("data")).Address()
	cpy := a.Clone()
	assert.True(t, a.Equals(cpy))
	cpy[0]++
	assert.False(t, a.Equals(cpy))

	var nilAddr Address
	assert.Nil(t, nilAddr.Clone())
}

func TestParseAddress(t *testing.T) {
	addr := NewCondition("wallet", "self", []byte("data")).Address()

	fromHex, err := ParseAddress(addr.String())
	require.NoError(t, err)
	assert.True(t, addr.Equals(fromHex))

	fromCond, err := ParseAddress("cond:wallet/self/64617461")
	require.NoError(t, err)
	assert.True(t, addr.Equals(fromCond))

	bech, err := addr.Bech32String("toll")
	require.NoError(t, err)
	fromBech, err := ParseAddress("bech32:" + bech)
	require.NoError(t, err)
	assert.True(t, addr.Equals(fromBech))

	_, err = ParseAddress("unknown:abcd")
	assert.Error(t, err)
	_, err = ParseAddress("abcd")
	assert.Error(t, err, "wrong length hex must not validate")
}

func TestAddressJSON(t *testing.T) {
	addr := NewCondition("wallet", "self", []byte("data")).Address()

	raw, err := json.Marshal(addr)
	require.NoError(t, err)

	var loaded Address
	require.NoError(t, json.Unmarshal(raw, &loaded))
	assert.True(t, addr.Equals(loaded))

	require.NoError(t, json.Unmarshal([]byte(`""`), &loaded))
	assert.Nil(t, loaded)
}

func TestConditionJSON(t *testing.T) {
	c := NewCondition("wallet", "deploy", []byte{0xca, 0xfe})

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `"wallet/deploy/CAFE"`, string(raw))

	var loaded Condition
	require.NoError(t, json.Unmarshal(raw, &loaded))
	assert.True(t, c.Equals(loaded))
}
