package vault

import (
	"fmt"
	"testing"

	"github.com/crawltoll/vault/errors"
	"github.com/stretchr/testify/assert"
	"github.com/tendermint/tendermint/libs/common"
)

func TestDeliverResultToABCI(t *testing.T) {
	res := DeliverResult{
		Data:    []byte{1, 3, 4},
		Log:     "got it",
		Tags:    []common.KVPair{{Key: []byte("action"), Value: []byte("submit")}},
		GasUsed: 7,
	}
	out := res.ToABCI()
	assert.EqualValues(t, res.Data, out.Data)
	assert.Equal(t, res.Log, out.Log)
	assert.Equal(t, res.Tags, out.Tags)
	assert.Equal(t, int64(7), out.GasUsed)
}

func TestCheckResultToABCI(t *testing.T) {
	res := NewCheck(12345, "aok")
	out := res.ToABCI()
	assert.Equal(t, "aok", out.Log)
	assert.Equal(t, int64(12345), out.GasWanted)
	assert.Empty(t, out.Data)
}

func TestDeliverOrError(t *testing.T) {
	out := DeliverOrError(&DeliverResult{Data: []byte("ok")}, nil, false)
	assert.Equal(t, errors.SuccessABCICode, int(out.Code))
	assert.EqualValues(t, []byte("ok"), out.Data)

	out = DeliverOrError(nil, errors.Wrap(errors.ErrUnauthorized, "no signer"), false)
	assert.Equal(t, errors.ErrUnauthorized.ABCICode(), out.Code)
	assert.Contains(t, out.Log, "cannot deliver tx")
	assert.Contains(t, out.Log, "no signer")
}

func TestCheckOrError(t *testing.T) {
	out := CheckOrError(NewCheck(55, ""), nil, false)
	assert.Equal(t, errors.SuccessABCICode, int(out.Code))
	assert.Equal(t, int64(55), out.GasWanted)

	out = CheckOrError(nil, errors.Wrap(errors.ErrNotFound, "wallet"), false)
	assert.Equal(t, errors.ErrNotFound.ABCICode(), out.Code)
	assert.Contains(t, out.Log, "cannot check tx")
}

func TestInternalErrorIsHidden(t *testing.T) {
	err := fmt.Errorf("secret database path")

	out := DeliverTxError(err, false)
	assert.Equal(t, uint32(1), out.Code)
	assert.NotContains(t, out.Log, "secret")

	// In debug mode the full message is exposed.
	dbg := DeliverTxError(err, true)
	assert.Contains(t, dbg.Log, "secret database path")
}
