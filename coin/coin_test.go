package coin

import (
	"testing"

	"github.com/crawltoll/vault/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinValidation(t *testing.T) {
	cases := map[string]struct {
		coin    Coin
		wantErr *errors.Error
	}{
		"valid coin": {
			coin: NewCoin(42, 0, "TOLL"),
		},
		"valid negative coin": {
			coin: NewCoin(-42, -1, "TOLL"),
		},
		"invalid ticker": {
			coin:    NewCoin(1, 0, "this-is-not-a-ticker"),
			wantErr: errors.ErrCurrency,
		},
		"mismatched sign": {
			coin:    NewCoin(5, -5, "TOLL"),
			wantErr: errors.ErrState,
		},
		"whole out of range": {
			coin:    NewCoin(MaxInt+1, 0, "TOLL"),
			wantErr: errors.ErrOverflow,
		},
		"fractional out of range": {
			coin:    NewCoin(0, FracUnit, "TOLL"),
			wantErr: errors.ErrOverflow,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.coin.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)
			}
		})
	}
}

func TestCoinAdd(t *testing.T) {
	sum, err := NewCoin(1, 900000000, "TOLL").Add(NewCoin(1, 200000000, "TOLL"))
	require.NoError(t, err)
	assert.True(t, sum.Equals(NewCoin(3, 100000000, "TOLL")))

	// Zero value coins without a ticker are neutral.
	sum, err = Coin{}.Add(NewCoin(2, 0, "TOLL"))
	require.NoError(t, err)
	assert.True(t, sum.Equals(NewCoin(2, 0, "TOLL")))

	_, err = NewCoin(1, 0, "TOLL").Add(NewCoin(1, 0, "WEB"))
	assert.True(t, errors.ErrCurrency.Is(err), "unexpected error: %+v", err)

	_, err = NewCoin(MaxInt, 0, "TOLL").Add(NewCoin(1, 0, "TOLL"))
	assert.True(t, errors.ErrOverflow.Is(err), "unexpected error: %+v", err)
}

func TestCoinSubtract(t *testing.T) {
	diff, err := NewCoin(3, 0, "TOLL").Subtract(NewCoin(1, 100000000, "TOLL"))
	require.NoError(t, err)
	assert.True(t, diff.Equals(NewCoin(1, 900000000, "TOLL")))

	diff, err = NewCoin(1, 0, "TOLL").Subtract(NewCoin(2, 0, "TOLL"))
	require.NoError(t, err)
	assert.False(t, diff.IsNonNegative())
}

func TestCoinMultiply(t *testing.T) {
	got, err := NewCoin(2, 500000000, "TOLL").Multiply(3)
	require.NoError(t, err)
	assert.True(t, got.Equals(NewCoin(7, 500000000, "TOLL")))

	got, err = NewCoin(123, 456, "TOLL").Multiply(0)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = NewCoin(MaxInt, 0, "TOLL").Multiply(MaxInt)
	assert.True(t, errors.ErrOverflow.Is(err), "unexpected error: %+v", err)
}

func TestCoinCompare(t *testing.T) {
	assert.Equal(t, 1, NewCoin(2, 0, "TOLL").Compare(NewCoin(1, 999999999, "TOLL")))
	assert.Equal(t, -1, NewCoin(1, 0, "TOLL").Compare(NewCoin(1, 1, "TOLL")))
	assert.Equal(t, 0, NewCoin(1, 1, "TOLL").Compare(NewCoin(1, 1, "TOLL")))

	assert.True(t, NewCoin(1, 1, "TOLL").IsGTE(NewCoin(1, 1, "TOLL")))
	assert.False(t, NewCoin(1, 1, "TOLL").IsGTE(NewCoin(1, 1, "WEB")))
}

func TestParseHumanFormat(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    Coin
		wantErr bool
	}{
		"whole only": {
			raw:  "4 TOLL",
			want: NewCoin(4, 0, "TOLL"),
		},
		"with fractional": {
			raw:  "1.25 TOLL",
			want: NewCoin(1, 250000000, "TOLL"),
		},
		"negative": {
			raw:  "-2.5 TOLL",
			want: NewCoin(-2, -500000000, "TOLL"),
		},
		"missing ticker": {
			raw:     "123",
			wantErr: true,
		},
		"garbage": {
			raw:     "many coins",
			wantErr: true,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := ParseHumanFormat(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equals(tc.want), "got %s", got)
		})
	}
}

func TestCoinString(t *testing.T) {
	assert.Equal(t, "1.25 TOLL", NewCoin(1, 250000000, "TOLL").String())
	assert.Equal(t, "0", Coin{}.String())
}
