package money_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openalpha/predictionx/internal/money"
)

func mustAmount(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := money.Parse(s)
	require.NoError(t, err)
	return a
}

func TestParseRejectsInvalidLiteral(t *testing.T) {
	_, err := money.Parse("not-a-number")
	require.Error(t, err)
}

func TestArithmeticOnExactDecimalGrid(t *testing.T) {
	a := mustAmount(t, "0.1")
	b := mustAmount(t, "0.2")
	require.True(t, a.Add(b).Equal(mustAmount(t, "0.3")))
}

func TestMulComputesCost(t *testing.T) {
	price := mustAmount(t, "0.50")
	qty := mustAmount(t, "10")
	require.True(t, price.Mul(qty).Equal(mustAmount(t, "5.00")))
}

func TestComparisons(t *testing.T) {
	five := mustAmount(t, "5")
	ten := mustAmount(t, "10")
	require.True(t, five.LT(ten))
	require.True(t, ten.GT(five))
	require.True(t, five.LTE(five))
	require.True(t, five.GTE(five))
}

func TestMinReturnsSmaller(t *testing.T) {
	five := mustAmount(t, "5")
	ten := mustAmount(t, "10")
	require.True(t, money.Min(five, ten).Equal(five))
	require.True(t, money.Min(ten, five).Equal(five))
}

func TestIsZeroPositiveNegative(t *testing.T) {
	require.True(t, money.Zero.IsZero())
	require.True(t, mustAmount(t, "1").IsPositive())
	require.True(t, mustAmount(t, "-1").IsNegative())
}

func TestJSONRoundTripIsStringEncoded(t *testing.T) {
	a := mustAmount(t, "150.0000")
	bz, err := json.Marshal(a)
	require.NoError(t, err)
	require.Equal(t, `"150.000000000000000000"`, string(bz))

	var out money.Amount
	require.NoError(t, json.Unmarshal(bz, &out))
	require.True(t, out.Equal(a))
}

func TestScanFromStringAndBytes(t *testing.T) {
	var a money.Amount
	require.NoError(t, a.Scan("12.50"))
	require.True(t, a.Equal(mustAmount(t, "12.50")))

	var b money.Amount
	require.NoError(t, b.Scan([]byte("12.50")))
	require.True(t, b.Equal(mustAmount(t, "12.50")))

	var n money.Amount
	require.NoError(t, n.Scan(nil))
	require.True(t, n.IsZero())
}
