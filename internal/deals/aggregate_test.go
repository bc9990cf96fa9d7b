package deals

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deal(client, security string, side Side, qty int64, price string) Deal {
	return Deal{
		Security: security,
		Client:   client,
		Side:     side,
		Quantity: qty,
		Price:    decimal.RequireFromString(price),
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func sorted(ps []NetPosition) []NetPosition {
	out := append([]NetPosition(nil), ps...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Client != out[j].Client {
			return out[i].Client < out[j].Client
		}
		return out[i].Security < out[j].Security
	})
	return out
}

func TestAggregateNetBuyScenario(t *testing.T) {
	got := Aggregate([]Deal{
		deal("ClientX", "SecA", SideBuy, 100, "10.0"),
		deal("ClientX", "SecA", SideSell, 40, "12.0"),
	})

	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, "ClientX", p.Client)
	assert.Equal(t, "SecA", p.Security)
	assert.Equal(t, ActionNetBuy, p.Action)
	assert.Equal(t, int64(60), p.NetQuantity)
	assertDecimal(t, "10", p.AveragePrice)
	assertDecimal(t, "520", p.NetValue)
}

func TestAggregateBalancedPairIsDropped(t *testing.T) {
	got := Aggregate([]Deal{
		deal("ClientY", "SecB", SideBuy, 50, "20.0"),
		deal("ClientY", "SecB", SideSell, 50, "22.0"),
	})
	assert.Empty(t, got)
}

func TestAggregateWeightsDominantLots(t *testing.T) {
	got := Aggregate([]Deal{
		deal("ClientZ", "SecC", SideBuy, 30, "5.0"),
		deal("ClientZ", "SecC", SideBuy, 70, "7.0"),
		deal("ClientZ", "SecC", SideSell, 20, "6.0"),
	})

	require.Len(t, got, 1)
	assert.Equal(t, ActionNetBuy, got[0].Action)
	assert.Equal(t, int64(80), got[0].NetQuantity)
	assertDecimal(t, "6.4", got[0].AveragePrice)
	assertDecimal(t, "520", got[0].NetValue)
}

func TestAggregateEmptyInput(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.Empty(t, Aggregate([]Deal{}))
}

func TestAggregateNetSell(t *testing.T) {
	got := Aggregate([]Deal{
		deal("FUND", "INFY (500209)", SideBuy, 10, "1500"),
		deal("FUND", "INFY (500209)", SideSell, 25, "1510"),
		deal("FUND", "INFY (500209)", SideSell, 15, "1490"),
	})

	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, ActionNetSell, p.Action)
	assert.Equal(t, int64(30), p.NetQuantity)
	// (25*1510 + 15*1490) / 40
	assertDecimal(t, "1502.5", p.AveragePrice)
	// (37750 + 22350) - 15000
	assertDecimal(t, "45100", p.NetValue)
}

func TestAggregateNonDominantPriceDoesNotMoveAverage(t *testing.T) {
	base := []Deal{
		deal("C", "S", SideBuy, 100, "10"),
		deal("C", "S", SideBuy, 50, "13"),
		deal("C", "S", SideSell, 30, "11"),
	}
	want := Aggregate(base)
	require.Len(t, want, 1)

	for _, price := range []string{"0.05", "11.5", "999.99"} {
		changed := append([]Deal(nil), base...)
		changed[2].Price = decimal.RequireFromString(price)
		got := Aggregate(changed)
		require.Len(t, got, 1)
		assert.True(t, want[0].AveragePrice.Equal(got[0].AveragePrice), "sell price %s moved the buy average", price)
	}
}

func TestAggregateKeepsPairsSeparate(t *testing.T) {
	got := sorted(Aggregate([]Deal{
		deal("A", "X", SideBuy, 10, "1"),
		deal("A", "Y", SideSell, 20, "2"),
		deal("B", "X", SideSell, 5, "3"),
		deal("B", "X", SideBuy, 5, "3"),
	}))

	require.Len(t, got, 2)
	assert.Equal(t, Key{"A", "X"}, Key{got[0].Client, got[0].Security})
	assert.Equal(t, ActionNetBuy, got[0].Action)
	assert.Equal(t, Key{"A", "Y"}, Key{got[1].Client, got[1].Security})
	assert.Equal(t, ActionNetSell, got[1].Action)
}

func TestAggregateSkipsInvalidDeals(t *testing.T) {
	got := Aggregate([]Deal{
		deal("C", "S", SideBuy, 100, "10"),
		deal("C", "S", SideSell, 0, "10"),
		deal("C", "S", SideSell, -50, "10"),
		deal("C", "S", SideSell, 50, "0"),
		deal("C", "S", SideUnknown, 50, "10"),
		deal("", "S", SideSell, 50, "10"),
		deal("C", " ", SideSell, 50, "10"),
	})

	require.Len(t, got, 1)
	assert.Equal(t, ActionNetBuy, got[0].Action)
	assert.Equal(t, int64(100), got[0].NetQuantity)
	assertDecimal(t, "1000", got[0].NetValue)
}

func TestAggregateOrderIndependent(t *testing.T) {
	input := randomDeals(rand.New(rand.NewSource(7)), 400)
	want := sorted(Aggregate(input))

	r := rand.New(rand.NewSource(11))
	for i := 0; i < 5; i++ {
		shuffled := append([]Deal(nil), input...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assertSamePositions(t, want, sorted(Aggregate(shuffled)))
	}
}

func TestAggregateParallelMatchesSequential(t *testing.T) {
	input := randomDeals(rand.New(rand.NewSource(3)), 1000)
	want := sorted(Aggregate(input))

	for _, workers := range []int{0, 1, 2, 4, 7} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			got, err := AggregateParallel(context.Background(), input, workers)
			require.NoError(t, err)
			assertSamePositions(t, want, sorted(got))
		})
	}
}

func TestAggregateParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AggregateParallel(ctx, randomDeals(rand.New(rand.NewSource(1)), 50), 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSignCorrectness(t *testing.T) {
	input := randomDeals(rand.New(rand.NewSource(5)), 300)
	buys := map[Key]int64{}
	sells := map[Key]int64{}
	for _, d := range input {
		if d.Side == SideBuy {
			buys[KeyOf(d)] += d.Quantity
		} else {
			sells[KeyOf(d)] += d.Quantity
		}
	}

	for _, p := range Aggregate(input) {
		k := Key{p.Client, p.Security}
		switch p.Action {
		case ActionNetBuy:
			assert.Greater(t, buys[k], sells[k])
			assert.Equal(t, buys[k]-sells[k], p.NetQuantity)
		case ActionNetSell:
			assert.Greater(t, sells[k], buys[k])
			assert.Equal(t, sells[k]-buys[k], p.NetQuantity)
		default:
			t.Fatalf("unexpected action %q", p.Action)
		}
		assert.Positive(t, p.NetQuantity)
	}
}

func randomDeals(r *rand.Rand, n int) []Deal {
	clients := []string{"ALPHA FUND", "BETA LLP", "GAMMA TRADING", "DELTA"}
	securities := []string{"RELIANCE (500325)", "TCS (532540)", "INFY (500209)"}
	out := make([]Deal, 0, n)
	for i := 0; i < n; i++ {
		side := SideBuy
		if r.Intn(2) == 0 {
			side = SideSell
		}
		out = append(out, Deal{
			Client:   clients[r.Intn(len(clients))],
			Security: securities[r.Intn(len(securities))],
			Side:     side,
			Quantity: int64(1 + r.Intn(5000)),
			Price:    decimal.New(int64(100+r.Intn(90000)), -2),
		})
	}
	return out
}

func assertSamePositions(t *testing.T, want, got []NetPosition) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Client, got[i].Client)
		assert.Equal(t, want[i].Security, got[i].Security)
		assert.Equal(t, want[i].Action, got[i].Action)
		assert.Equal(t, want[i].NetQuantity, got[i].NetQuantity)
		assert.True(t, want[i].AveragePrice.Sub(got[i].AveragePrice).Abs().LessThan(decimal.New(1, -9)))
		assert.True(t, want[i].NetValue.Equal(got[i].NetValue))
	}
}
