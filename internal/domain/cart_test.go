package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sumOfLines(c *Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func TestEffectivePrice_UsesDiscountWhenSet(t *testing.T) {
	p := Product{Price: dec("100"), DiscountPrice: dec("80")}
	assert.True(t, dec("80").Equal(p.EffectivePrice()))

	p.DiscountPrice = decimal.Zero
	assert.True(t, dec("100").Equal(p.EffectivePrice()))
}

func TestPrimaryImage_EmptyList(t *testing.T) {
	assert.Equal(t, "", Product{}.PrimaryImage())
	assert.Equal(t, "a.png", Product{Images: []string{"a.png", "b.png"}}.PrimaryImage())
}

func TestCart_DiscountScenario(t *testing.T) {
	now := time.Now()
	p := Product{ID: "p", Name: "Lamp", Price: dec("100"), DiscountPrice: dec("80"), Stock: 5}
	cart := EmptyCart("u1")

	cart.AddItem(p, 2, now)
	require.Len(t, cart.Items, 1)
	assert.True(t, dec("80").Equal(cart.Items[0].Price))
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.True(t, dec("160").Equal(cart.TotalPrice))

	cart.AddItem(p, 1, now)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, dec("240").Equal(cart.TotalPrice))

	removed := cart.RemoveItem("p", now)
	assert.True(t, removed)
	assert.Empty(t, cart.Items)
	assert.NotNil(t, cart.Items)
	assert.True(t, decimal.Zero.Equal(cart.TotalPrice))
}

func TestCart_SnapshotPriceNotRefreshed(t *testing.T) {
	now := time.Now()
	p := Product{ID: "p", Price: dec("10")}
	cart := EmptyCart("u1")
	cart.AddItem(p, 1, now)

	p.Price = dec("99")
	cart.AddItem(p, 2, now)

	assert.True(t, dec("10").Equal(cart.Items[0].Price))
	assert.True(t, dec("30").Equal(cart.TotalPrice))
	assert.True(t, sumOfLines(cart).Equal(cart.TotalPrice))
}

func TestCart_RemoveAbsentIsNoop(t *testing.T) {
	now := time.Now()
	cart := EmptyCart("u1")
	cart.AddItem(Product{ID: "a", Price: dec("2.50")}, 2, now)

	removed := cart.RemoveItem("missing", now)
	assert.False(t, removed)
	assert.Len(t, cart.Items, 1)
	assert.True(t, dec("5").Equal(cart.TotalPrice))
}

func TestCart_TotalMatchesLinesAfterMixedSequence(t *testing.T) {
	now := time.Now()
	a := Product{ID: "a", Price: dec("19.99")}
	b := Product{ID: "b", Price: dec("5.00"), DiscountPrice: dec("4.25")}
	c := Product{ID: "c", Price: dec("0.10")}
	cart := EmptyCart("u1")

	steps := []func(){
		func() { cart.AddItem(a, 1, now) },
		func() { cart.AddItem(b, 3, now) },
		func() { cart.AddItem(c, 7, now) },
		func() { cart.AddItem(a, 2, now) },
		func() { cart.RemoveItem("b", now) },
		func() { cart.AddItem(b, 1, now) },
		func() { cart.RemoveItem("zzz", now) },
	}
	for _, step := range steps {
		step()
		assert.True(t, sumOfLines(cart).Equal(cart.TotalPrice), "total drifted: %s vs %s", cart.TotalPrice, sumOfLines(cart))
	}
	assert.Equal(t, []string{"a", "c", "b"}, []string{cart.Items[0].ProductID, cart.Items[1].ProductID, cart.Items[2].ProductID})
}

func TestCart_QuantityOf(t *testing.T) {
	cart := EmptyCart("u1")
	cart.AddItem(Product{ID: "a", Price: dec("1")}, 4, time.Now())
	assert.Equal(t, 4, cart.QuantityOf("a"))
	assert.Equal(t, 0, cart.QuantityOf("b"))
}

func TestCart_CloneIsIndependent(t *testing.T) {
	cart := EmptyCart("u1")
	cart.AddItem(Product{ID: "a", Price: dec("1")}, 1, time.Now())

	cp := cart.Clone()
	cp.AddItem(Product{ID: "a", Price: dec("1")}, 5, time.Now())

	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, 6, cp.Items[0].Quantity)
}
