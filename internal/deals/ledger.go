package deals

import "github.com/shopspring/decimal"

// Key identifies one client's activity in one security
type Key struct {
	Client   string
	Security string
}

// KeyOf returns the ledger key a deal folds into
func KeyOf(d Deal) Key {
	return Key{Client: d.Client, Security: d.Security}
}

// Lot is a single (quantity, price) observation kept for averaging
type Lot struct {
	Quantity int64
	Price    decimal.Decimal
}

// Ledger accumulates every deal of one client in one security.
// It lives only for the duration of an aggregation call.
type Ledger struct {
	Key          Key
	BuyQuantity  int64           // Total quantity bought
	BuyValue     decimal.Decimal // Σ qty × price over buys
	SellQuantity int64           // Total quantity sold
	SellValue    decimal.Decimal // Σ qty × price over sells
	BuyLots      []Lot
	SellLots     []Lot
}

// NewLedger returns an empty ledger for key
func NewLedger(key Key) *Ledger {
	return &Ledger{
		Key:       key,
		BuyValue:  decimal.Zero,
		SellValue: decimal.Zero,
	}
}

// Add folds one deal into the matching side. Deals with an unknown
// side are ignored so they cannot corrupt either side.
func (l *Ledger) Add(d Deal) {
	lot := Lot{Quantity: d.Quantity, Price: d.Price}
	switch d.Side {
	case SideBuy:
		l.BuyQuantity += d.Quantity
		l.BuyValue = l.BuyValue.Add(d.Value())
		l.BuyLots = append(l.BuyLots, lot)
	case SideSell:
		l.SellQuantity += d.Quantity
		l.SellValue = l.SellValue.Add(d.Value())
		l.SellLots = append(l.SellLots, lot)
	}
}

// Merge adds other's totals and lots into l
func (l *Ledger) Merge(other *Ledger) {
	if other == nil {
		return
	}
	l.BuyQuantity += other.BuyQuantity
	l.BuyValue = l.BuyValue.Add(other.BuyValue)
	l.SellQuantity += other.SellQuantity
	l.SellValue = l.SellValue.Add(other.SellValue)
	l.BuyLots = append(l.BuyLots, other.BuyLots...)
	l.SellLots = append(l.SellLots, other.SellLots...)
}

// Net is buy quantity minus sell quantity
func (l *Ledger) Net() int64 {
	return l.BuyQuantity - l.SellQuantity
}

// Position converts the ledger into its net position.
// A balanced ledger has no position and returns false.
func (l *Ledger) Position() (NetPosition, bool) {
	net := l.Net()
	if net == 0 {
		return NetPosition{}, false
	}

	pos := NetPosition{
		Client:   l.Key.Client,
		Security: l.Key.Security,
	}
	if net > 0 {
		pos.Action = ActionNetBuy
		pos.NetQuantity = net
		pos.AveragePrice = WeightedAverage(l.BuyLots)
		pos.NetValue = l.BuyValue.Sub(l.SellValue)
	} else {
		pos.Action = ActionNetSell
		pos.NetQuantity = -net
		pos.AveragePrice = WeightedAverage(l.SellLots)
		pos.NetValue = l.SellValue.Sub(l.BuyValue)
	}
	return pos, true
}

// WeightedAverage is Σ(q·p)/Σq over lots, or zero for no quantity
func WeightedAverage(lots []Lot) decimal.Decimal {
	var qty int64
	value := decimal.Zero
	for _, lot := range lots {
		qty += lot.Quantity
		value = value.Add(lot.Price.Mul(decimal.NewFromInt(lot.Quantity)))
	}
	if qty == 0 {
		return decimal.Zero
	}
	return value.Div(decimal.NewFromInt(qty))
}
