package deals

import "github.com/shopspring/decimal"

// Action is the direction a client ended up on after offsetting
type Action string

const (
	ActionNetBuy  Action = "NET BUY"
	ActionNetSell Action = "NET SELL"
)

// NetPosition is the surplus of one side over the other for a
// client/security pair.
//
// AveragePrice is averaged over the dominant side only: for a net buyer
// it is the price the excess shares were bought at, unaffected by the
// prices of the offsetting sells.
type NetPosition struct {
	Client       string          `json:"client"`
	Security     string          `json:"security"`
	Action       Action          `json:"action"`
	NetQuantity  int64           `json:"net_quantity"`
	AveragePrice decimal.Decimal `json:"avg_price"`
	NetValue     decimal.Decimal `json:"net_value"`
}

// Summary holds the display counts derived from a set of positions
type Summary struct {
	Clients    int `json:"clients"`
	Securities int `json:"securities"`
	Positions  int `json:"positions"`
	NetBuys    int `json:"net_buys"`
	NetSells   int `json:"net_sells"`
}

// Stats counts distinct clients and securities and the positions per action
func Stats(positions []NetPosition) Summary {
	clients := make(map[string]struct{})
	securities := make(map[string]struct{})
	s := Summary{Positions: len(positions)}
	for _, p := range positions {
		clients[p.Client] = struct{}{}
		securities[p.Security] = struct{}{}
		switch p.Action {
		case ActionNetBuy:
			s.NetBuys++
		case ActionNetSell:
			s.NetSells++
		}
	}
	s.Clients = len(clients)
	s.Securities = len(securities)
	return s
}
