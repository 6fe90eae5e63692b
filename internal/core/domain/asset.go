package domain

import "github.com/shopspring/decimal"

// QuoteAsset is the quote symbol of every listed pair and the valuation currency.
const QuoteAsset = "USDT"

// DefaultSymbol is used when a request names no wallet symbol.
const DefaultSymbol = "ARC"

// DefaultNetwork is recorded on every provisioned wallet.
const DefaultNetwork = "arc-devnet"

// AssetNames maps supported symbols to display names.
var AssetNames = map[string]string{
	"BTC":  "Bitcoin",
	"ETH":  "Ethereum",
	"ARC":  "Arc Token",
	"USDT": "Tether",
	"SOL":  "Solana",
	"BNB":  "Binance Coin",
	"ADA":  "Cardano",
	"DOT":  "Polkadot",
	"LINK": "Chainlink",
	"LTC":  "Litecoin",
}

// IsSupportedAsset reports whether symbol is in the catalogue.
func IsSupportedAsset(symbol string) bool {
	_, ok := AssetNames[symbol]
	return ok
}

// AssetName returns the display name of symbol, or the symbol itself.
func AssetName(symbol string) string {
	if name, ok := AssetNames[symbol]; ok {
		return name
	}
	return symbol
}

// AssetGrant is a wallet to provision with an opening balance.
type AssetGrant struct {
	Symbol  string
	Balance decimal.Decimal
}

// DefaultUserAssets are provisioned for every registered user.
func DefaultUserAssets() []AssetGrant {
	return []AssetGrant{
		{Symbol: "BTC", Balance: decimal.RequireFromString("0.1")},
		{Symbol: "ETH", Balance: decimal.RequireFromString("0.1")},
		{Symbol: "ARC", Balance: decimal.RequireFromString("0.1")},
		{Symbol: "USDT", Balance: decimal.NewFromInt(1000)},
		{Symbol: "SOL", Balance: decimal.RequireFromString("0.1")},
	}
}

// DefaultMerchantAssets are provisioned by system initialization for merchants.
func DefaultMerchantAssets() []AssetGrant {
	return []AssetGrant{
		{Symbol: "ARC", Balance: decimal.NewFromInt(1000)},
		{Symbol: "BTC", Balance: decimal.Zero},
		{Symbol: "ETH", Balance: decimal.Zero},
		{Symbol: "USDT", Balance: decimal.Zero},
		{Symbol: "BNB", Balance: decimal.Zero},
	}
}

// CartMerchantAssets are provisioned for a merchant created on first cart checkout.
func CartMerchantAssets() []AssetGrant {
	return []AssetGrant{
		{Symbol: "BTC", Balance: decimal.Zero},
		{Symbol: "ETH", Balance: decimal.Zero},
		{Symbol: "ARC", Balance: decimal.Zero},
		{Symbol: "USDT", Balance: decimal.Zero},
		{Symbol: "SOL", Balance: decimal.Zero},
	}
}

// SeedPairs returns the listed markets with opening quotes.
func SeedPairs() []TradingPair {
	seed := []struct {
		base   string
		price  string
		volume string
	}{
		{"BTC", "43000", "1250000000"},
		{"ETH", "2600", "820000000"},
		{"ARC", "1.25", "2500000"},
		{"SOL", "98", "310000000"},
		{"BNB", "310", "150000000"},
		{"ADA", "0.52", "95000000"},
		{"DOT", "7.2", "60000000"},
		{"LINK", "14.5", "75000000"},
		{"LTC", "72", "88000000"},
	}

	pairs := make([]TradingPair, 0, len(seed))
	for _, s := range seed {
		price := decimal.RequireFromString(s.price)
		pairs = append(pairs, TradingPair{
			Pair:         PairSymbol(s.base, QuoteAsset),
			BaseSymbol:   s.base,
			QuoteSymbol:  QuoteAsset,
			CurrentPrice: price,
			Open24h:      price,
			High24h:      price,
			Low24h:       price,
			Volume24h:    decimal.RequireFromString(s.volume),
			IsActive:     true,
		})
	}
	return pairs
}

// CoinCapAssets maps pair symbols to CoinCap asset ids.
var CoinCapAssets = map[string]string{
	"BTCUSDT":  "bitcoin",
	"ETHUSDT":  "ethereum",
	"LTCUSDT":  "litecoin",
	"BCHUSDT":  "bitcoin-cash",
	"DOGEUSDT": "dogecoin",
	"BNBUSDT":  "binance-coin",
	"ADAUSDT":  "cardano",
	"DOTUSDT":  "polkadot",
	"LINKUSDT": "chainlink",
	"SOLUSDT":  "solana",
}
