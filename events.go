package taxlots

import (
	"github.com/shopspring/decimal"
)

// TaxEvent is a realized result: a closing transaction matched against one lot, or an income payment.
//
// For a long lot, Proceeds is the closing leg and Cost the opening leg. For a short lot, Proceeds is
// the credit received at open and Cost what was paid to close. Each leg is converted with the rate of
// its own date.
type TaxEvent struct {
	Security   string
	Class      AssetClass
	Kind       EventKind // Kind of the closing transaction.
	Underlying string

	OpenDate  Date
	CloseDate Date
	Quantity  Quantity // Quantity closed, with the sign of the lot.

	TradeProceeds Money // TradeProceeds in the trading currency.
	TradeCost     Money // TradeCost in the trading currency.
	Proceeds      Money // Proceeds in the reporting currency.
	Cost          Money // Cost in the reporting currency.
	Gain          Money // Gain is Proceeds - Cost.

	OpenRate  decimal.Decimal
	CloseRate decimal.Decimal

	HoldingDays int

	Category Category // Category is set by the classifier.
	TaxFree  bool     // TaxFree is set by the classifier.
}

// Year returns the tax year of the event.
func (e TaxEvent) Year() int { return e.CloseDate.Year() }

// IsShort reports whether the event closed a short lot.
func (e TaxEvent) IsShort() bool { return e.Quantity.IsNegative() }

// MarshalJSON implements the json.Marshaler interface for TaxEvent.
func (e TaxEvent) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("security", e.Security)
	w.Append("class", e.Class)
	w.Append("kind", e.Kind)
	w.Optional("underlying", e.Underlying)
	w.Optional("open", e.OpenDate)
	w.Append("close", e.CloseDate)
	w.Append("quantity", e.Quantity)
	w.Append("tradeProceeds", e.TradeProceeds)
	w.Append("tradeCost", e.TradeCost)
	w.Append("proceeds", e.Proceeds)
	w.Append("cost", e.Cost)
	w.Append("gain", e.Gain)
	w.Append("openRate", e.OpenRate)
	w.Append("closeRate", e.CloseRate)
	w.Append("holdingDays", e.HoldingDays)
	w.Optional("category", e.Category)
	w.Optional("taxFree", e.TaxFree)
	return w.MarshalJSON()
}
