package taxlots

import "fmt"

// MissingRateError is returned when no exchange rate is known on or shortly before a date.
type MissingRateError struct {
	Currency string // Currency is the foreign currency.
	Date     Date   // Date is the requested conversion date.
	Lookback int    // Lookback is the number of earlier days that were searched.
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no %s exchange rate on %s or in the %d days before", e.Currency, e.Date, e.Lookback)
}

// NegativeLotError is returned when a closing transaction closes more than the open position.
type NegativeLotError struct {
	Security  string
	Class     AssetClass
	Date      Date
	Shortfall Quantity // Shortfall is the unmatched quantity, always positive.
}

func (e *NegativeLotError) Error() string {
	return fmt.Sprintf("closing %s %s on %s exceeds the open position by %s", e.Class, e.Security, e.Date, e.Shortfall)
}

// UnknownSymbolClassificationError is returned when an equity symbol is neither a known stock nor a known fund.
type UnknownSymbolClassificationError struct {
	Symbol string
}

func (e *UnknownSymbolClassificationError) Error() string {
	return fmt.Sprintf("cannot tell whether %q is an individual stock or a fund: classify it or use an override", e.Symbol)
}

// DateOrderError is returned when transactions are not in chronological order.
type DateOrderError struct {
	Index    int  // Index of the offending transaction.
	Previous Date // Previous is the date of the transaction before it.
	Date     Date
}

func (e *DateOrderError) Error() string {
	return fmt.Sprintf("transaction #%d on %s is before the previous one on %s", e.Index, e.Date, e.Previous)
}
