package taxlots

import (
	"encoding/json"
	"fmt"
)

// AssetClass is the broad kind of instrument a transaction is about.
type AssetClass int

const (
	// Equity is a listed share. Whether it is an individual stock or a fund is left to the classification.
	Equity AssetClass = iota
	// Fund is an ETF or investment fund.
	Fund
	// Option is a listed option contract.
	Option
	// Future is a futures contract.
	Future
	// Crypto is a crypto currency.
	Crypto
	// Cash is a foreign currency balance.
	Cash
)

var assetClassNames = []string{"equity", "fund", "option", "future", "crypto", "cash"}

func (c AssetClass) String() string {
	if c < 0 || int(c) >= len(assetClassNames) {
		return "unknown"
	}
	return assetClassNames[c]
}

// ParseAssetClass parses a string into an AssetClass. "etf" is accepted for Fund.
func ParseAssetClass(s string) (AssetClass, error) {
	if s == "etf" {
		return Fund, nil
	}
	for i, name := range assetClassNames {
		if s == name {
			return AssetClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown asset class: %q", s)
}

// IsDerivative reports whether the class is taxed as a Termingeschäft.
func (c AssetClass) IsDerivative() bool { return c == Option || c == Future }

func (c AssetClass) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *AssetClass) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseAssetClass(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// EventKind is what happened in a transaction.
type EventKind int

const (
	// Open opens or increases a position. It may also close an opposite position and flip it.
	Open EventKind = iota
	// Close reduces a position.
	Close
	// Expire closes a position at no value when an option expires worthless.
	Expire
	// Assign closes an option position because of an exercise or assignment.
	Assign
	// Dividend is a cash distribution (negative for withholding tax).
	Dividend
	// Interest is a credit or debit interest payment.
	Interest
	// Deposit brings foreign cash into the account.
	Deposit
	// Withdrawal takes foreign cash out of the account.
	Withdrawal
)

var eventKindNames = []string{"open", "close", "expire", "assign", "dividend", "interest", "deposit", "withdrawal"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return "unknown"
	}
	return eventKindNames[k]
}

// ParseEventKind parses a string into an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	for i, name := range eventKindNames {
		if s == name {
			return EventKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event kind: %q", s)
}

// IsTrade reports whether the kind moves a security position.
func (k EventKind) IsTrade() bool { return k <= Assign }

// IsIncome reports whether the kind is a pass-through income.
func (k EventKind) IsIncome() bool { return k == Dividend || k == Interest }

func (k EventKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

func (k *EventKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseEventKind(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}
