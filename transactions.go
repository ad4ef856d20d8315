package taxlots

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Transaction is one brokerage event as reported by the broker.
//
// It is a value: the engine never modifies a Transaction, it only reads it.
type Transaction struct {
	Date       Date       // Date is the trade date.
	Kind       EventKind  // Kind is what happened.
	Security   string     // Security is the ticker or contract symbol.
	Class      AssetClass // Class is the kind of instrument.
	Quantity   Quantity   // Quantity is signed: positive buys, negative sells.
	Price      Money      // Price is the unit price in the trading currency. Cash events carry their gross amount here.
	Fee        Money      // Fee is the total fee and commission paid, always positive.
	Underlying string     // Underlying is the underlying symbol of options and futures.
	Memo       string     // Memo is a free text note.
}

// NewTrade creates a position changing transaction (open, close, expire, assign).
func NewTrade(on Date, kind EventKind, security string, class AssetClass, quantity Quantity, price, fee Money) Transaction {
	return Transaction{Date: on, Kind: kind, Security: security, Class: class, Quantity: quantity, Price: price, Fee: fee}
}

// NewIncome creates a dividend or interest payment of amount.
// A negative amount is a withholding tax or a debit interest.
func NewIncome(on Date, kind EventKind, security string, amount Money) Transaction {
	return Transaction{Date: on, Kind: kind, Security: security, Class: Cash, Quantity: Q(1), Price: amount, Fee: M(0, amount.Currency())}
}

// NewCashMove creates a deposit or a withdrawal of foreign cash.
// The amount is signed the way it changes the balance.
func NewCashMove(on Date, kind EventKind, amount Money) Transaction {
	return Transaction{Date: on, Kind: kind, Security: amount.Currency(), Class: Cash, Quantity: Q(1), Price: amount, Fee: M(0, amount.Currency())}
}

// WithUnderlying returns a copy of t with its underlying symbol set.
func (t Transaction) WithUnderlying(symbol string) Transaction {
	t.Underlying = symbol
	return t
}

// WithMemo returns a copy of t with a memo.
func (t Transaction) WithMemo(memo string) Transaction {
	t.Memo = memo
	return t
}

// Currency returns the trading currency of the transaction.
func (t Transaction) Currency() string { return t.Price.Currency() }

// CashFlow returns the signed amount of trading currency the transaction moves in or out of the account.
func (t Transaction) CashFlow() Money {
	fee := t.Fee
	if fee.Currency() == "" {
		fee = M(0, t.Currency())
	}
	switch t.Kind {
	case Open, Close:
		return t.Price.Mul(t.Quantity).Neg().Sub(fee)
	case Expire, Assign:
		return fee.Neg()
	default:
		return t.Price
	}
}

// Validate checks that the transaction is self consistent.
func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return errors.New("transaction date is missing")
	}
	if t.Security == "" {
		return errors.New("security is missing")
	}
	if t.Kind.IsTrade() && t.Quantity.IsZero() {
		return fmt.Errorf("%s of %s has a zero quantity", t.Kind, t.Security)
	}
	if t.Fee.IsNegative() {
		return fmt.Errorf("%s of %s has a negative fee %s", t.Kind, t.Security, t.Fee)
	}
	if t.Fee.Currency() != "" && t.Currency() != "" && t.Fee.Currency() != t.Currency() {
		return fmt.Errorf("%s of %s has a fee in %q but a price in %q", t.Kind, t.Security, t.Fee.Currency(), t.Currency())
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Transaction.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", t.Date)
	w.Append("kind", t.Kind)
	w.Append("security", t.Security)
	w.Append("class", t.Class)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price.Decimal())
	w.Optional("fee", t.Fee.Decimal())
	w.Append("currency", t.Currency())
	w.Optional("underlying", t.Underlying)
	w.Optional("memo", t.Memo)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Transaction.
// Price and fee share a single currency field.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var jt struct {
		Date       Date            `json:"date"`
		Kind       EventKind       `json:"kind"`
		Security   string          `json:"security"`
		Class      AssetClass      `json:"class"`
		Quantity   Quantity        `json:"quantity"`
		Price      decimal.Decimal `json:"price"`
		Fee        decimal.Decimal `json:"fee"`
		Currency   string          `json:"currency"`
		Underlying string          `json:"underlying"`
		Memo       string          `json:"memo"`
	}
	if err := json.Unmarshal(data, &jt); err != nil {
		return err
	}
	*t = Transaction{
		Date:       jt.Date,
		Kind:       jt.Kind,
		Security:   jt.Security,
		Class:      jt.Class,
		Quantity:   jt.Quantity,
		Price:      M(jt.Price, jt.Currency),
		Fee:        M(jt.Fee, jt.Currency),
		Underlying: jt.Underlying,
		Memo:       jt.Memo,
	}
	return nil
}

// SortByDate returns a copy of txs in chronological order.
// Transactions on the same day keep their relative order.
func SortByDate(txs []Transaction) []Transaction {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b Transaction) int { return a.Date.Compare(b.Date) })
	return sorted
}
