package taxlots

import (
	"github.com/shopspring/decimal"
)

// Lot is the still open part of an opening transaction.
//
// A long lot's Value is what was paid for it, fee included. A short lot's Value is the credit
// received, net of the fee. Reporting is Value converted on the open date and never changes rate.
type Lot struct {
	Security  string
	Class     AssetClass
	Date      Date            // Date is the open date.
	Quantity  Quantity        // Quantity is the signed remaining quantity.
	Value     Money           // Value in the trading currency of the remaining quantity.
	Reporting Money           // Reporting is Value in the reporting currency.
	Rate      decimal.Decimal // Rate is the exchange rate used at open.
}

// UnitCost returns the reporting currency value of one unit of the lot.
func (l Lot) UnitCost() Money {
	if l.Quantity.IsZero() {
		return Money{cur: l.Reporting.cur}
	}
	return l.Reporting.Div(l.Quantity.Abs())
}

// split returns the part of the lot made of q units (0 < q <= |Quantity|) and what remains.
func (l Lot) split(q Quantity) (part, rest Lot) {
	size := l.Quantity.Abs()
	if !q.LessThan(size) {
		rest = l
		rest.Quantity = Q(0)
		rest.Value = M(0, l.Value.cur)
		rest.Reporting = M(0, l.Reporting.cur)
		return l, rest
	}
	signed := q
	if l.Quantity.IsNegative() {
		signed = q.Neg()
	}
	part, rest = l, l
	part.Quantity = signed
	part.Value = l.Value.Mul(q).Div(size)
	part.Reporting = l.Reporting.Mul(q).Div(size)
	rest.Quantity = l.Quantity.Sub(signed)
	rest.Value = l.Value.Sub(part.Value)
	rest.Reporting = l.Reporting.Sub(part.Reporting)
	return part, rest
}

// lots is a FIFO queue of lots, oldest first, all on the same side.
type lots []Lot

// position returns the signed sum of the lots quantities.
func (l lots) position() Quantity {
	total := Q(0)
	for _, lot := range l {
		total = total.Add(lot.Quantity)
	}
	return total
}

// take consumes q units (q positive) from the front of the queue.
// It returns the consumed parts, oldest first, the remaining queue and the quantity that could not be matched.
func (l lots) take(q Quantity) (parts []Lot, rest lots, shortfall Quantity) {
	rest = l
	for q.IsPositive() && len(rest) > 0 {
		part, remaining := rest[0].split(MinAbs(q, rest[0].Quantity))
		parts = append(parts, part)
		q = q.Sub(part.Quantity.Abs())
		if remaining.Quantity.IsZero() {
			rest = rest[1:]
		} else {
			rest = append(lots{remaining}, rest[1:]...)
		}
	}
	return parts, rest, q
}
