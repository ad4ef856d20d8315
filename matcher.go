package taxlots

import (
	"cmp"
	"fmt"
	"runtime"
	"slices"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// lotKey identifies a FIFO queue.
type lotKey struct {
	Security string
	Class    AssetClass
}

// Events produced by the same transaction are ordered by stream.
const (
	securityStream = iota
	currencyStream
)

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithLogger sets the logger used to trace every lot opened and matched.
func WithLogger(l *zap.Logger) MatcherOption {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithParallel processes independent queues concurrently. The output does not depend on it.
func WithParallel(on bool) MatcherOption { return func(m *Matcher) { m.parallel = on } }

// WithCurrencyTracking enables the FIFO queue of foreign cash that realizes currency gains. It is on by default.
func WithCurrencyTracking(on bool) MatcherOption { return func(m *Matcher) { m.currency = on } }

// Matcher turns a chronological transaction stream into realized TaxEvents by FIFO matching
// each (security, asset class) queue.
//
// A Matcher is not safe for concurrent use. The queues of the last Process are kept for Open.
type Matcher struct {
	conv     Converter
	logger   *zap.Logger
	parallel bool
	currency bool

	queues map[lotKey]lots
}

// NewMatcher returns a Matcher converting amounts with conv.
func NewMatcher(conv Converter, opts ...MatcherOption) *Matcher {
	m := &Matcher{conv: conv, logger: zap.NewNop(), currency: true}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CheckOrder returns a *DateOrderError if txs is not in ascending date order.
func CheckOrder(txs []Transaction) error {
	for i := 1; i < len(txs); i++ {
		if txs[i].Date.Before(txs[i-1].Date) {
			return &DateOrderError{Index: i, Previous: txs[i-1].Date, Date: txs[i].Date}
		}
	}
	return nil
}

// indexedEvent is an event with its position in the output.
type indexedEvent struct {
	index, stream, seq int
	event              TaxEvent
}

// queueResult is the outcome of matching one queue.
type queueResult struct {
	key    lotKey
	stream int
	lots   lots
	events []indexedEvent
	err    error
	errAt  int // index of the failing transaction
}

// Process matches txs and returns the realized events ordered by closing transaction, then by lot.
//
// txs must be in ascending date order: they are validated, never sorted. Any error aborts the whole
// run and no event is returned.
func (m *Matcher) Process(txs []Transaction) ([]TaxEvent, error) {
	m.queues = nil
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("transaction #%d: %w", i, err)
		}
	}
	if err := CheckOrder(txs); err != nil {
		return nil, err
	}

	var keys []lotKey
	groups := make(map[lotKey][]int)
	group := func(k lotKey, i int) {
		if _, exists := groups[k]; !exists {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
	}
	for i, tx := range txs {
		if tx.Kind.IsTrade() {
			group(lotKey{tx.Security, tx.Class}, i)
		}
	}
	securities := len(keys)
	if m.currency {
		for i, tx := range txs {
			if flow := tx.CashFlow(); tx.Currency() != m.conv.Currency() && !flow.IsZero() {
				group(lotKey{tx.Currency(), Cash}, i)
			}
		}
	}

	jobs := make([]func() queueResult, 0, len(keys)+1)
	for n, k := range keys {
		if n < securities {
			jobs = append(jobs, func() queueResult { return m.matchQueue(k, securityStream, txs, groups[k], securityLeg) })
		} else {
			jobs = append(jobs, func() queueResult { return m.matchQueue(k, currencyStream, txs, groups[k], cashLeg) })
		}
	}
	jobs = append(jobs, func() queueResult { return m.incomes(txs) })

	results := make([]queueResult, len(jobs))
	if m.parallel {
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i, job := range jobs {
			g.Go(func() error {
				results[i] = job()
				return nil
			})
		}
		// jobs report their error in their result so that the earliest one wins.
		_ = g.Wait()
	} else {
		for i, job := range jobs {
			results[i] = job()
		}
	}
	return m.merge(results)
}

// merge collects the queue results in a deterministic order.
func (m *Matcher) merge(results []queueResult) ([]TaxEvent, error) {
	var failed *queueResult
	var all []indexedEvent
	queues := make(map[lotKey]lots)
	for i := range results {
		r := &results[i]
		if r.err != nil {
			if failed == nil || r.errAt < failed.errAt || (r.errAt == failed.errAt && r.stream < failed.stream) {
				failed = r
			}
			continue
		}
		all = append(all, r.events...)
		if len(r.lots) > 0 {
			queues[r.key] = r.lots
		}
	}
	if failed != nil {
		return nil, failed.err
	}
	m.queues = queues

	slices.SortFunc(all, func(a, b indexedEvent) int {
		return cmp.Or(cmp.Compare(a.index, b.index), cmp.Compare(a.stream, b.stream), cmp.Compare(a.seq, b.seq))
	})
	events := make([]TaxEvent, len(all))
	for i, e := range all {
		events[i] = e.event
	}
	return events, nil
}

// securityLeg is the transaction itself.
func securityLeg(tx Transaction) Transaction { return tx }

// cashLeg is the foreign cash movement of a transaction, as a trade of currency units.
func cashLeg(tx Transaction) Transaction {
	flow := tx.CashFlow()
	unit := M(1, flow.Currency())
	return Transaction{Date: tx.Date, Kind: Open, Security: flow.Currency(), Class: Cash, Quantity: Q(flow.value), Price: unit, Fee: M(0, flow.Currency())}
}

// matchQueue runs the transactions at indices through a single FIFO queue.
func (m *Matcher) matchQueue(key lotKey, stream int, txs []Transaction, indices []int, leg func(Transaction) Transaction) queueResult {
	r := queueResult{key: key, stream: stream}
	var queue lots
	for _, i := range indices {
		events, next, err := m.apply(queue, leg(txs[i]))
		if err != nil {
			r.err, r.errAt = fmt.Errorf("transaction #%d %s %s: %w", i, txs[i].Kind, txs[i].Security, err), i
			return r
		}
		queue = next
		for seq, e := range events {
			// currency lots are closed by spending the cash, whatever the transaction spending it.
			e.Kind = Close
			if stream == securityStream {
				e.Kind = txs[i].Kind
			}
			r.events = append(r.events, indexedEvent{index: i, stream: stream, seq: seq, event: e})
		}
	}
	r.lots = queue
	return r
}

// apply applies one transaction to a queue and returns the realized events and the new queue.
func (m *Matcher) apply(queue lots, tx Transaction) ([]TaxEvent, lots, error) {
	qty := tx.Quantity
	held := queue.position()
	shortfall := func(q Quantity) error {
		return &NegativeLotError{Security: tx.Security, Class: tx.Class, Date: tx.Date, Shortfall: q}
	}

	if tx.Kind == Expire || tx.Kind == Assign {
		// they carry no direction: they always reduce the position.
		if held.IsZero() {
			return nil, queue, shortfall(qty.Abs())
		}
		qty = qty.Abs()
		if held.IsPositive() {
			qty = qty.Neg()
		}
	}
	// Only opening transactions and cash can build a new position or flip an existing one.
	flips := tx.Kind == Open || tx.Class == Cash

	if held.IsZero() || qty.SameSign(held) {
		if !flips {
			return nil, queue, shortfall(qty.Abs())
		}
		lot, err := m.open(tx, qty, tx.Fee)
		if err != nil {
			return nil, queue, err
		}
		return nil, append(queue, lot), nil
	}

	size := qty.Abs()
	closing := MinAbs(qty, held)
	if closing.LessThan(size) && !flips {
		return nil, queue, shortfall(size.Sub(closing))
	}

	// the fee is shared between the closing and the opening part of a flip.
	fee := tx.Fee
	if fee.Currency() == "" {
		fee = M(0, tx.Currency())
	}
	closeFee := fee
	if closing.LessThan(size) {
		closeFee = fee.Mul(closing).Div(size)
	}
	// value of the closing leg: received when selling a long position, paid when buying back a short one.
	gross := tx.Price.Mul(closing)
	value := gross.Sub(closeFee)
	if held.IsNegative() {
		value = gross.Add(closeFee)
	}

	rate, err := m.rate(tx.Currency(), tx.Date)
	if err != nil {
		return nil, queue, err
	}
	parts, rest, _ := queue.take(closing)
	events := make([]TaxEvent, 0, len(parts))
	remaining := value
	for j, part := range parts {
		// the last part takes the remainder, so that the parts add up exactly.
		slice := remaining
		if j < len(parts)-1 {
			slice = value.Mul(part.Quantity.Abs()).Div(closing)
			remaining = remaining.Sub(slice)
		}
		converted, err := m.conv.Convert(slice, tx.Date)
		if err != nil {
			return nil, queue, err
		}
		ev := realize(tx, part, slice, converted, rate)
		m.logger.Debug("match lot",
			zap.String("security", tx.Security),
			zap.Stringer("open", part.Date),
			zap.Stringer("close", tx.Date),
			zap.Stringer("quantity", part.Quantity),
			zap.Stringer("gain", ev.Gain),
		)
		events = append(events, ev)
	}

	if closing.LessThan(size) {
		flipped := size.Sub(closing)
		if qty.IsNegative() {
			flipped = flipped.Neg()
		}
		lot, err := m.open(tx, flipped, fee.Sub(closeFee))
		if err != nil {
			return nil, queue, err
		}
		rest = append(rest, lot)
	}
	return events, rest, nil
}

// open creates a lot of qty units from tx.
func (m *Matcher) open(tx Transaction, qty Quantity, fee Money) (Lot, error) {
	gross := tx.Price.Mul(qty.Abs())
	value := gross.Add(fee)
	if qty.IsNegative() {
		value = gross.Sub(fee) // credit received
	}
	reporting, err := m.conv.Convert(value, tx.Date)
	if err != nil {
		return Lot{}, err
	}
	rate, err := m.rate(tx.Currency(), tx.Date)
	if err != nil {
		return Lot{}, err
	}
	m.logger.Debug("open lot",
		zap.String("security", tx.Security),
		zap.Stringer("date", tx.Date),
		zap.Stringer("quantity", qty),
		zap.Stringer("value", value),
		zap.Stringer("reporting", reporting),
	)
	return Lot{Security: tx.Security, Class: tx.Class, Date: tx.Date, Quantity: qty, Value: value, Reporting: reporting, Rate: rate}, nil
}

// rate returns the rate used for an amount in currency on a day.
func (m *Matcher) rate(currency string, on Date) (decimal.Decimal, error) {
	if currency == m.conv.Currency() {
		return decimal.NewFromInt(1), nil
	}
	rate, _, err := m.conv.Rate(on)
	return rate, err
}

// realize builds the event of a lot part closed by tx for value (converted) in the trading currency.
func realize(tx Transaction, part Lot, value, converted Money, rate decimal.Decimal) TaxEvent {
	ev := TaxEvent{
		Security:    tx.Security,
		Class:       tx.Class,
		Kind:        tx.Kind,
		Underlying:  tx.Underlying,
		OpenDate:    part.Date,
		CloseDate:   tx.Date,
		Quantity:    part.Quantity,
		OpenRate:    part.Rate,
		CloseRate:   rate,
		HoldingDays: part.Date.DaysUntil(tx.Date),
	}
	if part.Quantity.IsNegative() {
		ev.TradeProceeds, ev.Proceeds = part.Value, part.Reporting
		ev.TradeCost, ev.Cost = value, converted
	} else {
		ev.TradeProceeds, ev.Proceeds = value, converted
		ev.TradeCost, ev.Cost = part.Value, part.Reporting
	}
	ev.Gain = ev.Proceeds.Sub(ev.Cost)
	return ev
}

// incomes turns dividend and interest payments into events.
func (m *Matcher) incomes(txs []Transaction) queueResult {
	r := queueResult{stream: securityStream}
	for i, tx := range txs {
		if !tx.Kind.IsIncome() {
			continue
		}
		ev, err := m.income(tx)
		if err != nil {
			r.err, r.errAt = fmt.Errorf("transaction #%d %s %s: %w", i, tx.Kind, tx.Security, err), i
			return r
		}
		r.events = append(r.events, indexedEvent{index: i, stream: securityStream, event: ev})
	}
	return r
}

// income returns the event of a payment. It has no cost and no holding period.
func (m *Matcher) income(tx Transaction) (TaxEvent, error) {
	amount, err := m.conv.Convert(tx.Price, tx.Date)
	if err != nil {
		return TaxEvent{}, err
	}
	rate, err := m.rate(tx.Currency(), tx.Date)
	if err != nil {
		return TaxEvent{}, err
	}
	return TaxEvent{
		Security:      tx.Security,
		Class:         tx.Class,
		Kind:          tx.Kind,
		CloseDate:     tx.Date,
		Quantity:      tx.Quantity,
		TradeProceeds: tx.Price,
		TradeCost:     M(0, tx.Currency()),
		Proceeds:      amount,
		Cost:          M(0, amount.Currency()),
		Gain:          amount,
		OpenRate:      rate,
		CloseRate:     rate,
	}, nil
}

// Open returns the lots left open by the last Process, by security and asset class, oldest first.
func (m *Matcher) Open() []Lot {
	var open []Lot
	for _, q := range m.queues {
		open = append(open, q...)
	}
	slices.SortStableFunc(open, func(a, b Lot) int {
		return cmp.Or(cmp.Compare(a.Security, b.Security), cmp.Compare(a.Class, b.Class), a.Date.Compare(b.Date))
	})
	return open
}

// Position returns the open quantity of a security after the last Process.
func (m *Matcher) Position(security string, class AssetClass) Quantity {
	return m.queues[lotKey{security, class}].position()
}
