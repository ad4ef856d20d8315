package taxlots

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Transactions and rates are persisted as JSONL: one json object per line, so that files stay
// human-readable and git-friendly. Empty lines and lines starting with '#' are ignored.

// scanLines calls fn for each meaningful line of r, with its 1-based line number.
func scanLines(r io.Reader, fn func(i int, line []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	i := 0
	for scanner.Scan() {
		i++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(i, []byte(line)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// DecodeTransactions reads a JSONL stream of transactions. filename is for error messages only.
//
// All the invalid lines are reported at once.
func DecodeTransactions(filename string, r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	var errs error
	err := scanLines(r, func(i int, line []byte) error {
		var tx Transaction
		if err := json.Unmarshal(line, &tx); err != nil {
			errs = errors.Join(errs, fmt.Errorf("parse error %s:%d: %w", filename, i, err))
			return nil
		}
		if err := tx.Validate(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("invalid transaction %s:%d: %w", filename, i, err))
			return nil
		}
		txs = append(txs, tx)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", filename, err)
	}
	if errs != nil {
		return nil, errs
	}
	return txs, nil
}

// EncodeTransactions writes transactions as JSONL.
func EncodeTransactions(w io.Writer, txs []Transaction) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, tx := range txs {
		if err := enc.Encode(tx); err != nil {
			return fmt.Errorf("cannot encode transaction %s %s on %s: %w", tx.Kind, tx.Security, tx.Date, err)
		}
	}
	return nil
}

// rateHeader is the first line of a rates file.
type rateHeader struct {
	Foreign   string `json:"foreign"`
	Reporting string `json:"reporting"`
	Quotation string `json:"quotation"`
	Source    string `json:"source,omitempty"`
}

// rateLine is a daily rate of a rates file.
type rateLine struct {
	Date Date            `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// DecodeRates reads a rates file: a header line naming the currency pair and its quotation,
// then one line per day. lookback is passed to NewRateTable.
func DecodeRates(filename string, r io.Reader, lookback int) (*RateTable, error) {
	var table *RateTable
	err := scanLines(r, func(i int, line []byte) error {
		if table == nil {
			var h rateHeader
			if err := json.Unmarshal(line, &h); err != nil {
				return fmt.Errorf("parse error %s:%d: invalid header: %w", filename, i, err)
			}
			if h.Foreign == "" || h.Reporting == "" {
				return fmt.Errorf("parse error %s:%d: header must name the foreign and reporting currencies", filename, i)
			}
			q, err := ParseQuotation(h.Quotation)
			if err != nil {
				return fmt.Errorf("parse error %s:%d: %w", filename, i, err)
			}
			table = NewRateTable(h.Foreign, h.Reporting, q, lookback)
			return nil
		}
		var l rateLine
		if err := json.Unmarshal(line, &l); err != nil {
			return fmt.Errorf("parse error %s:%d: %w", filename, i, err)
		}
		if l.Date.IsZero() || !l.Rate.IsPositive() {
			return fmt.Errorf("parse error %s:%d: a rate needs a date and a positive value", filename, i)
		}
		table.Add(l.Date, l.Rate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, fmt.Errorf("parse error %s: empty rates file", filename)
	}
	return table, nil
}

// EncodeRates writes a rate table in the format read by DecodeRates.
func EncodeRates(w io.Writer, t *RateTable, source string) error {
	enc := json.NewEncoder(w)
	h := rateHeader{Foreign: t.Foreign(), Reporting: t.Currency(), Quotation: t.Quotation().String(), Source: source}
	if err := enc.Encode(h); err != nil {
		return err
	}
	for on, rate := range t.Values() {
		if err := enc.Encode(rateLine{Date: on, Rate: rate}); err != nil {
			return err
		}
	}
	return nil
}

// LoadTransactions reads a transactions file.
func LoadTransactions(filename string) ([]Transaction, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open transactions file: %w", err)
	}
	defer f.Close()
	return DecodeTransactions(filename, f)
}

// LoadRates reads a rates file.
func LoadRates(filename string, lookback int) (*RateTable, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open rates file: %w", err)
	}
	defer f.Close()
	return DecodeRates(filename, f, lookback)
}

// LoadCarryforward reads a carryforward file. A missing file is an empty carryforward.
func LoadCarryforward(filename string) (Carryforward, error) {
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Carryforward{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read carryforward file: %w", err)
	}
	var c Carryforward
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("invalid carryforward file %q: %w", filename, err)
	}
	return c, nil
}
