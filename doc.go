// Package taxlots computes the German tax report of a brokerage account.
//
// It turns a chronological stream of transactions into realized results in EUR and sums them per
// tax year and category:
//   - Rates: a RateTable converts trading currency amounts into the reporting currency with the
//     rate of the transaction date, walking back a few days over weekends and bank holidays.
//   - Lot matching: a Matcher keeps one FIFO queue of open lots per security and asset class, long
//     or short, and matches every closing transaction against the oldest lots first. Both legs of a
//     match are converted on their own date. Foreign cash is itself a FIFO queue, realizing
//     currency gains.
//   - Classification: a Classifier assigns each result a category (Aktiengewinne, Investmentfonds,
//     Termingeschäfte, Währungsgewinne, ...) and flags tax free results.
//   - Aggregation: an Aggregator sums the results per year and category, applies the yearly
//     exemptions and the derivative loss cap, and carries unused losses to the next year.
//
// NewReport runs the whole pipeline. Transactions and rates are read from JSONL files, the
// bundesbank and frankfurter packages fetch official exchange rates.
package taxlots
