// Package wordledger implements the append-only word ledger at the heart of
// a story chapter.
//
// A ledger is created with a fixed capacity, a fixed unit price, and a word
// admission policy; none of these change afterwards. Words are admitted
// strictly through Append, which gates on capacity, payment, and content
// validity — in that order — and atomically records the word, mints its
// ownership token, and reports the assigned sequence index. Entries are
// never mutated or removed; the only state transition a ledger undergoes is
// "not full" → "full", and it is terminal.
//
// Two implementations of the Ledger interface are provided:
//   - MemoryLedger: in-process, for testing and development.
//   - PostgresLedger: durable, for production use.
package wordledger
