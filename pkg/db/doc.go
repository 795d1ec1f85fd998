// Package db manages the PostgreSQL connection pool backing the
// content, user-meta and option stores.
//
// Connect retries with linear backoff so the engine survives a
// database that comes up after it does. Migrate applies the embedded
// schema from the migrations package through goose. WithTx wraps a
// function in a transaction; the engine's counter maintenance
// deliberately does not use it (counters are best-effort aggregates),
// but embedders composing multiple writes can.
package db
