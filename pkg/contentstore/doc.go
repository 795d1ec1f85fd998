// Package contentstore persists generic content items and their
// key/value metadata, mirroring the host CMS storage model the forum
// engine is built on.
//
// Every forum entity (forum, topic, reply) is a row in one items table
// distinguished only by a type tag, with denormalized counters and
// activity timestamps kept in an open-ended metadata table alongside.
// The package ships two implementations of the Store interface:
// Postgres on a pgx connection pool for production, and Memory for
// tests and embedding.
//
// Aggregate queries (CountChildren, DistinctAuthors, LatestChild) are
// part of the interface because the engine's counter maintenance is
// defined as "run the COUNT, overwrite the meta value" with no stronger
// consistency: see the topic and forum packages for the write side.
package contentstore
