// Package customerorder is a customer and order service backed by a
// partitioned table store.
//
// Overview:
// The service exposes a JSON HTTP API for three aggregates, each kept in its
// own table and partitioned for its dominant access pattern:
//
//  1. accounts: customer profiles, spread across a fixed set of hash
//     partitions so no single partition grows without bound.
//  2. catalog: products, partitioned by normalized category so filtered
//     listings stay within one partition.
//  3. orders: customer orders, partitioned by account and calendar month so
//     recent history is a single-partition read.
//
// Sub-packages:
//
//   - tablestore: generic typed client over DynamoDB with optimistic
//     concurrency (uuid ETags), fixed-delay retries and token paging. A
//     MemoryClient with the same semantics backs the tests.
//   - partition: the stable hash strategy mapping an entity id to its
//     partition.
//   - pagination: offset continuation tokens for gathered listings and
//     pass-through tokens for single-partition reads.
//   - config: YAML configuration with environment overrides and validation.
//   - api: routing, request validation and the HTTP wire shapes.
//
// The server entrypoint is cmd/server; cmd/configcheck validates a
// configuration file without starting the service.
package customerorder
