// Package tablestore provides a typed client over a partitioned key-value
// table. Rows are addressed by a (PartitionKey, RowKey) pair, carry an opaque
// ETag for optimistic concurrency and a store-set Timestamp, and are otherwise
// schemaless: any struct with dynamodbav tags can be stored.
//
// Two implementations are provided: a DynamoDB-backed client for production
// and an in-memory client with the same semantics for tests and local runs.
package tablestore
