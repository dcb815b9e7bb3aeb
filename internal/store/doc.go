// Package store provides durable storage for process-chain templates.
//
// Three backends implement the same Store interface:
//   - FileStore: a directory tree of <name>.json files (read-mostly deployments)
//   - SQLiteStore: a single SQLite database file
//   - RedisStore: the actinia key layout, shared with other actinia services
//
// # Contract
//
//   - Create fails with ErrExists when the name is taken
//   - Update and Delete fail with ErrNotFound when the name is unknown
//   - Names returns template names in lexical order
//   - Source must be a JSON document; placeholders live inside string values
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Record hashes are computed via ir.TemplateHash.
package store
