// Package shelf provides generic CRUD persistence for entities over a
// pluggable named-blob store.
//
// # Overview
//
// The package centers around [Repository], a generic container that stores
// one blob per entity record plus one index blob per table listing every
// known primary key. The index is what makes [Repository.FindAll] possible
// without enumerating the store's namespace, which the [blob.Store] contract
// deliberately does not support.
//
// # Storage layout
//
// A record for id 42 of table "User" keyed by "id" lives in the blob
// "User_id_42"; the table's index lives in "User_IDs", one ID per line.
// Record content is whatever the entity's Serialize and Deserialize agree
// on; the repository never looks inside it.
//
// # Consistency
//
// Every operation is a synchronous sequence of blob calls with no locking.
// Two goroutines mutating the same table can race on the index blob's
// read-modify-write and lose updates; callers needing concurrent writers
// must serialize externally. Index and record blobs can drift if blobs are
// mutated out-of-band: FindAll skips indexed IDs whose record is missing,
// and never surfaces records absent from the index.
package shelf
