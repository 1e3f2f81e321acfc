package repository

// Tx is an opaque transaction/connection handle passed through repository
// methods. The concrete type is infra-defined (e.g. pgx.Tx for Postgres);
// repositories must gracefully accept NoTX and fall back to their pooled
// connection. The two collections here carry no multi-record invariants, so
// nothing currently opens an explicit transaction, but the handle keeps the
// repository surface uniform.
type Tx interface{}

var NoTX Tx
