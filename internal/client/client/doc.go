// Package client contains the task client's connection to the journal
// server and the bootstrap of its local database.
//
// Transport is the contract the sync engine and the services depend on.
// GRPCClient implements it over the JournalService gRPC API: it injects the
// access token into every call, refreshes an expired token once, bounds each
// call with a timeout and maps gRPC status codes to the sentinel errors of
// internal/common (ErrorUnauthorized, ErrorUnavailable, ErrHeadConflict,
// ErrorNotFound, ErrorAlreadyExists, ErrorValidation).
//
// InitDatabase opens the SQLite file and applies the embedded migrations.
package client
