// Package cli implements the taskjournal command line.
//
// Each command is a cobra subcommand. Local commands (ls, add, edit, done,
// rm, lists) work on the SQLite store only; commands that touch the server
// (login, mklist, rename, rmlist, share, sync) restore the saved session
// first. Changes made offline are pushed by the next sync.
//
// Passwords are read from TASKJOURNAL_PASSWORD and
// TASKJOURNAL_ENCRYPTION_PASSWORD when set, otherwise from the terminal.
package cli
