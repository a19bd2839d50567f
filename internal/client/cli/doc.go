// Package cli is the interactive notesync terminal client.
//
// It wires configuration, the local store, the HTTP client, the sync
// scheduler and the connectivity watcher, and runs a REPL over the note and
// task services. Every command works offline: changes are stored locally
// and pushed to the server by the scheduler once it is reachable.
//
// Records are addressed by the short id shown in listings; any unique
// prefix of the local id works.
package cli
