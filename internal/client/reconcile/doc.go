// Package reconcile keeps the local record store and the server in step.
//
// An Engine handles one entity kind. Pull fetches the server collection and
// merges it with "pending wins" semantics: local rows that still owe the
// server a change are kept as they are, and server records that match them
// by server id or client id are ignored. FlushPending replays the owed
// creates, updates and deletes one row at a time, with bounded retries.
//
// The Scheduler decides when engines run: after sign-in, after the server
// becomes reachable again, on a fixed interval and after local edits. Only
// one run happens at a time; triggers that arrive meanwhile are dropped.
package reconcile
