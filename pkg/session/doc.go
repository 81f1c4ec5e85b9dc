/*
Package session serialises access to conversation sessions.

Turns of the same conversation must never run concurrently. The Manager keeps
one reference-counted mutex per conversation id and, when configured with a
ports.DistributedLocker, also holds a cluster-wide lock so several replicas can
share one store.
*/
package session
