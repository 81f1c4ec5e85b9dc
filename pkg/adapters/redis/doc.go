// Package redis provides Redis-backed session storage and distributed locking
// so several engine replicas can serve the same conversations.
package redis
