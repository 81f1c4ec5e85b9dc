/*
Package observability turns processor lifecycle events into metrics and logs.

Metrics registers Prometheus collectors and exposes them as domain.TickHooks.
LoggingHooks writes one structured log record per event. Both compose with user
hooks through domain.ComposeHooks.
*/
package observability
