// Package resilience provides the retry and circuit breaker primitives shared
// by the outbound clients.
//
// Retries use exponential backoff with crypto/rand jitter and sleep through a
// Sleeper so tests can observe the schedule without waiting. Circuit breaking
// is delegated to sony/gobreaker.
package resilience
