// Package middleware provides HTTP middleware for the gateway server:
// request ID propagation, structured request logging, panic recovery,
// and an in-flight concurrency cap for completion requests.
package middleware
