// Package audit records per-request completion outcomes to durable
// storage. Records are written asynchronously so the request path never
// blocks on disk, and old records are pruned on a schedule.
package audit
