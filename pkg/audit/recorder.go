package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"halcyon-ai/promptgate/pkg/config"
)

// Recorder writes audit records to storage through a buffered channel
// so the request path never blocks on a write. When the channel is full
// the record is dropped with a warning rather than stalling a request.
type Recorder struct {
	storage    Storage
	config     *config.AuditConfig
	recordChan chan *Record
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger
}

// NewRecorder creates a recorder and starts its background worker.
func NewRecorder(storage Storage, cfg *config.AuditConfig) *Recorder {
	r := &Recorder{
		storage:    storage,
		config:     cfg,
		recordChan: make(chan *Record, cfg.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"backend", cfg.Backend,
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
	)

	return r
}

// RecordCompletion enqueues a record for async writing. The record's ID
// is assigned here. Returns immediately.
func (r *Recorder) RecordCompletion(record *Record) {
	if !r.config.Enabled {
		return
	}

	record.ID = uuid.NewString()

	select {
	case r.recordChan <- record:
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping record",
			"request_id", record.RequestID,
		)
	default:
		r.logger.Warn("audit channel full, dropping record",
			"request_id", record.RequestID,
			"channel_capacity", r.config.AsyncBuffer,
		)
	}
}

// Close drains the channel and waits for pending writes to finish.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down audit recorder")
		close(r.done)
		r.wg.Wait()
		r.logger.Info("audit recorder shut down complete")
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			if pending := len(r.recordChan); pending > 0 {
				r.logger.Info("draining audit channel before shutdown",
					"pending_count", pending,
				)
			}

			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store audit record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		return
	}

	duration := time.Since(start)

	r.logger.Debug("audit record written",
		"record_id", record.ID,
		"request_id", record.RequestID,
		"status", record.Status,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
		)
	}
}
