package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/utils"
	"go.uber.org/zap"
)

const auditSaveTimeout = 5 * time.Second

// AuditEvent is a security relevant transition reported by a flow
type AuditEvent struct {
	Action     string
	ActorID    *uint
	TargetType string
	TargetID   string
	Details    map[string]any
	IPAddress  string
	UserAgent  string
	RequestID  string
	OccurredAt time.Time
}

// AuditSink persists audit rows. repository.AuditLogRepository satisfies it.
type AuditSink interface {
	Save(ctx context.Context, entry *models.AuditLog) error
}

// AuditEmitter records audit events without ever failing the caller
type AuditEmitter interface {
	Record(ctx context.Context, event AuditEvent)
	Close()
}

// NoopAuditEmitter discards every event
type NoopAuditEmitter struct{}

func (NoopAuditEmitter) Record(context.Context, AuditEvent) {}
func (NoopAuditEmitter) Close()                             {}

// AsyncAuditEmitter pushes events onto a bounded buffer drained by one worker
type AsyncAuditEmitter struct {
	sink      AuditSink
	logger    *zap.Logger
	ch        chan *models.AuditLog
	done      chan struct{}
	wg        sync.WaitGroup
	closed    atomic.Bool
	dropped   atomic.Uint64
	closeOnce sync.Once
}

// NewAuditEmitter starts an asynchronous emitter. A nil sink yields NoopAuditEmitter.
func NewAuditEmitter(sink AuditSink, bufferSize int, logger *zap.Logger) AuditEmitter {
	if sink == nil {
		return NoopAuditEmitter{}
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &AsyncAuditEmitter{
		sink:   sink,
		logger: logger,
		ch:     make(chan *models.AuditLog, bufferSize),
		done:   make(chan struct{}),
	}

	e.wg.Add(1)
	go e.run()

	return e
}

func (e *AsyncAuditEmitter) run() {
	defer e.wg.Done()

	for {
		select {
		case entry := <-e.ch:
			e.persist(entry)
		case <-e.done:
			for {
				select {
				case entry := <-e.ch:
					e.persist(entry)
				default:
					return
				}
			}
		}
	}
}

func (e *AsyncAuditEmitter) persist(entry *models.AuditLog) {
	defer func() {
		if r := recover(); r != nil {
			auditSinkFailures.Inc()
			e.logger.Warn("audit sink panicked", zap.String("action", entry.Action), zap.Any("panic", r))
		}
	}()

	// The request context is gone by now, so every save gets its own deadline
	ctx, cancel := context.WithTimeout(context.Background(), auditSaveTimeout)
	defer cancel()

	if err := e.sink.Save(ctx, entry); err != nil {
		auditSinkFailures.Inc()
		e.logger.Warn("failed to persist audit event", zap.String("action", entry.Action), zap.Error(err))
	}
}

// Record enqueues the event. A full buffer drops it.
func (e *AsyncAuditEmitter) Record(ctx context.Context, event AuditEvent) {
	if e == nil {
		return
	}
	if e.closed.Load() {
		e.drop(event.Action, "closed")
		return
	}

	entry, err := toAuditLog(event)
	if err != nil {
		e.logger.Warn("failed to encode audit event", zap.String("action", event.Action), zap.Error(err))
		return
	}

	select {
	case e.ch <- entry:
	case <-e.done:
		e.drop(event.Action, "closed")
	default:
		e.drop(event.Action, "buffer full")
	}
}

func (e *AsyncAuditEmitter) drop(action, reason string) {
	e.dropped.Add(1)
	auditEventsDropped.Inc()
	e.logger.Warn("audit event dropped", zap.String("action", action), zap.String("reason", reason))
}

// Close stops accepting events and waits until the buffer is drained
func (e *AsyncAuditEmitter) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.done)
		e.wg.Wait()
	})
}

// Dropped returns how many events were discarded
func (e *AsyncAuditEmitter) Dropped() uint64 {
	if e == nil {
		return 0
	}
	return e.dropped.Load()
}

func toAuditLog(event AuditEvent) (*models.AuditLog, error) {
	entry := &models.AuditLog{
		ActorID:    event.ActorID,
		Action:     event.Action,
		TargetType: optionalString(event.TargetType),
		TargetID:   optionalString(event.TargetID),
		IPAddress:  optionalString(event.IPAddress),
		UserAgent:  optionalString(event.UserAgent),
		RequestID:  optionalString(event.RequestID),
		CreatedAt:  event.OccurredAt,
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = utils.UTCNow()
	}

	if len(event.Details) > 0 {
		raw, err := json.Marshal(event.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal audit details: %w", err)
		}
		entry.Details = utils.ToPtr(string(raw))
	}

	return entry, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
