package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Logger decouples authorization decisions from storage latency. Log
// submits to a bounded queue and returns; a single worker persists
// records in order. When the queue is full the record is written
// synchronously instead, so a decision is never acted on without its
// record having been at least enqueued, and no record is dropped.
type Logger struct {
	sink Sink
	log  *slog.Logger

	queue     chan Record
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewLogger(sink Sink, queueSize int, log *slog.Logger) *Logger {
	if queueSize <= 0 {
		queueSize = 256
	}
	if log == nil {
		log = slog.Default()
	}
	l := &Logger{
		sink:  sink,
		log:   log,
		queue: make(chan Record, queueSize),
		done:  make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Logger) Log(rec Record) {
	if l == nil {
		return
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.EventID == "" {
		rec.EventID = NewEventID(rec.Timestamp)
	}

	select {
	case <-l.done:
		l.emit(rec)
		return
	default:
	}

	select {
	case l.queue <- rec:
	default:
		// Queue full: write in the caller rather than drop.
		l.emit(rec)
	}
}

// Close stops the worker after draining queued records and closes the
// underlying sink.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.closeOnce.Do(func() { close(l.done) })
	l.wg.Wait()
}

func (l *Logger) run() {
	defer l.wg.Done()
	for {
		select {
		case rec := <-l.queue:
			l.emit(rec)
		case <-l.done:
			for {
				select {
				case rec := <-l.queue:
					l.emit(rec)
				default:
					if err := l.sink.Close(); err != nil {
						l.log.Warn("audit_sink_close_error", "error", err.Error())
					}
					return
				}
			}
		}
	}
}

// emit is the one place storage failures surface. They are operator
// defects, not user-facing denials.
func (l *Logger) emit(rec Record) {
	if l.sink == nil {
		return
	}
	if err := l.sink.Emit(context.Background(), rec); err != nil {
		l.log.Error("audit_sink_error", "event_id", rec.EventID, "error", err.Error())
	}
}

// MultiSink fans a record out to several sinks. Emit returns the first
// error but still attempts every sink.
type MultiSink struct {
	Sinks []Sink
}

func (m *MultiSink) Emit(ctx context.Context, rec Record) error {
	if m == nil {
		return nil
	}
	var first error
	for _, s := range m.Sinks {
		if s == nil {
			continue
		}
		if err := s.Emit(ctx, rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiSink) Close() error {
	if m == nil {
		return nil
	}
	var first error
	for _, s := range m.Sinks {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
