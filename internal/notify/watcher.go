package notify

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	jobmodels "io.fixlink.jobboard/internal/models/job"
)

// changeStreamUnsupportedCode is what mongod returns when $changeStream runs
// against a standalone deployment.
const changeStreamUnsupportedCode = 40573

// Watcher holds a long-lived change stream over the job collection, filtered
// to inserts, and dispatches an unfiltered notification for every new job.
// One bad event never kills the stream.
type Watcher struct {
	coll       *mongo.Collection
	dispatcher *Dispatcher
	logger     *zap.SugaredLogger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewWatcher(coll *mongo.Collection, dispatcher *Dispatcher, logger *zap.SugaredLogger) *Watcher {
	return &Watcher{
		coll:       coll,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start opens the change stream and begins consuming events. Calling Start
// while already running is a no-op. A deployment without change-stream
// support (not a replica set) logs a warning and returns nil: the watcher
// simply stays off, it does not crash or retry.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "insert"}}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	// The stream outlives the startup context; Stop owns cancellation.
	streamCtx, cancel := context.WithCancel(context.Background())

	stream, err := w.coll.Watch(ctx, pipeline, opts)
	if err != nil {
		cancel()
		if isChangeStreamUnsupported(err) {
			w.logger.Warnw("change streams unsupported by this deployment, job watcher disabled", "error", err)
			return nil
		}
		return fmt.Errorf("failed to open job change stream: %w", err)
	}

	w.running = true
	w.cancel = cancel
	w.done = make(chan struct{})

	w.logger.Infow("job watcher started", "collection", w.coll.Name())
	go w.consume(streamCtx, stream)
	return nil
}

// Stop closes the stream and waits for the consume loop to exit. Safe to call
// when the watcher never started. An event already being handled finishes;
// only subsequent events are cut off.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel, done := w.cancel, w.done
	w.running = false
	w.mu.Unlock()

	cancel()
	<-done
	w.logger.Infow("job watcher stopped")
}

func (w *Watcher) consume(ctx context.Context, stream *mongo.ChangeStream) {
	defer close(w.done)
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var event struct {
			FullDocument jobmodels.Job `bson:"fullDocument"`
		}
		if err := stream.Decode(&event); err != nil {
			w.logger.Errorw("failed to decode job change event", "error", err)
			continue
		}
		w.handleInsert(event.FullDocument)
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		w.logger.Errorw("job change stream terminated", "error", err)
	}
}

// handleInsert dispatches one event. Errors and panics are logged and
// swallowed so the subscription keeps consuming.
func (w *Watcher) handleInsert(j jobmodels.Job) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Errorw("panic while handling job insert",
				"job_id", j.ID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	w.logger.Infow("job insert observed",
		"job_id", j.ID,
		"so_number", j.SONumber,
		"city", j.City,
		"state", j.State,
		"zip", j.Zip,
	)

	// Deliberately not the stream context: stopping the watcher must not
	// cancel a dispatch already in flight.
	w.dispatcher.Dispatch(context.Background(), JobPayload(j), nil)
}

func isChangeStreamUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Code == changeStreamUnsupportedCode {
			return true
		}
	}
	return strings.Contains(err.Error(), "only supported on replica sets")
}
