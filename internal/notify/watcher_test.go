package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsChangeStreamUnsupportedByCode(t *testing.T) {
	err := mongo.CommandError{Code: changeStreamUnsupportedCode, Message: "The $changeStream stage is only supported on replica sets"}
	assert.True(t, isChangeStreamUnsupported(err))
}

func TestIsChangeStreamUnsupportedByMessage(t *testing.T) {
	err := errors.New("(Location40573) The $changeStream stage is only supported on replica sets")
	assert.True(t, isChangeStreamUnsupported(err))
}

func TestIsChangeStreamUnsupportedOtherErrors(t *testing.T) {
	assert.False(t, isChangeStreamUnsupported(errors.New("connection refused")))
	assert.False(t, isChangeStreamUnsupported(mongo.CommandError{Code: 13, Message: "unauthorized"}))
}

func TestWatcherStopWithoutStart(t *testing.T) {
	w := NewWatcher(nil, nil, zap.NewNop().Sugar())
	assert.NotPanics(t, w.Stop)

	// Repeated stops stay safe too.
	assert.NotPanics(t, w.Stop)
}

func TestWatcherHandleInsertRecoversPanics(t *testing.T) {
	// A nil dispatcher panics during dispatch; the handler must contain it
	// so the stream keeps consuming.
	w := NewWatcher(nil, nil, zap.NewNop().Sugar())
	assert.NotPanics(t, func() {
		w.handleInsert(testJob())
	})
}
