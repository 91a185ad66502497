package notify

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMulticastSender struct {
	lastMessage *messaging.MulticastMessage
	resp        *messaging.BatchResponse
	err         error
}

func (f *fakeMulticastSender) SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.lastMessage = message
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newTestClient(sender multicastSender) *Client {
	return &Client{
		sender:  sender,
		logger:  zap.NewNop().Sugar(),
		timeout: sendTimeout,
	}
}

func TestClientSendEmptyTokens(t *testing.T) {
	c := newTestClient(&fakeMulticastSender{})
	outcome, err := c.Send(context.Background(), nil, Payload{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, Outcome{}, outcome)
}

func TestClientDisabledSendsNothing(t *testing.T) {
	c := newTestClient(nil)
	assert.False(t, c.Enabled())

	outcome, err := c.Send(context.Background(), []string{"t1", "t2"}, Payload{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, Outcome{}, outcome)
}

func TestClientSendBuildsMulticastMessage(t *testing.T) {
	sender := &fakeMulticastSender{resp: &messaging.BatchResponse{
		SuccessCount: 2,
		Responses: []*messaging.SendResponse{
			{Success: true},
			{Success: true},
		},
	}}
	c := newTestClient(sender)

	payload := Payload{
		Title: "New Job Available",
		Body:  "New dishwasher job in Austin, TX",
		Data:  map[string]string{"job_id": "j1"},
	}
	outcome, err := c.Send(context.Background(), []string{"t1", "t2"}, payload)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Success)
	assert.Zero(t, outcome.Failure)

	require.NotNil(t, sender.lastMessage)
	assert.Equal(t, []string{"t1", "t2"}, sender.lastMessage.Tokens)
	require.NotNil(t, sender.lastMessage.Notification)
	assert.Equal(t, payload.Title, sender.lastMessage.Notification.Title)
	assert.Equal(t, payload.Body, sender.lastMessage.Notification.Body)
	assert.Equal(t, payload.Data, sender.lastMessage.Data)
}

func TestClientSendCallError(t *testing.T) {
	sender := &fakeMulticastSender{err: errors.New("deadline exceeded")}
	c := newTestClient(sender)

	tokens := []string{"t1", "t2", "t3"}
	outcome, err := c.Send(context.Background(), tokens, Payload{Title: "t"})
	require.Error(t, err)
	assert.Equal(t, len(tokens), outcome.Failure)
	assert.Zero(t, outcome.Success)
}

func TestClientSendCollectsAllFailures(t *testing.T) {
	responses := make([]*messaging.SendResponse, 8)
	for i := range responses {
		responses[i] = &messaging.SendResponse{Error: errors.New("send failed")}
	}
	sender := &fakeMulticastSender{resp: &messaging.BatchResponse{
		FailureCount: len(responses),
		Responses:    responses,
	}}
	c := newTestClient(sender)

	outcome, err := c.Send(context.Background(), makeTokens(len(responses)), Payload{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, len(responses), outcome.Failure)

	// Every failure is kept with its index; only the log sample is bounded.
	require.Len(t, outcome.Failures, len(responses))
	for i, f := range outcome.Failures {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, "send failed", f.Message)
	}
}

func TestClientSendMixedOutcome(t *testing.T) {
	sender := &fakeMulticastSender{resp: &messaging.BatchResponse{
		SuccessCount: 2,
		FailureCount: 1,
		Responses: []*messaging.SendResponse{
			{Success: true},
			{Error: errors.New("boom")},
			{Success: true},
		},
	}}
	c := newTestClient(sender)

	outcome, err := c.Send(context.Background(), []string{"t1", "t2", "t3"}, Payload{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Success)
	assert.Equal(t, 1, outcome.Failure)
	require.Len(t, outcome.Failures, 1)
	assert.Equal(t, 1, outcome.Failures[0].Index)
}

func TestClassifyFCMErrorFallsBackToUnknown(t *testing.T) {
	assert.Equal(t, "unknown", classifyFCMError(nil))
	assert.Equal(t, "unknown", classifyFCMError(errors.New("some opaque transport error")))
}
