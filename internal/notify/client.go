package notify

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// sendTimeout bounds every provider call so a network hang cannot stall the
// event-processing loop. Matches the timeouts used on the outbound HTTP
// clients elsewhere in the service.
const sendTimeout = 30 * time.Second

// failureSampleLimit caps the per-token diagnostics kept from one call.
const failureSampleLimit = 5

type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Client wraps the FCM messaging client. A Client built without credentials
// stays disabled: every send degrades to a zero-effect outcome with a warning
// log, so "notifications off" is a valid operating mode rather than a fault.
type Client struct {
	sender  multicastSender
	logger  *zap.SugaredLogger
	timeout time.Duration
}

// NewClient builds the delivery client from an initialized Firebase app. A
// nil app (no credentials configured) yields a disabled client.
func NewClient(app *firebase.App, logger *zap.SugaredLogger) *Client {
	c := &Client{logger: logger, timeout: sendTimeout}

	if app == nil {
		logger.Warnw("push delivery disabled: firebase app not configured")
		return c
	}

	fcmClient, err := app.Messaging(context.Background())
	if err != nil {
		logger.Errorw("failed to initialize FCM client, push delivery disabled", "error", err)
		return c
	}

	c.sender = fcmClient
	logger.Infow("push delivery client initialized")
	return c
}

// Enabled reports whether the underlying provider client was initialized.
func (c *Client) Enabled() bool {
	return c.sender != nil
}

// Send issues one multicast call for the given tokens. An empty token list
// and a disabled client both return a zero outcome, never an error: skips
// are accounted separately from provider-reported failures.
func (c *Client) Send(ctx context.Context, tokens []string, payload Payload) (Outcome, error) {
	if len(tokens) == 0 {
		return Outcome{}, nil
	}

	if !c.Enabled() {
		c.logger.Warnw("push delivery skipped: client not initialized", "tokens", len(tokens))
		return Outcome{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
	}

	resp, err := c.sender.SendEachForMulticast(ctx, message)
	if err != nil {
		return Outcome{Failure: len(tokens)}, fmt.Errorf("multicast send failed: %w", err)
	}

	outcome := Outcome{
		Success: resp.SuccessCount,
		Failure: resp.FailureCount,
	}

	if resp.FailureCount > 0 {
		codeTally := make(map[string]int)
		for idx, r := range resp.Responses {
			if r.Success {
				continue
			}
			code := classifyFCMError(r.Error)
			codeTally[code]++
			msg := ""
			if r.Error != nil {
				msg = r.Error.Error()
			}
			outcome.Failures = append(outcome.Failures, TokenResult{Index: idx, Code: code, Message: msg})
		}

		sample := outcome.Failures
		if len(sample) > failureSampleLimit {
			sample = sample[:failureSampleLimit]
		}
		c.logger.Warnw("push batch had failures",
			"success", resp.SuccessCount,
			"failure", resp.FailureCount,
			"codes", codeTally,
			"sample", sample,
		)
	}

	return outcome, nil
}

// ErrCodeUnregistered marks tokens the provider reports as permanently gone.
// It is the only code the prune policy acts on.
const ErrCodeUnregistered = "unregistered"

// classifyFCMError maps a per-token send error to a stable code for tallying.
// Informational only; classification never drives retries.
func classifyFCMError(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case messaging.IsUnregistered(err):
		return ErrCodeUnregistered
	case messaging.IsSenderIDMismatch(err):
		return "sender-id-mismatch"
	case messaging.IsQuotaExceeded(err):
		return "quota-exceeded"
	case messaging.IsThirdPartyAuthError(err):
		return "third-party-auth"
	case errorutils.IsInvalidArgument(err):
		return "invalid-argument"
	case errorutils.IsUnavailable(err):
		return "unavailable"
	case errorutils.IsInternal(err):
		return "internal"
	default:
		return "unknown"
	}
}
