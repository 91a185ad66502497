package notify

import (
	"context"

	"go.uber.org/zap"
)

// Sender is the delivery side of the pipeline. Client is the production
// implementation.
type Sender interface {
	Send(ctx context.Context, tokens []string, payload Payload) (Outcome, error)
	Enabled() bool
}

// Options gates the optional stages of the pipeline. The superset of the
// deployed revisions lives behind these toggles instead of parallel code
// paths.
type Options struct {
	// BatchSize caps tokens per provider call; defaults to DefaultBatchSize.
	BatchSize int
	// FilterValidity pre-screens tokens with LikelyValidToken before
	// batching. Rejected tokens count as skipped, not failed.
	FilterValidity bool
	// PruneInvalid removes tokens the provider reports as unregistered.
	// Off by default; every other failure code leaves the registry alone.
	PruneInvalid bool
}

// Dispatcher runs the fan-out for one triggering event: resolve audience,
// collect tokens, dedupe, filter, batch, deliver sequentially, log a summary.
// It never returns an error; delivery is best-effort and must not become a
// dependency of whatever triggered it.
type Dispatcher struct {
	registry Registry
	sender   Sender
	logger   *zap.SugaredLogger
	opts     Options
}

func NewDispatcher(registry Registry, sender Sender, logger *zap.SugaredLogger, opts Options) *Dispatcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Dispatcher{
		registry: registry,
		sender:   sender,
		logger:   logger,
		opts:     opts,
	}
}

// Dispatch resolves the audience (optionally vendor-filtered) and delivers
// the payload to it.
func (d *Dispatcher) Dispatch(ctx context.Context, payload Payload, filter *AudienceFilter) Summary {
	accounts, err := d.registry.ResolveAudience(ctx, filter)
	if err != nil {
		d.logger.Errorw("audience resolution failed, notification dropped", "error", err)
		return Summary{}
	}
	return d.DeliverTo(ctx, accounts, payload)
}

// DeliverTo delivers the payload to an already-resolved audience. Batches are
// sent sequentially so provider rate limits stay predictable and the logs
// stay ordered.
func (d *Dispatcher) DeliverTo(ctx context.Context, accounts []Account, payload Payload) Summary {
	tokens := CollectTokens(accounts)

	summary := Summary{TokensTotal: len(tokens)}

	if d.opts.FilterValidity {
		kept := make([]string, 0, len(tokens))
		for _, t := range tokens {
			if LikelyValidToken(t) {
				kept = append(kept, t)
			}
		}
		summary.Skipped = len(tokens) - len(kept)
		tokens = kept
	}

	batches := Batch(tokens, d.opts.BatchSize)
	summary.Batches = len(batches)

	d.logger.Infow("dispatching push notification",
		"title", payload.Title,
		"accounts", len(accounts),
		"tokens_total", summary.TokensTotal,
		"skipped", summary.Skipped,
		"batches", summary.Batches,
	)

	var prune []string
	for i, batch := range batches {
		outcome, err := d.sender.Send(ctx, batch, payload)
		if err != nil {
			d.logger.Errorw("push batch send failed", "batch", i+1, "size", len(batch), "error", err)
		}

		summary.Success += outcome.Success
		summary.Failure += outcome.Failure

		if d.opts.PruneInvalid {
			for _, f := range outcome.Failures {
				if f.Code == ErrCodeUnregistered && f.Index >= 0 && f.Index < len(batch) {
					prune = append(prune, batch[f.Index])
				}
			}
		}

		d.logger.Infow("push batch finished",
			"batch", i+1,
			"size", len(batch),
			"success", outcome.Success,
			"failure", outcome.Failure,
		)
	}

	if len(prune) > 0 {
		if err := d.registry.RemoveTokens(ctx, prune); err != nil {
			d.logger.Errorw("failed to prune unregistered tokens", "count", len(prune), "error", err)
		} else {
			d.logger.Infow("pruned unregistered tokens", "count", len(prune))
		}
	}

	d.logger.Infow("push dispatch summary",
		"title", payload.Title,
		"tokens_total", summary.TokensTotal,
		"skipped", summary.Skipped,
		"batches", summary.Batches,
		"success", summary.Success,
		"failure", summary.Failure,
	)

	return summary
}
