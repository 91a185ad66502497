package notify

import (
	"context"
	"runtime/debug"

	"go.uber.org/zap"

	jobmodels "io.fixlink.jobboard/internal/models/job"
)

// Assigner writes a job assignment. Implemented by the job store; delivery
// itself never writes to the job collection.
type Assigner interface {
	Assign(ctx context.Context, jobID, vendorID string) error
}

// Hook is the post-create trigger: invoked in its own goroutine right after a
// job-creation write succeeds, detached from the HTTP response. When vendor
// matching is enabled the audience is narrowed to vendors covering the job's
// zip and appliance type, and an unambiguous single match is auto-assigned
// before delivery.
type Hook struct {
	dispatcher  *Dispatcher
	registry    Registry
	assigner    Assigner
	logger      *zap.SugaredLogger
	vendorMatch bool
}

func NewHook(dispatcher *Dispatcher, registry Registry, assigner Assigner, logger *zap.SugaredLogger, vendorMatch bool) *Hook {
	return &Hook{
		dispatcher:  dispatcher,
		registry:    registry,
		assigner:    assigner,
		logger:      logger,
		vendorMatch: vendorMatch,
	}
}

// JobCreated runs the fan-out for a freshly created job. It recovers its own
// panics and never surfaces anything to the creation caller.
func (h *Hook) JobCreated(ctx context.Context, j jobmodels.Job) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorw("panic in job-created hook",
				"job_id", j.ID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	payload := JobPayload(j)

	if !h.vendorMatch {
		h.dispatcher.Dispatch(ctx, payload, nil)
		return
	}

	// Each match clause is dropped, not failed, when the job lacks the field.
	var filter *AudienceFilter
	if j.Zip != "" || j.ApplianceType != "" {
		filter = &AudienceFilter{Zip: j.Zip, ApplianceType: j.ApplianceType}
	}

	accounts, err := h.registry.ResolveAudience(ctx, filter)
	if err != nil {
		h.logger.Errorw("vendor-match audience resolution failed, notification dropped",
			"job_id", j.ID, "error", err)
		return
	}

	h.autoAssignUnambiguousMatch(ctx, j, filter, accounts)

	h.dispatcher.DeliverTo(ctx, accounts, payload)
}

// autoAssignUnambiguousMatch assigns the job when both match clauses were in
// play and exactly one vendor satisfied them. Kept as its own rule, separate
// from delivery.
func (h *Hook) autoAssignUnambiguousMatch(ctx context.Context, j jobmodels.Job, filter *AudienceFilter, accounts []Account) {
	if h.assigner == nil || filter == nil || filter.Zip == "" || filter.ApplianceType == "" {
		return
	}

	vendors := make(map[string]struct{})
	for _, a := range accounts {
		if a.VendorID != "" {
			vendors[a.VendorID] = struct{}{}
		}
	}
	if len(vendors) != 1 {
		return
	}

	var vendorID string
	for id := range vendors {
		vendorID = id
	}

	if err := h.assigner.Assign(ctx, j.ID, vendorID); err != nil {
		h.logger.Errorw("auto-assign failed", "job_id", j.ID, "vendor_id", vendorID, "error", err)
		return
	}
	h.logger.Infow("job auto-assigned to sole matching vendor", "job_id", j.ID, "vendor_id", vendorID)
}

// JobPayload builds the notification content for a newly created job. Data
// values are strings only (FCM constraint).
func JobPayload(j jobmodels.Job) Payload {
	body := "A new service request was posted"
	switch {
	case j.ApplianceType != "" && j.City != "":
		body = "New " + j.ApplianceType + " job in " + j.City + ", " + j.State
	case j.City != "":
		body = "New job in " + j.City + ", " + j.State
	case j.ApplianceType != "":
		body = "New " + j.ApplianceType + " job posted"
	}
	return Payload{
		Title: "New Job Available",
		Body:  body,
		Data: map[string]string{
			"job_id":         j.ID,
			"so_number":      j.SONumber,
			"city":           j.City,
			"state":          j.State,
			"zip":            j.Zip,
			"appliance_type": j.ApplianceType,
		},
	}
}
