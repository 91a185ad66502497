package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	jobmodels "io.fixlink.jobboard/internal/models/job"
)

type fakeAssigner struct {
	assigned  map[string]string
	assignErr error
}

func (f *fakeAssigner) Assign(ctx context.Context, jobID, vendorID string) error {
	if f.assignErr != nil {
		return f.assignErr
	}
	if f.assigned == nil {
		f.assigned = make(map[string]string)
	}
	f.assigned[jobID] = vendorID
	return nil
}

func newTestHook(registry Registry, sender Sender, assigner Assigner, vendorMatch bool) *Hook {
	d := newTestDispatcher(registry, sender, Options{})
	return NewHook(d, registry, assigner, zap.NewNop().Sugar(), vendorMatch)
}

func testJob() jobmodels.Job {
	return jobmodels.Job{
		ID:            "job-1",
		SONumber:      "SO-1001",
		City:          "Austin",
		State:         "TX",
		Zip:           "78701",
		ApplianceType: "dishwasher",
	}
}

func TestJobCreatedWithoutVendorMatchBroadcasts(t *testing.T) {
	registry := &fakeRegistry{accounts: []Account{{UID: "u1", Tokens: []string{validFCMToken()}}}}
	sender := &fakeSender{}
	h := newTestHook(registry, sender, nil, false)

	h.JobCreated(context.Background(), testJob())

	assert.Nil(t, registry.lastFilter)
	assert.Len(t, sender.sent, 1)
}

func TestJobCreatedVendorMatchBuildsFilter(t *testing.T) {
	registry := &fakeRegistry{}
	h := newTestHook(registry, &fakeSender{}, nil, true)

	h.JobCreated(context.Background(), testJob())

	require.NotNil(t, registry.lastFilter)
	assert.Equal(t, "78701", registry.lastFilter.Zip)
	assert.Equal(t, "dishwasher", registry.lastFilter.ApplianceType)
}

func TestJobCreatedVendorMatchNoFieldsFallsBackToBroadcast(t *testing.T) {
	registry := &fakeRegistry{accounts: []Account{{UID: "u1", Tokens: []string{validFCMToken()}}}}
	sender := &fakeSender{}
	h := newTestHook(registry, sender, nil, true)

	j := testJob()
	j.Zip = ""
	j.ApplianceType = ""
	h.JobCreated(context.Background(), j)

	assert.Nil(t, registry.lastFilter)
	assert.Len(t, sender.sent, 1)
}

func TestJobCreatedAutoAssignsSoleMatch(t *testing.T) {
	registry := &fakeRegistry{accounts: []Account{
		{UID: "u1", VendorID: "v1", Tokens: []string{validFCMToken()}},
		{UID: "u2", VendorID: "v1", LastToken: validFCMToken()},
	}}
	sender := &fakeSender{}
	assigner := &fakeAssigner{}
	h := newTestHook(registry, sender, assigner, true)

	h.JobCreated(context.Background(), testJob())

	assert.Equal(t, map[string]string{"job-1": "v1"}, assigner.assigned)
	assert.Len(t, sender.sent, 1)
}

func TestJobCreatedNoAutoAssignWithMultipleVendors(t *testing.T) {
	registry := &fakeRegistry{accounts: []Account{
		{UID: "u1", VendorID: "v1", Tokens: []string{validFCMToken()}},
		{UID: "u2", VendorID: "v2", Tokens: []string{validFCMToken() + "b"}},
	}}
	assigner := &fakeAssigner{}
	h := newTestHook(registry, &fakeSender{}, assigner, true)

	h.JobCreated(context.Background(), testJob())

	assert.Empty(t, assigner.assigned)
}

func TestJobCreatedNoAutoAssignWithPartialFilter(t *testing.T) {
	registry := &fakeRegistry{accounts: []Account{
		{UID: "u1", VendorID: "v1", Tokens: []string{validFCMToken()}},
	}}
	assigner := &fakeAssigner{}
	h := newTestHook(registry, &fakeSender{}, assigner, true)

	// A zip without an appliance type keeps the match ambiguous.
	j := testJob()
	j.ApplianceType = ""
	h.JobCreated(context.Background(), j)

	assert.Empty(t, assigner.assigned)
}

func TestJobCreatedAssignFailureStillDelivers(t *testing.T) {
	registry := &fakeRegistry{accounts: []Account{
		{UID: "u1", VendorID: "v1", Tokens: []string{validFCMToken()}},
	}}
	sender := &fakeSender{}
	assigner := &fakeAssigner{assignErr: errors.New("write conflict")}
	h := newTestHook(registry, sender, assigner, true)

	h.JobCreated(context.Background(), testJob())

	assert.Len(t, sender.sent, 1)
}

func TestJobCreatedResolveErrorDropsQuietly(t *testing.T) {
	registry := &fakeRegistry{resolveErr: errors.New("db down")}
	sender := &fakeSender{}
	h := newTestHook(registry, sender, nil, true)

	h.JobCreated(context.Background(), testJob())

	assert.Empty(t, sender.sent)
}

func TestJobCreatedRecoversPanics(t *testing.T) {
	h := NewHook(nil, &fakeRegistry{}, nil, zap.NewNop().Sugar(), false)

	// A nil dispatcher panics inside the hook; the recover must contain it.
	assert.NotPanics(t, func() {
		h.JobCreated(context.Background(), testJob())
	})
}

func TestJobPayloadBodies(t *testing.T) {
	full := JobPayload(testJob())
	assert.Equal(t, "New Job Available", full.Title)
	assert.Equal(t, "New dishwasher job in Austin, TX", full.Body)

	cityOnly := testJob()
	cityOnly.ApplianceType = ""
	assert.Equal(t, "New job in Austin, TX", JobPayload(cityOnly).Body)

	applianceOnly := testJob()
	applianceOnly.City = ""
	assert.Equal(t, "New dishwasher job posted", JobPayload(applianceOnly).Body)

	bare := jobmodels.Job{ID: "job-2"}
	assert.Equal(t, "A new service request was posted", JobPayload(bare).Body)
}

func TestJobPayloadData(t *testing.T) {
	p := JobPayload(testJob())
	assert.Equal(t, map[string]string{
		"job_id":         "job-1",
		"so_number":      "SO-1001",
		"city":           "Austin",
		"state":          "TX",
		"zip":            "78701",
		"appliance_type": "dishwasher",
	}, p.Data)
}
