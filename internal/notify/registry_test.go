package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAudienceQueryCastsVendorID(t *testing.T) {
	// vendor_id is a uuid column; without the ::text cast Postgres coerces
	// the '' fallback to uuid and rejects the statement at parse time.
	query, args := audienceQuery(nil)
	assert.Contains(t, query, "COALESCE(u.vendor_id::text, '')")
	assert.NotContains(t, query, "COALESCE(u.vendor_id, '')")
	assert.Empty(t, args)
}

func TestAudienceQueryWithoutFilterSkipsVendorJoin(t *testing.T) {
	query, _ := audienceQuery(nil)
	assert.NotContains(t, query, "JOIN vendors")
	assert.NotContains(t, query, "\n\t\tWHERE ")

	// An empty filter behaves like no filter at all.
	emptyQuery, emptyArgs := audienceQuery(&AudienceFilter{})
	assert.Equal(t, query, emptyQuery)
	assert.Empty(t, emptyArgs)
}

func TestAudienceQueryFullFilter(t *testing.T) {
	query, args := audienceQuery(&AudienceFilter{Zip: "78701", ApplianceType: "dishwasher"})
	assert.Contains(t, query, "JOIN vendors v ON v.id = u.vendor_id")
	assert.Contains(t, query, "$1 = ANY(v.service_areas)")
	assert.Contains(t, query, "$2 = ANY(v.appliance_types)")
	assert.Equal(t, []interface{}{"78701", "dishwasher"}, args)
}

func TestAudienceQueryPartialFilterDropsMissingClause(t *testing.T) {
	query, args := audienceQuery(&AudienceFilter{ApplianceType: "dishwasher"})
	assert.Contains(t, query, "$1 = ANY(v.appliance_types)")
	assert.NotContains(t, query, "service_areas")
	assert.Equal(t, []interface{}{"dishwasher"}, args)

	query, args = audienceQuery(&AudienceFilter{Zip: "78701"})
	assert.Contains(t, query, "$1 = ANY(v.service_areas)")
	assert.NotContains(t, query, "appliance_types")
	assert.Equal(t, []interface{}{"78701"}, args)
}

func TestAudienceQueryKeepsTokenHaving(t *testing.T) {
	query, _ := audienceQuery(nil)
	assert.Contains(t, query, "HAVING COUNT(pt.token) > 0 OR COALESCE(u.last_push_token, '') <> ''")
}
