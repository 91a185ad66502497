package job

import "time"

// Assignment statuses.
const (
	StatusOpen      = "open"
	StatusAssigned  = "assigned"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Job is a service request mirrored from the external job board. Unknown
// upstream fields are ignored on decode.
type Job struct {
	ID            string    `bson:"_id" json:"id"`
	ExternalID    string    `bson:"external_id,omitempty" json:"externalId,omitempty"`
	SONumber      string    `bson:"so_number" json:"soNumber"`
	Description   string    `bson:"description,omitempty" json:"description,omitempty"`
	CustomerName  string    `bson:"customer_name,omitempty" json:"customerName,omitempty"`
	Address       string    `bson:"address,omitempty" json:"address,omitempty"`
	City          string    `bson:"city,omitempty" json:"city,omitempty"`
	State         string    `bson:"state,omitempty" json:"state,omitempty"`
	Zip           string    `bson:"zip,omitempty" json:"zip,omitempty"`
	ApplianceType string    `bson:"appliance_type,omitempty" json:"applianceType,omitempty"`
	VendorID      string    `bson:"vendor_id,omitempty" json:"vendorId,omitempty"`
	VendorName    string    `bson:"vendor_name,omitempty" json:"vendorName,omitempty"`
	Status        string    `bson:"status" json:"status"`
	PhotoURLs     []string  `bson:"photo_urls,omitempty" json:"photoUrls,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}
