package search_jobs

// SearchJobsRequest filters the job mirror; empty fields are ignored.
type SearchJobsRequest struct {
	Status        string `json:"status,omitempty"`
	Zip           string `json:"zip,omitempty"`
	ApplianceType string `json:"applianceType,omitempty"`
	VendorID      string `json:"vendorId,omitempty"`
	SONumber      string `json:"soNumber,omitempty"`
	Limit         int64  `json:"limit,omitempty"`
}
