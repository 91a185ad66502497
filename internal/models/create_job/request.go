package create_job

// CreateJobRequest mirrors the fields accepted by the external job board.
type CreateJobRequest struct {
	SONumber      string `json:"soNumber" binding:"required"`
	Description   string `json:"description,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Zip           string `json:"zip,omitempty"`
	ApplianceType string `json:"applianceType,omitempty"`
	VendorName    string `json:"vendorName,omitempty"`
}
