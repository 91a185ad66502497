package extract_label

// ExtractLabelRequest points at an uploaded appliance label photo.
type ExtractLabelRequest struct {
	ImageURL string `json:"imageUrl" binding:"required"`
}
