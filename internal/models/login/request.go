package login

// LoginRequest authenticates a vendor user. PushToken, when present, is
// registered for the account as part of the login.
type LoginRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	PushToken string `json:"pushToken,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

// LogoutRequest ends a session. PushToken, when it matches a registered
// token, is removed from the account.
type LogoutRequest struct {
	PushToken string `json:"pushToken,omitempty"`
}

// CreateAccountRequest registers a vendor user together with its company
// profile.
type CreateAccountRequest struct {
	Email          string   `json:"email" binding:"required"`
	Password       string   `json:"password" binding:"required"`
	DisplayName    string   `json:"displayName,omitempty"`
	CompanyName    string   `json:"companyName" binding:"required"`
	ContactName    string   `json:"contactName,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	ServiceAreas   []string `json:"serviceAreas,omitempty"`
	ApplianceTypes []string `json:"applianceTypes,omitempty"`
}
