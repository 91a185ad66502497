package login

import usermodels "io.fixlink.jobboard/internal/models/account"

// LoginResponse carries the session JWT and the authenticated user.
type LoginResponse struct {
	Token string          `json:"token"`
	User  usermodels.User `json:"user"`
}
