package request

// SetTokenRequest installs the bearer token of the pharmacy API session
type SetTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
