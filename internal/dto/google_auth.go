package dto

// GoogleLoginResponse represents the response for Google login initiation
type GoogleLoginResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// GoogleUserInfo represents Google user information
type GoogleUserInfo struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Verified   bool   `json:"verified_email"`
}
