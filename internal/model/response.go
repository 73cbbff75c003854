package model

// APIResponse is the envelope for every JSON response. AccessToken and
// TokenType are set only by register and login; Errors only by validation
// failures.
type APIResponse struct {
	Status      bool                `json:"status"`
	Data        any                 `json:"data,omitempty"`
	AccessToken string              `json:"access_token,omitempty"`
	TokenType   string              `json:"token_type,omitempty"`
	Message     string              `json:"message,omitempty"`
	Errors      map[string][]string `json:"errors,omitempty"`
}
