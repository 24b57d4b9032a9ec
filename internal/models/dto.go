package models

// TokenResponse is returned by the login endpoint.
type TokenResponse struct {
	Token     string  `json:"token"`
	UserName  string  `json:"user_name"`
	Roles     RoleSet `json:"roles"`
	ExpiresIn int     `json:"expires_in"` // seconds
}

// TrustEdgeResponse is the (reviewer, weight) pair the trust graph exposes.
type TrustEdgeResponse struct {
	ReviewerUserName string `json:"reviewer_user_name"`
	ReviewerName     string `json:"reviewer_name,omitempty"`
	Weight           int    `json:"weight"`
}

// RoleRequestSummary is the flattened view the admin screens bind to.
type RoleRequestSummary struct {
	ID        uint          `json:"id"`
	UserName  string        `json:"user_name"`
	FullName  string        `json:"full_name"`
	Requested RoleSet       `json:"requested"`
	Status    RequestStatus `json:"status"`
}
