package entity

// Identity is the user snapshot asserted by a session token at issuance time.
// It is not refreshed from the store, so it can be stale for the token's lifetime.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
