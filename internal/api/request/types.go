package request

// CreateSessionRequest is the request body for opening a session
type CreateSessionRequest struct {
	Name string `json:"name,omitempty"`
}

// JoinSessionRequest is the request body for joining a session by PIN
type JoinSessionRequest struct {
	Name string `json:"name"`
}

// SetNameRequest is the request body for renaming a player
type SetNameRequest struct {
	Name string `json:"name"`
}

// AdvanceRequest is the request body for moving a session on. Expected,
// when set, makes the call a no-op failure unless the session is still there.
type AdvanceRequest struct {
	Expected string `json:"expected,omitempty"`
}

// ExchangeRequest is the request body for a player's end-of-round decision
type ExchangeRequest struct {
	Round  int  `json:"round"`
	Traded bool `json:"traded"`
}
