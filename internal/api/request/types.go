package request

// RegisterRequest is the request body for registering an account
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// OpenSlotRequest is the request body for opening a save slot
type OpenSlotRequest struct {
	Source   string `json:"source,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

// CommitSlotRequest is the request body for committing data to an opened slot
type CommitSlotRequest struct {
	Version      int64   `json:"version"`
	Description  *string `json:"description,omitempty"`
	PlayedTimeMs *int64  `json:"played_time_ms,omitempty"`
	Data         []byte  `json:"data"` // base64 on the wire
}
