package domain

// SessionStatus is the lifecycle state of the visitor's session.
type SessionStatus string

const (
	StatusUnauthenticated SessionStatus = "unauthenticated"
	StatusVerifying       SessionStatus = "verifying"
	StatusAuthenticated   SessionStatus = "authenticated"
)

// User is the canonical account record returned by the verify endpoint.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Session is a point-in-time copy of the visitor's identity.
// A non-nil User always comes with a non-empty Token.
type Session struct {
	Token  string        `json:"-"`
	User   *User         `json:"user"`
	Status SessionStatus `json:"status"`
}

// Authenticated reports whether the session carries a verified identity.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.Token != "" && s.User != nil
}

// UserID returns the user's id, or "" for guests.
func (s Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}
