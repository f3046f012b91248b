package entities

import "strings"

// Session is the explicit context for every registry and workflow call.
// It is created when a profile is opened and discarded when the command exits.
type Session struct {
	UnionID string
	UserID  string
}

// NewSession builds a session for the given union. An empty union identifier
// means the caller never authenticated.
func NewSession(unionID, userID string) (Session, error) {
	unionID = strings.TrimSpace(unionID)
	if unionID == "" {
		return Session{}, ErrUnauthenticated
	}
	return Session{UnionID: unionID, UserID: strings.TrimSpace(userID)}, nil
}

// Valid reports whether the session carries a union identifier.
func (s Session) Valid() bool {
	return s.UnionID != ""
}
