package models

import "strings"

// AnonymousLabel is shown when the session carries neither a display name
// nor an email address.
const AnonymousLabel = "Anonymous"

// Identity is the current user as handed over by the sign-in layer.
type Identity struct {
	UserID      string  `json:"user_id"`
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// Label returns the display name, else the local part of the email address,
// else AnonymousLabel. Blank values count as absent.
func (i Identity) Label() string {
	if i.DisplayName != nil {
		if name := strings.TrimSpace(*i.DisplayName); name != "" {
			return name
		}
	}
	if i.Email != nil {
		local, _, _ := strings.Cut(strings.TrimSpace(*i.Email), "@")
		if local != "" {
			return local
		}
	}
	return AnonymousLabel
}
