package model

// Profile roles. New profiles default to the field worker role; the role
// assigner promotes allowlisted phone numbers to official.
const (
	RoleHealthWorker = "health_worker"
	RoleOfficial     = "official"
)

// UserProfile is a user profile row. The role assigner mutates Role at most
// once, on the insert event.
type UserProfile struct {
	ID          string  `json:"id"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Role        string  `json:"role,omitempty"`
}

// Phone returns the profile's phone number, or "" when absent.
func (p UserProfile) Phone() string {
	if p.PhoneNumber == nil {
		return ""
	}
	return *p.PhoneNumber
}
