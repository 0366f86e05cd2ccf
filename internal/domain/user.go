package domain

// UserRole controls what a caller may act on. User can only act "for
// themselves"; Admin and Root may act on behalf of others and call
// admin-only operations (force_decision_period, pay_bet, reading all
// bets/cash-outs).
type UserRole string

const (
	RoleUser  UserRole = "User"
	RoleAdmin UserRole = "Admin"
	RoleRoot  UserRole = "Root"
)

// CanActOnBehalfOfOthers reports whether the role may supply a user field
// that differs from the authenticated access principal.
func (r UserRole) CanActOnBehalfOfOthers() bool {
	return r == RoleAdmin || r == RoleRoot
}

// User is a pubkey-identified account with an optional display name.
type User struct {
	PubKey      PubKey   `json:"pubkey"       db:"pubkey"`
	DisplayName *string  `json:"display_name" db:"display_name"`
	Role        UserRole `json:"role"         db:"role"`
}

// UserResponse is the API-safe view of a User.
type UserResponse struct {
	PubKey      PubKey   `json:"pubkey"`
	DisplayName *string  `json:"display_name,omitempty"`
	Role        UserRole `json:"role"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{PubKey: u.PubKey, DisplayName: u.DisplayName, Role: u.Role}
}
