package domain

type Role string

const (
	RoleHost     Role = "host"
	RoleListener Role = "listener"
)

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	User        *User
	DisplayName string
	Role        Role
	IsVideoOn   bool
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(user *User, displayName string, role Role) *Member {
	return &Member{User: user, DisplayName: displayName, Role: role}
}
