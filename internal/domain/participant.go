package domain

type (
	// Role represents the role of a participant.
	Role string
	// PresenceStatus represents the live connectivity status of a participant.
	PresenceStatus string
)

// List of possible participant roles
const (
	RoleCourier      Role = "courier"
	RoleCustomer     Role = "customer"
	RoleCounterparty Role = "counterparty"
)

// List of possible presence statuses
const (
	StatusOnline  PresenceStatus = "online"
	StatusAway    PresenceStatus = "away"
	StatusOffline PresenceStatus = "offline"
)

var allowedRoles = [...]Role{
	RoleCourier, RoleCustomer, RoleCounterparty,
}

var allowedStatuses = [...]PresenceStatus{
	StatusOnline, StatusAway, StatusOffline,
}

// Valid checks if the Role is valid
func (r Role) Valid() bool {
	for _, v := range allowedRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Valid checks if the PresenceStatus is valid
func (s PresenceStatus) Valid() bool {
	for _, v := range allowedStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Participant represents a connected identity. The identity string arrives
// already authenticated; the core never interprets it.
type Participant struct {
	Identity string
	Role     Role
	Status   PresenceStatus
}
