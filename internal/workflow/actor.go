package workflow

// RoleAdmin is the elevated role that satisfies admin-gated transitions and
// approver overrides. Resolved once per request by the auth layer; the core
// never queries user records mid-operation.
const RoleAdmin = "admin"

// SystemOperator is recorded as the operator of automatic transitions.
const SystemOperator = "system"

// Actor is the explicit actor context passed into every core operation.
type Actor struct {
	ID    string
	Roles map[string]struct{}
}

// NewActor builds an actor context from an ID and role list.
func NewActor(id string, roles ...string) Actor {
	a := Actor{ID: id, Roles: make(map[string]struct{}, len(roles))}
	for _, r := range roles {
		a.Roles[r] = struct{}{}
	}
	return a
}

// HasRole reports whether the actor carries the given role.
func (a Actor) HasRole(role string) bool {
	_, ok := a.Roles[role]
	return ok
}

// IsAdmin reports whether the actor carries the elevated role.
func (a Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}
