package policy

import "github.com/google/uuid"

// Role is the single role assigned to every account.
type Role string

const (
	RolePlayer     Role = "player"
	RoleDOTOfficer Role = "dot_officer"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePlayer, RoleDOTOfficer, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// Action identifies a role-gated operation. Every privileged branch in the
// services goes through IsPrivileged with one of these instead of comparing
// role strings inline.
type Action string

const (
	ActionIssueTicket    Action = "ticket.issue"
	ActionReviewDispute  Action = "ticket.review_dispute"
	ActionAddTicketItem  Action = "ticket.add_item"
	ActionViewAllTickets Action = "ticket.view_all"
	ActionLogInspection  Action = "inspection.log"
	ActionReviewPermit   Action = "permit.review"
	ActionModerateMarket Action = "market.moderate"
	ActionManageVehicles Action = "vehicle.manage"
	ActionListUsers      Action = "user.list"
	ActionPromoteUser    Action = "user.promote"
	ActionManageCompany  Action = "company.manage"
	ActionViewAuditLog   Action = "audit.view"
)

// privileged maps each action to the roles allowed to perform it regardless
// of resource ownership. DOT actions include dot_officer; administrative
// actions do not. Promote and company management are admin-only, matching
// the original site rules.
var privileged = map[Action][]Role{
	ActionIssueTicket:    {RoleDOTOfficer, RoleSupervisor, RoleAdmin},
	ActionReviewDispute:  {RoleDOTOfficer, RoleSupervisor, RoleAdmin},
	ActionAddTicketItem:  {RoleDOTOfficer, RoleSupervisor, RoleAdmin},
	ActionViewAllTickets: {RoleDOTOfficer, RoleSupervisor, RoleAdmin},
	ActionLogInspection:  {RoleDOTOfficer, RoleSupervisor, RoleAdmin},
	ActionReviewPermit:   {RoleSupervisor, RoleAdmin},
	ActionModerateMarket: {RoleSupervisor, RoleAdmin},
	ActionManageVehicles: {RoleSupervisor, RoleAdmin},
	ActionListUsers:      {RoleSupervisor, RoleAdmin},
	ActionPromoteUser:    {RoleAdmin},
	ActionManageCompany:  {RoleAdmin},
	ActionViewAuditLog:   {RoleSupervisor, RoleAdmin},
}

// Actor is the authenticated identity handed to every workflow. Services
// receive it explicitly instead of reading ambient session state.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsPrivileged reports whether role may perform action on any resource.
func IsPrivileged(role Role, action Action) bool {
	for _, r := range privileged[action] {
		if r == role {
			return true
		}
	}
	return false
}

// CanManage reports whether actor may mutate a resource owned by ownerID:
// either the actor owns it or their role is privileged for the action.
func CanManage(actor Actor, ownerID uuid.UUID, action Action) bool {
	return actor.ID == ownerID || IsPrivileged(actor.Role, action)
}
