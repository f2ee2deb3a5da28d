// Package access decides which tickets a profile may see and which actions it may
// take. Every function takes the acting profile as an argument; nothing here reads
// session state.
package access

import (
	"github.com/spec-kit/helpdesk/internal/domain"
)

// Action is a permission-checked operation.
type Action string

const (
	ActionView             Action = "view"
	ActionComment          Action = "comment"
	ActionCommentInternal  Action = "comment_internal"
	ActionVote             Action = "vote"
	ActionUpdateStatus     Action = "update_status"
	ActionUpdatePriority   Action = "update_priority"
	ActionAssign           Action = "assign"
	ActionViewHistory      Action = "view_history"
	ActionManageCategories Action = "manage_categories"
	ActionManageRoles      Action = "manage_roles"
)

// Default redirect targets used by Guard.
const (
	DashboardPath = "/dashboard"
	AuthPath      = "/auth"
)

// requiredRole is the minimum role for each action. Owner-scoped actions are listed
// at RoleUser and additionally require ownership for that tier.
var requiredRole = map[Action]domain.Role{
	ActionView:             domain.RoleUser,
	ActionComment:          domain.RoleUser,
	ActionVote:             domain.RoleUser,
	ActionCommentInternal:  domain.RoleAgent,
	ActionUpdateStatus:     domain.RoleAgent,
	ActionUpdatePriority:   domain.RoleAgent,
	ActionAssign:           domain.RoleAgent,
	ActionViewHistory:      domain.RoleAgent,
	ActionManageCategories: domain.RoleAdmin,
	ActionManageRoles:      domain.RoleAdmin,
}

// Level returns the capability ordinal of a role: user 0, agent 1, admin 2.
// RoleUnknown ranks with user.
func Level(role domain.Role) int {
	switch role {
	case domain.RoleAgent:
		return 1
	case domain.RoleAdmin:
		return 2
	default:
		return 0
	}
}

// HasAtLeastRole reports whether the profile's level is at or above the required
// role's level. A nil profile has no capabilities.
func HasAtLeastRole(profile *domain.Profile, required domain.Role) bool {
	if profile == nil {
		return false
	}
	return Level(profile.Role) >= Level(required)
}

// SeesAll reports whether the profile's view of tickets is unscoped.
func SeesAll(profile *domain.Profile) bool {
	return HasAtLeastRole(profile, domain.RoleAgent)
}

// Scope returns the tickets visible to profile, preserving input order.
func Scope[T domain.Ticketed](profile *domain.Profile, tickets []T) []T {
	if profile == nil {
		return []T{}
	}
	if SeesAll(profile) {
		out := make([]T, len(tickets))
		copy(out, tickets)
		return out
	}
	out := make([]T, 0, len(tickets))
	for _, t := range tickets {
		if t.Base().CreatedBy == profile.ID {
			out = append(out, t)
		}
	}
	return out
}

// CreatedByScope returns the creator restriction the storage layer must apply for
// this profile, or nil when the profile sees every ticket.
func CreatedByScope(profile *domain.Profile) *string {
	if SeesAll(profile) {
		return nil
	}
	if profile == nil {
		none := ""
		return &none
	}
	id := profile.ID
	return &id
}

// CanView reports whether the profile may read the ticket.
func CanView(profile *domain.Profile, ticket domain.Ticketed) bool {
	return Can(profile, ActionView, ticket)
}

// Can reports whether profile may perform action on ticket. ticket may be nil for
// actions that are not ticket-bound.
func Can(profile *domain.Profile, action Action, ticket domain.Ticketed) bool {
	required, ok := requiredRole[action]
	if !ok || !HasAtLeastRole(profile, required) {
		return false
	}
	if SeesAll(profile) {
		return true
	}
	if ticket == nil {
		return false
	}
	return ticket.Base().CreatedBy == profile.ID
}

// Decision is the outcome of a route-level role check. A denied decision is a
// navigation target, not an error.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Guard checks route access. Missing profiles go to the auth page; profiles below the
// required role go back to the dashboard.
func Guard(profile *domain.Profile, required domain.Role) Decision {
	if profile == nil {
		return Decision{RedirectTo: AuthPath}
	}
	if !HasAtLeastRole(profile, required) {
		return Decision{RedirectTo: DashboardPath}
	}
	return Decision{Allowed: true}
}
