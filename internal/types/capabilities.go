package types

// Capability is a single action a role may perform inside a workspace.
// Authorization is always a role lookup through this closed set, never a
// comparison against free-form permission strings.
type Capability string

const (
	CapViewWorkspace     Capability = "VIEW_WORKSPACE"
	CapManageWorkspace   Capability = "MANAGE_WORKSPACE"
	CapInviteMembers     Capability = "INVITE_MEMBERS"
	CapManageMembers     Capability = "MANAGE_MEMBERS"
	CapCreateTasks       Capability = "CREATE_TASKS"
	CapEditTasks         Capability = "EDIT_TASKS"
	CapAssignTasks       Capability = "ASSIGN_TASKS"
	CapManageTemplates   Capability = "MANAGE_TEMPLATES"
	CapViewAuditLog      Capability = "VIEW_AUDIT_LOG"
	CapDissolveWorkspace Capability = "DISSOLVE_WORKSPACE"
)

// roleCapabilities is the static role -> capability-set table. Owner holds
// everything; tiers below narrow progressively down to GENERAL_VOLUNTEER,
// who can only view (volunteers may still update tasks assigned to them,
// enforced by an assignee check in the task engine, not a capability).
var roleCapabilities = map[string]map[Capability]bool{
	RoleWorkspaceOwner: capSet(
		CapViewWorkspace, CapManageWorkspace, CapInviteMembers, CapManageMembers,
		CapCreateTasks, CapEditTasks, CapAssignTasks, CapManageTemplates,
		CapViewAuditLog, CapDissolveWorkspace,
	),
	RoleEventCoordinator: capSet(
		CapViewWorkspace, CapManageWorkspace, CapInviteMembers, CapManageMembers,
		CapCreateTasks, CapEditTasks, CapAssignTasks, CapManageTemplates,
		CapViewAuditLog,
	),
	RoleVolunteerManager: capSet(
		CapViewWorkspace, CapInviteMembers, CapManageMembers,
		CapCreateTasks, CapEditTasks, CapAssignTasks,
	),
	RoleTeamLead: capSet(
		CapViewWorkspace, CapCreateTasks, CapEditTasks, CapAssignTasks,
	),
	RoleTechnicalSpecialist: capSet(
		CapViewWorkspace, CapCreateTasks, CapEditTasks,
	),
	RoleMarketingLead: capSet(
		CapViewWorkspace, CapCreateTasks, CapEditTasks,
	),
	RoleGeneralVolunteer: capSet(
		CapViewWorkspace,
	),
}

func capSet(caps ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return m
}

// RoleHasCapability reports whether the given role grants the capability.
// Unknown roles grant nothing.
func RoleHasCapability(role string, cap Capability) bool {
	return roleCapabilities[role][cap]
}

// CapabilitiesForRole returns the capability strings a role grants, in a
// stable order. Used to populate TeamMember.Permissions on responses.
func CapabilitiesForRole(role string) []string {
	all := []Capability{
		CapViewWorkspace, CapManageWorkspace, CapInviteMembers, CapManageMembers,
		CapCreateTasks, CapEditTasks, CapAssignTasks, CapManageTemplates,
		CapViewAuditLog, CapDissolveWorkspace,
	}
	var out []string
	for _, c := range all {
		if roleCapabilities[role][c] {
			out = append(out, string(c))
		}
	}
	return out
}
