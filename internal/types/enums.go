package types

// Workspace status values
const (
	WorkspaceActive      = "ACTIVE"
	WorkspaceWindingDown = "WINDING_DOWN"
	WorkspaceDissolved   = "DISSOLVED"
)

// Team member status values
const (
	MemberActive  = "ACTIVE"
	MemberPending = "PENDING"
	MemberRemoved = "REMOVED"
)

// Workspace roles, highest tier first
const (
	RoleWorkspaceOwner      = "WORKSPACE_OWNER"
	RoleEventCoordinator    = "EVENT_COORDINATOR"
	RoleVolunteerManager    = "VOLUNTEER_MANAGER"
	RoleTeamLead            = "TEAM_LEAD"
	RoleTechnicalSpecialist = "TECHNICAL_SPECIALIST"
	RoleMarketingLead       = "MARKETING_LEAD"
	RoleGeneralVolunteer    = "GENERAL_VOLUNTEER"
)

// Task status values
const (
	TaskNotStarted     = "NOT_STARTED"
	TaskInProgress     = "IN_PROGRESS"
	TaskReviewRequired = "REVIEW_REQUIRED"
	TaskCompleted      = "COMPLETED"
	TaskBlocked        = "BLOCKED"
)

// Task priority values
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// Task category values
const (
	CategoryLogistics    = "LOGISTICS"
	CategoryMarketing    = "MARKETING"
	CategoryTechnical    = "TECHNICAL"
	CategorySetup        = "SETUP"
	CategoryCoordination = "COORDINATION"
	CategoryFinance      = "FINANCE"
)

// Task dependency types, standard project-scheduling semantics
const (
	DependencyFinishToStart  = "FINISH_TO_START"
	DependencyStartToStart   = "START_TO_START"
	DependencyFinishToFinish = "FINISH_TO_FINISH"
)

// Invitation status values
const (
	InvitationPending   = "PENDING"
	InvitationAccepted  = "ACCEPTED"
	InvitationCancelled = "CANCELLED"
	InvitationExpired   = "EXPIRED"
)

// Default channels created on provisioning, in creation order
var DefaultChannelNames = []string{"general", "announcements", "tasks"}

var ValidRoles = []string{
	RoleWorkspaceOwner, RoleEventCoordinator, RoleVolunteerManager,
	RoleTeamLead, RoleTechnicalSpecialist, RoleMarketingLead,
	RoleGeneralVolunteer,
}

// Roles an invitation may carry: everything except owner, which only
// provisioning assigns.
var InvitableRoles = []string{
	RoleEventCoordinator, RoleVolunteerManager, RoleTeamLead,
	RoleTechnicalSpecialist, RoleMarketingLead, RoleGeneralVolunteer,
}

var ValidTaskStatuses = []string{
	TaskNotStarted, TaskInProgress, TaskReviewRequired,
	TaskCompleted, TaskBlocked,
}

var ValidPriorities = []string{PriorityHigh, PriorityMedium, PriorityLow}

var ValidTaskCategories = []string{
	CategoryLogistics, CategoryMarketing, CategoryTechnical,
	CategorySetup, CategoryCoordination, CategoryFinance,
}

var ValidDependencyTypes = []string{
	DependencyFinishToStart, DependencyStartToStart, DependencyFinishToFinish,
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func IsValidRole(role string) bool { return contains(ValidRoles, role) }

func IsInvitableRole(role string) bool { return contains(InvitableRoles, role) }

func IsValidTaskStatus(status string) bool { return contains(ValidTaskStatuses, status) }

func IsValidPriority(priority string) bool { return contains(ValidPriorities, priority) }

func IsValidTaskCategory(category string) bool { return contains(ValidTaskCategories, category) }

func IsValidDependencyType(depType string) bool { return contains(ValidDependencyTypes, depType) }

// WorkspaceTransitions maps each workspace status to the statuses reachable
// from it. The lifecycle is linear: ACTIVE -> WINDING_DOWN -> DISSOLVED.
var WorkspaceTransitions = map[string][]string{
	WorkspaceActive:      {WorkspaceWindingDown},
	WorkspaceWindingDown: {WorkspaceDissolved},
	WorkspaceDissolved:   {},
}

func CanTransitionWorkspace(from, to string) bool {
	return contains(WorkspaceTransitions[from], to)
}

// TaskHasStarted reports whether a task status counts as "started" for
// Start-to-Start dependency gating.
func TaskHasStarted(status string) bool {
	return status == TaskInProgress || status == TaskReviewRequired || status == TaskCompleted
}
