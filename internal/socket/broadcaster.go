// internal/socket/broadcaster.go
package socket

// Broadcaster adapts the hub to the event names used by the service
// layer. Each workspace event fans out to the clients subscribed to
// that workspace's room.
type Broadcaster struct {
	hub *Hub
}

func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// eventMessageTypes maps service event names onto wire message types.
var eventMessageTypes = map[string]MessageType{
	"workspace.provisioned":   MessageWorkspaceProvisioned,
	"workspace.updated":       MessageWorkspaceUpdated,
	"workspace.winding_down":  MessageWorkspaceWindingDown,
	"workspace.dissolved":     MessageWorkspaceDissolved,
	"member.joined":           MessageMemberJoined,
	"member.removed":          MessageMemberRemoved,
	"member.role_changed":     MessageMemberRoleChanged,
	"task.created":            MessageTaskCreated,
	"task.updated":            MessageTaskUpdated,
	"task.status_changed":     MessageTaskStatusChanged,
	"task.assigned":           MessageTaskAssigned,
	"task.dependency_added":   MessageTaskDependencyAdded,
	"task.dependency_removed": MessageTaskDependencyRemoved,
	"template.applied":        MessageTemplateApplied,
}

// WorkspaceEvent implements the service layer's broadcaster contract.
func (b *Broadcaster) WorkspaceEvent(workspaceID, eventType string, payload interface{}) {
	msgType, ok := eventMessageTypes[eventType]
	if !ok {
		msgType = MessageType(eventType)
	}

	b.hub.SendToRoom(WorkspaceRoom(workspaceID), msgType, map[string]interface{}{
		"workspaceId": workspaceID,
		"data":        payload,
	})
}
