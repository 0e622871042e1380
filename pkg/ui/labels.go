package ui

import "github.com/go-go-golems/gatecrash/pkg/wire"

// Display labels for the roles the service uses. Unknown roles are shown
// as-is so new server-side personas stay visible.
var roleLabels = map[string]string{
	wire.RoleGreeter:    "AI Agent",
	wire.RoleGatekeeper: "Gatekeeper",
	wire.RoleCandidate:  "You",
	wire.RoleSystem:     "System",
}

// RoleLabel maps a wire role to the label shown next to a conversation
// entry.
func RoleLabel(role string) string {
	if label, ok := roleLabels[role]; ok {
		return label
	}
	return role
}
