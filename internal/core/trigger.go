package core

// EventPush is the only event type the runner reacts to.
const EventPush = "push"

// Event is an incoming trigger event. RepoPath points at the source tree
// the checkout action copies into job workspaces.
type Event struct {
	Type     string `json:"type"`
	Branch   string `json:"branch"`
	Commit   string `json:"commit,omitempty"`
	RepoPath string `json:"repoPath,omitempty"`
}

// MatchTrigger reports whether an event should start the workflow: the
// event must be a push and its branch must be literally equal to one of
// the configured branches.
func MatchTrigger(t Trigger, ev Event) bool {
	if ev.Type != EventPush {
		return false
	}
	for _, branch := range t.Push.Branches {
		if branch == ev.Branch {
			return true
		}
	}
	return false
}
