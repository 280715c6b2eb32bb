package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchTrigger(t *testing.T) {
	trigger := Trigger{Push: PushTrigger{Branches: []string{"main"}}}

	assert.True(t, MatchTrigger(trigger, Event{Type: EventPush, Branch: "main"}))
	assert.False(t, MatchTrigger(trigger, Event{Type: EventPush, Branch: "feature-x"}))
	assert.False(t, MatchTrigger(trigger, Event{Type: "pull_request", Branch: "main"}))
	assert.False(t, MatchTrigger(trigger, Event{Branch: "main"}))
}

func TestMatchTriggerIsLiteral(t *testing.T) {
	trigger := Trigger{Push: PushTrigger{Branches: []string{"release/*"}}}

	// No pattern semantics: the configured value matches only itself.
	assert.False(t, MatchTrigger(trigger, Event{Type: EventPush, Branch: "release/1.0"}))
	assert.True(t, MatchTrigger(trigger, Event{Type: EventPush, Branch: "release/*"}))
}

func TestMatchTriggerMultipleBranches(t *testing.T) {
	trigger := Trigger{Push: PushTrigger{Branches: []string{"main", "docs"}}}

	assert.True(t, MatchTrigger(trigger, Event{Type: EventPush, Branch: "docs"}))
	assert.False(t, MatchTrigger(trigger, Event{Type: EventPush, Branch: "dev"}))
}

func TestMatchTriggerNoBranches(t *testing.T) {
	assert.False(t, MatchTrigger(Trigger{}, Event{Type: EventPush, Branch: "main"}))
}
