package main

import (
	"testing"

	"github.com/dispatchd/dispatchd/internal/agentmodel"
)

func TestResolveActiveAgent_FallsBackToSystemWhenUnset(t *testing.T) {
	a := resolveActiveAgent(nil, "")
	if a == nil || a.Kind() != agentmodel.KindSystem {
		t.Fatalf("expected a default system agent, got %+v", a)
	}
}

func TestResolveActiveAgent_FindsNamedAgent(t *testing.T) {
	writer := agentmodel.NewUserAgent("writer", "", "", []string{"file_write"})
	a := resolveActiveAgent([]*agentmodel.Agent{writer}, "writer")
	if a != writer {
		t.Fatalf("expected to resolve the named agent, got %+v", a)
	}
}

func TestResolveActiveAgent_UnknownNameFallsBackToSystem(t *testing.T) {
	a := resolveActiveAgent(nil, "nonexistent")
	if a == nil || a.Kind() != agentmodel.KindSystem {
		t.Fatalf("expected fallback to system agent, got %+v", a)
	}
}
