package llm

import (
	"log"

	"github.com/ragscout/ragscout/internal/domain/repository"
)

// TaskType classifies a request by the capability it needs.
type TaskType string

const (
	// TaskMultiQuery covers cheap query rewriting.
	TaskMultiQuery TaskType = "multi_query"
	// TaskGeneration covers grounded answer synthesis.
	TaskGeneration TaskType = "generation"
)

// Router selects an LLMClient per task, preferring a local model for
// lightweight work and a cloud model for answer synthesis. Either
// client may be nil; the router falls back to whichever is available.
type Router struct {
	local repository.LLMClient
	cloud repository.LLMClient
}

// NewRouter initializes the router with the available backends.
func NewRouter(local, cloud repository.LLMClient) *Router {
	return &Router{local: local, cloud: cloud}
}

// Route returns the client to use for the task, or nil when no backend
// is configured at all.
func (r *Router) Route(task TaskType) repository.LLMClient {
	var selected repository.LLMClient
	switch task {
	case TaskMultiQuery:
		selected = r.local
		if selected == nil {
			selected = r.cloud
		}
	case TaskGeneration:
		selected = r.cloud
		if selected == nil {
			selected = r.local
		}
	default:
		selected = r.cloud
		if selected == nil {
			selected = r.local
		}
	}
	if selected != nil {
		log.Printf("[Router] Routing task %q to %s", task, selected.Name())
	}
	return selected
}
