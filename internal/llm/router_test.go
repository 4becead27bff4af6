package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ragscout/ragscout/internal/domain/repository"
)

type namedClient struct{ name string }

func (c *namedClient) Generate(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, repository.TokenUsage, error) {
	return "", repository.TokenUsage{}, nil
}

func (c *namedClient) Name() string { return c.name }

func TestRouterRoutesByTask(t *testing.T) {
	local := &namedClient{name: "local"}
	cloud := &namedClient{name: "cloud"}
	r := NewRouter(local, cloud)

	assert.Equal(t, local, r.Route(TaskMultiQuery))
	assert.Equal(t, cloud, r.Route(TaskGeneration))
}

func TestRouterFallsBackWhenBackendMissing(t *testing.T) {
	local := &namedClient{name: "local"}
	cloud := &namedClient{name: "cloud"}

	onlyCloud := NewRouter(nil, cloud)
	assert.Equal(t, cloud, onlyCloud.Route(TaskMultiQuery))
	assert.Equal(t, cloud, onlyCloud.Route(TaskGeneration))

	onlyLocal := NewRouter(local, nil)
	assert.Equal(t, local, onlyLocal.Route(TaskMultiQuery))
	assert.Equal(t, local, onlyLocal.Route(TaskGeneration))
}

func TestRouterNoBackends(t *testing.T) {
	r := NewRouter(nil, nil)
	assert.Nil(t, r.Route(TaskGeneration))
}
