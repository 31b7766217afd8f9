package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryai/gantry/agent"
	"github.com/gantryai/gantry/capability"
	"github.com/gantryai/gantry/core"
	"github.com/gantryai/gantry/oracle"
)

func testRoot() *agent.Node {
	return &agent.Node{Name: "root", Policy: agent.StaticPolicy("p")}
}

func TestNew_RequiresRootAndOracle(t *testing.T) {
	_, err := New(nil, nil, oracle.NewScripted())
	assert.Error(t, err)

	_, err = New(testRoot(), nil, nil)
	assert.Error(t, err)
}

func TestNew_ValidatesHierarchy(t *testing.T) {
	root := testRoot()
	root.Children = []*agent.Node{
		{Name: "worker", Policy: agent.StaticPolicy("p")},
		{Name: "worker", Policy: agent.StaticPolicy("p")},
	}
	_, err := New(root, nil, oracle.NewScripted())
	assert.Error(t, err)
}

func TestNew_RejectsUnregisteredCapability(t *testing.T) {
	root := testRoot()
	root.Tools = []string{"missing"}
	_, err := New(root, capability.NewRegistry(), oracle.NewScripted())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestNew_NilRegistryWithoutTools(t *testing.T) {
	rt, err := New(testRoot(), nil, oracle.NewScripted())
	require.NoError(t, err)
	assert.Equal(t, "root", rt.Root().Name)
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(core.NewTurnError(core.CodeStepLimitExceeded, "budget spent")))
	assert.True(t, IsFatal(core.NewTurnError(core.CodeOracleUnavailable, "down")))
	assert.False(t, IsFatal(core.NewTurnError(core.CodeUnknownDelegationTarget, "ghost")))
	assert.False(t, IsFatal(nil))
}
