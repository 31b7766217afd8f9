package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func policy(text string) Policy { return StaticPolicy(text) }

func TestNode_ValidateOK(t *testing.T) {
	root := &Node{
		Name:   "main_coordinator",
		Policy: policy("coordinate"),
		Children: []*Node{
			{Name: "database_manager", Policy: policy("manage")},
			{
				Name:   "research_administrator",
				Policy: policy("administer"),
				Children: []*Node{
					{Name: "funding_eligibility_checker", Policy: policy("check")},
				},
			},
		},
	}
	assert.NoError(t, root.Validate())
}

func TestNode_ValidateDuplicateName(t *testing.T) {
	root := &Node{
		Name:   "root",
		Policy: policy("x"),
		Children: []*Node{
			{Name: "worker", Policy: policy("x")},
			{Name: "worker", Policy: policy("x")},
		},
	}
	err := root.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNode_ValidateSharedNode(t *testing.T) {
	shared := &Node{Name: "shared", Policy: policy("x")}
	root := &Node{
		Name:   "root",
		Policy: policy("x"),
		Children: []*Node{
			{Name: "a", Policy: policy("x"), Children: []*Node{shared}},
		},
	}
	root.Children = append(root.Children, shared)
	assert.Error(t, root.Validate())
}

func TestNode_ValidateBadNames(t *testing.T) {
	assert.Error(t, (&Node{Name: "", Policy: policy("x")}).Validate())
	assert.Error(t, (&Node{Name: "has space", Policy: policy("x")}).Validate())
	assert.Error(t, (&Node{Name: "ok"}).Validate(), "missing policy")
}

func TestNode_ChildAndFind(t *testing.T) {
	leaf := &Node{Name: "leaf", Policy: policy("x")}
	mid := &Node{Name: "mid", Policy: policy("x"), Children: []*Node{leaf}}
	root := &Node{Name: "root", Policy: policy("x"), Children: []*Node{mid}}

	assert.Equal(t, mid, root.Child("mid"))
	assert.Nil(t, root.Child("leaf"), "Child only sees direct children")
	assert.Equal(t, leaf, root.Find("leaf"))
	assert.Nil(t, root.Find("ghost"))
}

func TestNode_WalkOrder(t *testing.T) {
	root := &Node{
		Name:   "root",
		Policy: policy("x"),
		Children: []*Node{
			{Name: "a", Policy: policy("x")},
			{Name: "b", Policy: policy("x")},
		},
	}
	var names []string
	root.Walk(func(n *Node) { names = append(names, n.Name) })
	assert.Equal(t, []string{"root", "a", "b"}, names)
}

func TestStaticPolicy_RendersState(t *testing.T) {
	p := StaticPolicy("Welcome {{.name}}!")
	out, err := p.Resolve(map[string]any{"name": "alice"})
	assert.NoError(t, err)
	assert.Equal(t, "Welcome alice!", out)
}

func TestPolicyFunc(t *testing.T) {
	p := PolicyFunc(func(state map[string]any) (string, error) {
		return "dynamic for " + state["role"].(string), nil
	})
	out, err := p.Resolve(map[string]any{"role": "investigator"})
	assert.NoError(t, err)
	assert.Equal(t, "dynamic for investigator", out)
}
