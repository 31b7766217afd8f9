package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_PlainTextPassthrough(t *testing.T) {
	out, err := Render("no markers here", nil)
	assert.NoError(t, err)
	assert.Equal(t, "no markers here", out)
}

func TestRender_StateSubstitution(t *testing.T) {
	out, err := Render("Welcome {{.name}}! Your role is {{.role}}.", map[string]any{
		"name": "alice",
		"role": "investigator",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Welcome alice! Your role is investigator.", out)
}

func TestRender_MissingKeyYieldsZero(t *testing.T) {
	out, err := Render("Hello {{.name}}", map[string]any{})
	assert.NoError(t, err)
	assert.Equal(t, "Hello <no value>", out)
}

func TestRender_Funcs(t *testing.T) {
	out, err := Render(`{{default "guest" .name}}`, map[string]any{})
	assert.NoError(t, err)
	assert.Equal(t, "guest", out)

	out, err = Render("{{upper .role}}", map[string]any{"role": "pi"})
	assert.NoError(t, err)
	assert.Equal(t, "PI", out)
}

func TestRender_BadTemplate(t *testing.T) {
	_, err := Render("{{.name", nil)
	assert.Error(t, err)
}
