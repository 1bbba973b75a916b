package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleSystem, RoleUser, RoleAssistant} {
		assert.True(t, ValidRole(role), role)
	}
	for _, role := range []string{"", "tool", "User", "bot"} {
		assert.False(t, ValidRole(role), role)
	}
}

func TestApplyOptions(t *testing.T) {
	base := GenerateOptions{Model: "@cf/meta/llama-3-8b-instruct", Temperature: 0.5}

	got := ApplyOptions(base, WithMaxTokens(256), nil, WithTemperature(0.1))
	assert.Equal(t, GenerateOptions{Model: base.Model, Temperature: 0.1, MaxTokens: 256}, got)

	got = ApplyOptions(base, WithModel("gpt-4o-mini"))
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, "@cf/meta/llama-3-8b-instruct", base.Model, "base is not mutated")
}
