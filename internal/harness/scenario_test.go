package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: add_one
description: "Adds a property"
steps:
  - do: ADD_PROPERTY
    payload:
      property:
        address: "1 Main St"
    expect:
      entity_id: id-1
assertions:
  - type: counts
    properties: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "add_one", scenario.Name)
	assert.Equal(t, "Adds a property", scenario.Description)
	require.Len(t, scenario.Steps, 1)
	assert.Equal(t, "ADD_PROPERTY", scenario.Steps[0].Do)
	assert.Equal(t, "1 Main St", scenario.Steps[0].Payload["property"].(map[string]any)["address"])
	require.NotNil(t, scenario.Steps[0].Expect)
	assert.Equal(t, "id-1", scenario.Steps[0].Expect.EntityID)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, 1, *scenario.Assertions[0].Properties)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
steps:
  - do: CLEAR_ALL
    payloda: {}
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "steps:\n  - do: CLEAR_ALL\n",
			wantErr: "name is required",
		},
		{
			name:    "no steps",
			content: "name: empty\n",
			wantErr: "at least one step is required",
		},
		{
			name:    "missing do",
			content: "name: x\nsteps:\n  - payload: {}\n",
			wantErr: "steps[0]: do is required",
		},
		{
			name:    "unknown action without expectation",
			content: "name: x\nsteps:\n  - do: FROBNICATE\n",
			wantErr: `unknown action type "FROBNICATE"`,
		},
		{
			name:    "undo in setup",
			content: "name: x\nsetup:\n  - do: undo\nsteps:\n  - do: CLEAR_ALL\n",
			wantErr: "setup[0]: undo is not allowed in setup",
		},
		{
			name:    "redo with payload",
			content: "name: x\nsteps:\n  - do: redo\n    payload: {a: 1}\n",
			wantErr: "redo takes no payload",
		},
		{
			name:    "counts without fields",
			content: "name: x\nsteps:\n  - do: CLEAR_ALL\nassertions:\n  - type: counts\n",
			wantErr: "counts needs properties or events",
		},
		{
			name:    "entity without id",
			content: "name: x\nsteps:\n  - do: CLEAR_ALL\nassertions:\n  - type: entity\n",
			wantErr: "entity needs id",
		},
		{
			name:    "unknown assertion",
			content: "name: x\nsteps:\n  - do: CLEAR_ALL\nassertions:\n  - type: vibes\n",
			wantErr: `unknown assertion type "vibes"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_ReportsAllProblems(t *testing.T) {
	_, err := ParseScenario([]byte("steps:\n  - do: \"\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "steps[0]: do is required")
}

func TestParseScenario_UnknownActionWithExpectation(t *testing.T) {
	scenario, err := ParseScenario([]byte("name: x\nsteps:\n  - do: FROBNICATE\n    expect: {code: VALIDATION}\n"))
	require.NoError(t, err)
	assert.Equal(t, "VALIDATION", scenario.Steps[0].Expect.Code)
}
