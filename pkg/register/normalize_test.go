package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"itemIdentifier", "item_identifier"},
		{"name", "name"},
		{"gitHubRepository", "github_repository"},
		{"gitRepository", "git_repository"},
		{"validationReportJson", "validation_report_json"},
		{"baseURL", "base_url"},
		{"viewerURL", "viewer_url"},
		{"sparqlURL", "sparql_u_r_l"},
		{"ItemClass", "item_class"},
		{"ldContext", "ld_context"},
		{"already_snake", "already_snake"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSnakeCase(tt.in))
		})
	}
}

func TestSnakeKeysRecursesWithoutMutating(t *testing.T) {
	in := map[string]any{
		"semanticUplift": map[string]any{
			"additionalSteps": []any{map[string]any{"type": "jq", "stage": "pre"}},
		},
		"dependsOn": []any{"a"},
	}
	out := SnakeKeys(in).(map[string]any)

	steps := out["semantic_uplift"].(map[string]any)["additional_steps"].([]any)
	assert.Equal(t, map[string]any{"type": "jq", "stage": "pre"}, steps[0])
	assert.Equal(t, []any{"a"}, out["depends_on"])

	_, stillCamel := in["semanticUplift"]
	assert.True(t, stillCamel)
	assert.NotContains(t, in, "semantic_uplift")
}

func TestDedupeKeepsFirstSeenOrder(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, dedupe([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, dedupe(nil))
}
