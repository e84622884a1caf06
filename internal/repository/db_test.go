package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhereBuilder(t *testing.T) {
	var w whereBuilder
	assert.Equal(t, "", w.sql())

	w.add("role=$%d", "field_agent")
	w.in("home_region", []string{"itajai", "itapema"})
	w.raw("active_flag")
	assert.Equal(t, " WHERE role=$1 AND home_region IN ($2,$3) AND active_flag", w.sql())
	assert.Equal(t, []any{"field_agent", "itajai", "itapema"}, w.args)
}

func TestScopeFilterApply(t *testing.T) {
	agent := "a1"
	tests := []struct {
		name  string
		scope ScopeFilter
		want  string
	}{
		{name: "unrestricted", scope: ScopeFilter{}, want: ""},
		{name: "regions", scope: ScopeFilter{Regions: []string{"itajai"}}, want: " WHERE d.target_region IN ($1)"},
		{name: "empty_regions", scope: ScopeFilter{Regions: []string{}}, want: " WHERE FALSE"},
		{name: "agent", scope: ScopeFilter{AgentID: &agent}, want: " WHERE m.agent_id=$1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w whereBuilder
			tt.scope.apply(&w, "d.target_region", "m.agent_id")
			assert.Equal(t, tt.want, w.sql())
		})
	}
}

func TestPageClause(t *testing.T) {
	assert.Equal(t, " LIMIT 20 OFFSET 0", pageClause(0, -5, 20))
	assert.Equal(t, " LIMIT 5 OFFSET 10", pageClause(5, 10, 20))
}
