package matching

import (
	"testing"

	"consultant-match-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRoleQuery(t *testing.T) {
	tests := []struct {
		name       string
		role       types.RoleSpecification
		wantQuery  string
		wantSkills []string
		wantErr    error
	}{
		{
			name: "title description and skills",
			role: types.RoleSpecification{
				Title:          "Backend Engineer",
				Description:    "Builds the API layer",
				RequiredSkills: []string{"Go", "PostgreSQL"},
			},
			wantQuery:  "Backend Engineer\nBuilds the API layer\nGo, PostgreSQL",
			wantSkills: []string{"Go", "PostgreSQL"},
		},
		{
			name: "skill entries are trimmed and blanks dropped",
			role: types.RoleSpecification{
				Title:          "Frontend Engineer",
				RequiredSkills: []string{" React ", "", "TypeScript"},
			},
			wantQuery:  "Frontend Engineer\nReact, TypeScript",
			wantSkills: []string{"React", "TypeScript"},
		},
		{
			name: "falls back to extractor query when title and description empty",
			role: types.RoleSpecification{
				Query: "Frontend developer with React experience",
			},
			wantQuery: "Frontend developer with React experience",
		},
		{
			name: "title wins over extractor query",
			role: types.RoleSpecification{
				Title: "Data Engineer",
				Query: "something else entirely",
			},
			wantQuery: "Data Engineer",
		},
		{
			name:    "whitespace-only role rejected",
			role:    types.RoleSpecification{Title: "   ", Description: "\t", Query: "  "},
			wantErr: ErrEmptyQuery,
		},
		{
			name:    "fully empty role rejected",
			role:    types.RoleSpecification{},
			wantErr: ErrEmptyQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, filter, err := BuildRoleQuery(tt.role)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, query)
			if tt.wantSkills == nil {
				assert.Nil(t, filter)
			} else {
				require.NotNil(t, filter)
				assert.Equal(t, tt.wantSkills, filter.Skills)
			}
		})
	}
}

func TestBuildProjectQuery(t *testing.T) {
	query, err := BuildProjectQuery("  A mobile banking app  ")
	require.NoError(t, err)
	assert.Equal(t, "A mobile banking app", query)

	_, err = BuildProjectQuery("   \t\n ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSkillFilterMatches(t *testing.T) {
	f := &SkillFilter{Skills: []string{"Go"}}
	assert.True(t, f.Matches([]string{"go", "React"}, "Go"))
	assert.True(t, f.Matches([]string{"GO"}, "go"))
	assert.False(t, f.Matches([]string{"Golang"}, "Go"))
	assert.False(t, f.Matches(nil, "Go"))
}
