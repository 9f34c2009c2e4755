package matching

import (
	"strings"

	"consultant-match-go/internal/types"
)

// SkillFilter is the advisory skill preference attached to a role query.
// It biases ranking through a score boost and never excludes candidates.
type SkillFilter struct {
	Skills []string
}

// Matches reports whether the consultant lists the given skill,
// case-insensitively.
func (f *SkillFilter) Matches(consultantSkills []string, skill string) bool {
	for _, s := range consultantSkills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

// BuildRoleQuery derives the canonical query text for a role: title,
// description and the joined required skills, line-joined. This mirrors the
// profile side's canonical text composition so both embeddings live in the
// same region of vector space. The extractor-supplied free-form query is
// the fallback when title and description are both empty.
func BuildRoleQuery(role types.RoleSpecification) (string, *SkillFilter, error) {
	title := strings.TrimSpace(role.Title)
	description := strings.TrimSpace(role.Description)

	parts := make([]string, 0, 3)
	if title != "" {
		parts = append(parts, title)
	}
	if description != "" {
		parts = append(parts, description)
	}

	skills := make([]string, 0, len(role.RequiredSkills))
	for _, s := range role.RequiredSkills {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			skills = append(skills, trimmed)
		}
	}
	if len(skills) > 0 {
		parts = append(parts, strings.Join(skills, ", "))
	}

	queryText := strings.Join(parts, "\n")
	if title == "" && description == "" {
		queryText = strings.TrimSpace(role.Query)
	}
	if strings.TrimSpace(queryText) == "" {
		return "", nil, ErrEmptyQuery
	}

	var filter *SkillFilter
	if len(skills) > 0 {
		filter = &SkillFilter{Skills: skills}
	}
	return queryText, filter, nil
}

// BuildProjectQuery validates the legacy single-description query.
func BuildProjectQuery(description string) (string, error) {
	queryText := strings.TrimSpace(description)
	if queryText == "" {
		return "", ErrEmptyQuery
	}
	return queryText, nil
}
