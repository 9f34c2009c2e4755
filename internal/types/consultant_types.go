package types

import (
	"strings"
)

// Availability describes whether a consultant can take on new work.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityBusy        Availability = "busy"
	AvailabilityUnavailable Availability = "unavailable"
	AvailabilityUnknown     Availability = "unknown"
)

// ParseAvailability maps free-form availability strings from the store onto
// the enumerated states. Anything unrecognized becomes AvailabilityUnknown.
func ParseAvailability(s string) Availability {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(AvailabilityAvailable):
		return AvailabilityAvailable
	case string(AvailabilityBusy):
		return AvailabilityBusy
	case string(AvailabilityUnavailable):
		return AvailabilityUnavailable
	default:
		return AvailabilityUnknown
	}
}

// ConsultantProfile is a single consultant record as stored in the vector
// store. The ID is store-assigned and unique within the collection.
type ConsultantProfile struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	Skills       []string     `json:"skills"`
	Availability Availability `json:"availability"`
	Experience   string       `json:"experience,omitempty"`
	Education    string       `json:"education,omitempty"`
	// ResumeRef points at the stored resume object for this consultant,
	// empty when no resume file exists.
	ResumeRef string `json:"resumeId,omitempty"`
}

// CanonicalText builds the deterministic text representation used as
// embedding input for a profile: name, skills, experience and education
// joined line-wise. Queries are composed the same way (title, description,
// skills), which keeps both sides of the similarity comparison in the same
// region of embedding space. The embedding must always be regenerated from
// this text when any of the source fields change.
func (p *ConsultantProfile) CanonicalText() string {
	parts := make([]string, 0, 4)
	if s := strings.TrimSpace(p.Name); s != "" {
		parts = append(parts, s)
	}
	if len(p.Skills) > 0 {
		parts = append(parts, strings.Join(p.Skills, ", "))
	}
	if s := strings.TrimSpace(p.Experience); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(p.Education); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

// RoleSpecification is a single staffing requirement extracted from the
// conversation. It is immutable once handed to the matching path.
type RoleSpecification struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Query          string   `json:"query"`
	RequiredSkills []string `json:"requiredSkills,omitempty"`
}

// Chat message roles. The session is caller-managed: the full ordered
// history is resent on every turn.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of the conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatTurn is the assistant's answer for one chat request. Roles is only
// populated when IsComplete is true, and is then guaranteed non-empty.
type ChatTurn struct {
	Role       string              `json:"role"`
	Content    string              `json:"content"`
	IsComplete bool                `json:"isComplete"`
	Roles      []RoleSpecification `json:"roles,omitempty"`
}

// MatchResult pairs a consultant with the relevance score for one query.
// Results are ephemeral and recomputed on every request.
type MatchResult struct {
	ConsultantProfile
	// MatchScore is the bounded 0-100 relevance score, higher is better.
	MatchScore int `json:"matchScore"`
}

// RoleMatchResult is the ordered result set for a single role, sorted by
// descending MatchScore with ties kept in store return order.
type RoleMatchResult struct {
	Role        RoleSpecification `json:"role"`
	Consultants []MatchResult     `json:"consultants"`
}

// SkillCount is one entry of the overview skill ranking.
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// OverviewSnapshot holds corpus-wide statistics. It is recomputed on every
// request; the acceptable staleness window is a single request.
type OverviewSnapshot struct {
	CVCount           int          `json:"cvCount"`
	UniqueSkillsCount int          `json:"uniqueSkillsCount"`
	TopSkills         []SkillCount `json:"topSkills"`
}
