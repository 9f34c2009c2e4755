package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAvailability(t *testing.T) {
	tests := []struct {
		in   string
		want Availability
	}{
		{"available", AvailabilityAvailable},
		{"Available", AvailabilityAvailable},
		{"  BUSY ", AvailabilityBusy},
		{"unavailable", AvailabilityUnavailable},
		{"", AvailabilityUnknown},
		{"on vacation", AvailabilityUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseAvailability(tt.in), "input %q", tt.in)
	}
}

func TestCanonicalText(t *testing.T) {
	p := ConsultantProfile{
		Name:       "Ada Lovelace",
		Skills:     []string{"Go", "Qdrant"},
		Experience: "5 years backend",
		Education:  "MSc Mathematics",
	}
	assert.Equal(t, "Ada Lovelace\nGo, Qdrant\n5 years backend\nMSc Mathematics", p.CanonicalText())
}

func TestCanonicalTextSkipsEmptyFields(t *testing.T) {
	p := ConsultantProfile{Name: "  Ben  ", Skills: nil}
	assert.Equal(t, "Ben", p.CanonicalText())

	empty := ConsultantProfile{}
	assert.Empty(t, empty.CanonicalText())
}
