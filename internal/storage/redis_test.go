package storage

import (
	"strings"
	"testing"

	"consultant-match-go/internal/constants"

	"github.com/stretchr/testify/assert"
)

func TestQueryVectorKeyIsDeterministic(t *testing.T) {
	a := QueryVectorKey("Backend developer with Go experience", "text-embedding-v3")
	b := QueryVectorKey("Backend developer with Go experience", "text-embedding-v3")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, constants.QueryVectorCachePrefix))
}

func TestQueryVectorKeySeparatesModelVersions(t *testing.T) {
	a := QueryVectorKey("same query", "text-embedding-v3")
	b := QueryVectorKey("same query", "text-embedding-v4")
	assert.NotEqual(t, a, b, "a model upgrade must invalidate old cache entries")
}

func TestQueryVectorKeyResistsConcatenationCollisions(t *testing.T) {
	// "ab" + model "c" must not collide with "a" + model "bc".
	a := QueryVectorKey("ab", "c")
	b := QueryVectorKey("b", "ca")
	assert.NotEqual(t, a, b)
}
