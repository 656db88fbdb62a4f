package store

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoteKeyRoundTrip(t *testing.T) {
	uid, id, ok := splitNoteKey(noteKey("user/with/slashes", "65a1f0"))
	assert.True(t, ok)
	assert.Equal(t, "user/with/slashes", uid)
	assert.Equal(t, "65a1f0", id)

	for _, bad := range []string{"", "noslash", "/id", "uid/"} {
		_, _, ok := splitNoteKey(bad)
		assert.False(t, ok, bad)
	}
}

func TestUserKeyPattern(t *testing.T) {
	re := regexp.MustCompile(userKeyPattern("a.b"))
	assert.True(t, re.MatchString("a.b/n1"))
	assert.False(t, re.MatchString("axb/n1"), "dots are quoted")
	assert.False(t, re.MatchString("a.b.c/n1"))
	assert.False(t, re.MatchString("a.b/n1/extra"))
}
