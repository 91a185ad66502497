package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// validFCMToken builds a token with the shape the pre-screen expects: long,
// with an instance-id separator and the APA91 marker.
func validFCMToken() string {
	return "dEvIcE-InStAnCe-Id_0123456789:APA91b" + strings.Repeat("x", 100)
}

func TestLikelyValidTokenAccepts(t *testing.T) {
	assert.True(t, LikelyValidToken(validFCMToken()))
}

func TestLikelyValidTokenMarkerIsCaseInsensitive(t *testing.T) {
	upper := "instance:APA91" + strings.Repeat("X", 100)
	lower := "instance:apa91" + strings.Repeat("x", 100)
	assert.True(t, LikelyValidToken(upper))
	assert.True(t, LikelyValidToken(lower))
}

func TestLikelyValidTokenRejectsShort(t *testing.T) {
	// At or under 80 characters is always rejected, marker or not.
	short := "id:APA91" + strings.Repeat("x", 72)
	assert.LessOrEqual(t, len(short), 80)
	assert.False(t, LikelyValidToken(short))
}

func TestLikelyValidTokenRejectsMissingSeparator(t *testing.T) {
	noColon := "APA91" + strings.Repeat("x", 100)
	assert.False(t, LikelyValidToken(noColon))
}

func TestLikelyValidTokenRejectsMissingMarker(t *testing.T) {
	noMarker := "instance:" + strings.Repeat("x", 100)
	assert.False(t, LikelyValidToken(noMarker))
}

func TestLikelyValidTokenRejectsEmpty(t *testing.T) {
	assert.False(t, LikelyValidToken(""))
	assert.False(t, LikelyValidToken("   "))
}

func TestLikelyValidTokenTrimsBeforeChecking(t *testing.T) {
	padded := "  " + validFCMToken() + "  "
	assert.True(t, LikelyValidToken(padded))
}

func TestLikelyValidTokenIsDeterministic(t *testing.T) {
	inputs := []string{validFCMToken(), "", "expo-push-token", "id:" + strings.Repeat("a", 100)}
	for _, in := range inputs {
		first := LikelyValidToken(in)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, LikelyValidToken(in), "input %q", in)
		}
	}
}
