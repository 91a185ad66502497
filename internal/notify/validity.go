package notify

import "strings"

// fcmMarker shows up in the registration tokens FCM hands out today. Tokens
// without it are almost always stale Expo or GCM leftovers.
const fcmMarker = "apa91"

// LikelyValidToken is a cheap structural pre-screen, not a validation: real
// FCM tokens are long, contain an instance-id separator and the APA91 marker.
// False positives and false negatives are both acceptable.
func LikelyValidToken(token string) bool {
	token = strings.TrimSpace(token)
	if len(token) <= 80 {
		return false
	}
	if !strings.Contains(token, ":") {
		return false
	}
	return strings.Contains(strings.ToLower(token), fcmMarker)
}
