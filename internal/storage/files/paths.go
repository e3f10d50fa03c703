package files

import (
	"encoding/hex"
	"regexp"
)

var safeID = regexp.MustCompile(`^[A-Za-z0-9_.@-]{1,128}$`)

// dirName maps a user id to a single path element. Ids that are already safe
// are used verbatim; anything else is hex encoded behind a '~' prefix, which
// never occurs in a safe id, so the two forms cannot collide.
func dirName(userID string) string {
	if safeID.MatchString(userID) && userID != "." && userID != ".." {
		return userID
	}
	return "~" + hex.EncodeToString([]byte(userID))
}
