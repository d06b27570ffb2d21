package db

import "strings"

// LikeEscape is the ESCAPE character used with ContainsPattern. It is not a
// backslash because MySQL treats backslashes in literals as escapes.
const LikeEscape = "!"

var likeReplacer = strings.NewReplacer(
	LikeEscape, LikeEscape+LikeEscape,
	"%", LikeEscape+"%",
	"_", LikeEscape+"_",
)

// ContainsPattern turns term into a LIKE pattern matching it literally
// anywhere in the value. Use it with "LIKE ? ESCAPE '!'".
func ContainsPattern(term string) string {
	return "%" + likeReplacer.Replace(term) + "%"
}
