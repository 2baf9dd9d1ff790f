package youtube

import (
	"fmt"
	"strings"
	"time"
)

// filenameZone is the reference zone archive filenames are dated in (UTC+9)
var filenameZone = time.FixedZone("UTC+9", 9*60*60)

// unsafeFilenameChars maps characters that are illegal or awkward in file
// names to visually similar full-width replacements
var unsafeFilenameChars = strings.NewReplacer(
	"/", "／",
	":", "：",
	"<", "＜",
	">", "＞",
	`"`, "”",
	"'", "’",
	`\`, "＼",
	"?", "？",
	"*", "⋆",
	"|", "｜",
	"#", "",
)

// SecureFilename replaces characters that are unsafe in file names
func SecureFilename(name string) string {
	return unsafeFilenameChars.Replace(name)
}

// FormatFilename builds "[yyyy.mm.dd.<id>] <title>" with the date taken in UTC+9
func FormatFilename(start time.Time, id, title string) string {
	date := start.In(filenameZone).Format("2006.01.02")
	return SecureFilename(fmt.Sprintf("[%s.%s] %s", date, id, title))
}
