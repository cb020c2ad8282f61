package publish

import "strings"

// DefaultCaptions are the caption templates a post picks from. {source} is
// replaced with the label of the directory the image came from.
var DefaultCaptions = []string{
	"Today's view of the cosmos, courtesy of {source}.",
	"Straight from {source}: enjoy!",
	"Another beautiful shot from {source}.",
	"Look up! This one comes from {source}.",
	"Space is big. Here is a small piece of it from {source}.",
}

func renderCaption(template, label string) string {
	return strings.ReplaceAll(template, "{source}", label)
}
