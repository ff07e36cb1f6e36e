package model

import (
	"mime"
	"strings"
)

// Category is the closed set of buckets the resource type filter offers.
type Category string

const (
	CategoryDocument Category = "document"
	CategoryImage    Category = "image"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryArchive  Category = "archive"
	// CategoryOther is a well-formed MIME type outside the named buckets.
	CategoryOther Category = "other"
	// CategoryUnknown is an empty or unparseable MIME type.
	CategoryUnknown Category = "unknown"
)

// Categories lists every category in filter-bar order.
var Categories = []Category{
	CategoryDocument, CategoryImage, CategoryVideo, CategoryAudio,
	CategoryArchive, CategoryOther, CategoryUnknown,
}

// ParseCategory returns the category named s, or false.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

var documentSubtypes = map[string]bool{
	"pdf":                          true,
	"msword":                       true,
	"rtf":                          true,
	"vnd.ms-excel":                 true,
	"vnd.ms-powerpoint":            true,
	"vnd.apple.pages":              true,
	"vnd.apple.numbers":            true,
	"vnd.apple.keynote":            true,
	"epub+zip":                     true,
	"vnd.visio":                    true,
	"x-latex":                      true,
	"vnd.google-apps.document":     true,
	"vnd.google-apps.spreadsheet":  true,
	"vnd.google-apps.presentation": true,
}

var documentSubtypePrefixes = []string{
	"vnd.openxmlformats-officedocument.",
	"vnd.oasis.opendocument.",
}

var archiveSubtypes = map[string]bool{
	"zip":                         true,
	"x-zip-compressed":            true,
	"vnd.rar":                     true,
	"x-rar-compressed":            true,
	"x-7z-compressed":             true,
	"x-tar":                       true,
	"gzip":                        true,
	"x-gzip":                      true,
	"x-bzip2":                     true,
	"x-xz":                        true,
	"zstd":                        true,
	"x-compressed-tar":            true,
	"java-archive":                true,
	"vnd.android.package-archive": true,
}

// Classify maps a client-supplied MIME type onto a Category. Parameters such
// as charset are ignored and matching is case-insensitive.
func Classify(mimeType string) Category {
	if strings.TrimSpace(mimeType) == "" {
		return CategoryUnknown
	}
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return CategoryUnknown
	}
	top, sub, ok := strings.Cut(mediaType, "/")
	if !ok || top == "" || sub == "" {
		return CategoryUnknown
	}

	switch top {
	case "image":
		return CategoryImage
	case "video":
		return CategoryVideo
	case "audio":
		return CategoryAudio
	case "text":
		return CategoryDocument
	case "application":
		if documentSubtypes[sub] {
			return CategoryDocument
		}
		for _, p := range documentSubtypePrefixes {
			if strings.HasPrefix(sub, p) {
				return CategoryDocument
			}
		}
		if archiveSubtypes[sub] {
			return CategoryArchive
		}
	}
	return CategoryOther
}
