package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		mime string
		want Category
	}{
		{"application/pdf", CategoryDocument},
		{"text/plain; charset=utf-8", CategoryDocument},
		{"application/msword", CategoryDocument},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", CategoryDocument},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", CategoryDocument},
		{"application/vnd.ms-powerpoint", CategoryDocument},
		{"application/vnd.oasis.opendocument.text", CategoryDocument},
		{"IMAGE/PNG", CategoryImage},
		{"image/svg+xml", CategoryImage},
		{"video/mp4", CategoryVideo},
		{"audio/mpeg", CategoryAudio},
		{"application/zip", CategoryArchive},
		{"application/x-7z-compressed", CategoryArchive},
		{"application/gzip", CategoryArchive},
		{"application/x-tar", CategoryArchive},
		{"application/vnd.rar", CategoryArchive},
		// Substring matching would have called this an archive ("tar").
		{"application/x-startup-script", CategoryOther},
		{"application/octet-stream", CategoryOther},
		{"application/json", CategoryOther},
		{"", CategoryUnknown},
		{"   ", CategoryUnknown},
		{"not a mime type", CategoryUnknown},
		{"image/", CategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.mime))
		})
	}
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory(" Image ")
	assert.True(t, ok)
	assert.Equal(t, CategoryImage, c)

	_, ok = ParseCategory("all")
	assert.False(t, ok)

	_, ok = ParseCategory("spreadsheet")
	assert.False(t, ok)
}

func TestResourceMetadata(t *testing.T) {
	m := ResourceMetadata{ID: "1", Type: "image/jpeg", Tags: []string{"x", "y"}}
	assert.Equal(t, CategoryImage, m.Category())
	assert.True(t, m.HasTag("y"))
	assert.False(t, m.HasTag("Y"))
	assert.Equal(t, "resource:1", ResourceKey(m.ID))
}
