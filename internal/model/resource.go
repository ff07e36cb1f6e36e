package model

import "time"

// ResourceKeyPrefix is prepended to a resource ID to form its store key.
const ResourceKeyPrefix = "resource:"

// ResourceKey returns the store key for a resource ID.
func ResourceKey(id string) string {
	return ResourceKeyPrefix + id
}

// ResourceMetadata describes an uploaded file without its payload.
// This is the shape returned by list and upload responses.
type ResourceMetadata struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	UploadDate time.Time `json:"uploadDate"`
	Tags       []string  `json:"tags"`
	Owner      string    `json:"owner,omitempty"`
}

// Category classifies the resource's declared MIME type.
func (m ResourceMetadata) Category() Category {
	return Classify(m.Type)
}

// HasTag reports whether tag is attached to the resource.
func (m ResourceMetadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Resource is the full stored record: metadata plus the base64-encoded payload.
type Resource struct {
	ResourceMetadata
	Data string `json:"data"`
}
