package client

import "time"

// Resource is the metadata the server returns for a stored file.
type Resource struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Size        int64     `json:"size"`
	UploadDate  time.Time `json:"uploadDate"`
	Tags        []string  `json:"tags"`
	Owner       string    `json:"owner,omitempty"`
	Category    string    `json:"category"`
	DownloadURL string    `json:"downloadUrl"`
}

// ListOptions filters a listing. Zero values mean no filter.
type ListOptions struct {
	Query  string
	Type   string
	Tag    string
	Limit  int
	Offset int
}

// ListResult is one page of resources.
type ListResult struct {
	Resources []Resource `json:"resources"`
	Total     int        `json:"total"`
}

// DownloadInfo describes a downloaded payload.
type DownloadInfo struct {
	ContentType string
	FileName    string
	Size        int64
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type errorResponse struct {
	RequestID string `json:"request_id"`
	Error     struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
