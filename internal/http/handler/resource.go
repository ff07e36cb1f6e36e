package handler

import (
	"mime"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"resourcehub/internal/model"
	"resourcehub/internal/service"
)

// resourceView is resource metadata as returned to clients.
type resourceView struct {
	model.ResourceMetadata
	Category    model.Category `json:"category"`
	DownloadURL string         `json:"downloadUrl"`
}

func newResourceView(m model.ResourceMetadata, basePath string) resourceView {
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return resourceView{
		ResourceMetadata: m,
		Category:         m.Category(),
		DownloadURL:      basePath + "/download/" + m.ID,
	}
}

type uploadResponse struct {
	Success  bool         `json:"success"`
	Resource resourceView `json:"resource"`
}

type listResponse struct {
	Resources []resourceView `json:"resources"`
	Total     int            `json:"total"`
}

// UploadResource stores a multipart upload (field "file", optional "tags" JSON array).
//
//	@Summary	Upload a resource
//	@Tags		resources
//	@Security	BearerAuth
//	@Accept		mpfd
//	@Produce	json
//	@Param		file	formData	file	true	"file to upload"
//	@Param		tags	formData	string	false	"JSON array of tags"
//	@Success	200		{object}	uploadResponse
//	@Failure	400		{object}	errorPayload
//	@Failure	401		{object}	errorPayload
//	@Failure	500		{object}	errorPayload
//	@Router		/upload [post]
func UploadResource(svc service.ResourceService, basePath string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		meta, err := svc.Upload(c.UserContext(), service.UploadInput{
			Reader:   f,
			Name:     fh.Filename,
			MimeType: fh.Header.Get(fiber.HeaderContentType),
			Size:     fh.Size,
			Tags:     c.FormValue("tags"),
		})
		if err != nil {
			return serviceError(c, log, err)
		}
		return c.JSON(uploadResponse{Success: true, Resource: newResourceView(*meta, basePath)})
	}
}

// ListResources returns resource metadata, newest first.
//
//	@Summary	List resources
//	@Tags		resources
//	@Security	BearerAuth
//	@Produce	json
//	@Param		q		query		string	false	"name contains"
//	@Param		type	query		string	false	"category"	Enums(all, document, image, video, audio, archive, other, unknown)
//	@Param		tag		query		string	false	"exact tag"
//	@Param		limit	query		int		false	"page size; omit for all"
//	@Param		offset	query		int		false	"items to skip"
//	@Success	200		{object}	listResponse
//	@Failure	400		{object}	errorPayload
//	@Failure	401		{object}	errorPayload
//	@Failure	500		{object}	errorPayload
//	@Router		/resources [get]
func ListResources(svc service.ResourceService, basePath string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := service.ListQuery{Q: c.Query("q"), Tag: c.Query("tag")}

		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
			}
			q.Limit = n
		}
		if s := c.Query("offset"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
			}
			q.Offset = n
		}
		if s := c.Query("type"); s != "" && s != "all" {
			cat, ok := model.ParseCategory(s)
			if !ok {
				return writeError(c, fiber.StatusBadRequest, "INVALID_TYPE", "unknown resource type")
			}
			q.Category = cat
		}

		res, err := svc.List(c.UserContext(), q)
		if err != nil {
			return serviceError(c, log, err)
		}

		out := listResponse{Resources: make([]resourceView, 0, len(res.Items)), Total: res.Total}
		for _, m := range res.Items {
			out.Resources = append(out.Resources, newResourceView(m, basePath))
		}
		return c.JSON(out)
	}
}

// DownloadResource streams the decoded payload back with its recorded type.
//
//	@Summary	Download a resource
//	@Tags		resources
//	@Security	BearerAuth
//	@Produce	octet-stream
//	@Param		id			path		string	true	"resource id"
//	@Param		disposition	query		string	false	"inline to preview"	Enums(attachment, inline)
//	@Success	200			{file}		binary
//	@Failure	401			{object}	errorPayload
//	@Failure	404			{object}	errorPayload
//	@Failure	500			{object}	errorPayload
//	@Router		/download/{id} [get]
func DownloadResource(svc service.ResourceService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dl, err := svc.Download(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, log, err)
		}

		ct := dl.Metadata.Type
		if ct == "" {
			ct = fiber.MIMEOctetStream
		}
		disposition := "attachment"
		if c.Query("disposition") == "inline" {
			disposition = "inline"
		}

		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderContentDisposition, contentDisposition(disposition, dl.Metadata))
		return c.Status(fiber.StatusOK).Send(dl.Content)
	}
}

func contentDisposition(disposition string, m model.ResourceMetadata) string {
	name := m.Name
	if name == "" {
		name = m.ID
	}
	if v := mime.FormatMediaType(disposition, map[string]string{"filename": name}); v != "" {
		return v
	}
	return disposition
}

// DeleteResource removes a resource.
//
//	@Summary	Delete a resource
//	@Tags		resources
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"resource id"
//	@Success	200	{object}	map[string]bool
//	@Failure	401	{object}	errorPayload
//	@Failure	404	{object}	errorPayload
//	@Failure	500	{object}	errorPayload
//	@Router		/resources/{id} [delete]
func DeleteResource(svc service.ResourceService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return serviceError(c, log, err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// ListTags returns the distinct tags in use.
//
//	@Summary	List tags
//	@Tags		resources
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	map[string][]string
//	@Failure	401	{object}	errorPayload
//	@Failure	500	{object}	errorPayload
//	@Router		/tags [get]
func ListTags(svc service.ResourceService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tags, err := svc.Tags(c.UserContext())
		if err != nil {
			return serviceError(c, log, err)
		}
		return c.JSON(fiber.Map{"tags": tags})
	}
}
