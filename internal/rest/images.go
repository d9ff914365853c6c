package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dfryer1193/mailmanifest/api"
	catalogapp "github.com/dfryer1193/mailmanifest/catalog/application"
	"github.com/gin-gonic/gin"
)

const statusSuccess = "success"

func (h *handlers) ListImages(c *gin.Context) {
	views, err := h.images.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to fetch images")
		return
	}
	c.JSON(http.StatusOK, api.ImageListResponse{Images: toAPIImages(views)})
}

func (h *handlers) GetImage(c *gin.Context) {
	view, err := h.images.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Failed to fetch image")
		return
	}
	c.JSON(http.StatusOK, api.ImageResponse{
		Status: statusSuccess,
		Image:  toAPIImage(view),
		URL:    view.URL,
	})
}

// CreateImage takes a multipart form with file, description and tags. tags may be
// repeated and each value may be a comma separated list.
func (h *handlers) CreateImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(c, fmt.Sprintf("file exceeds the %d byte upload limit", h.maxUploadBytes))
			return
		}
		badRequest(c, "a file field is required")
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, err, "Failed to upload image")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(c, err, "Failed to upload image")
		return
	}

	view, err := h.images.Create(c.Request.Context(), catalogapp.Upload{
		Data:        data,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Description: c.PostForm("description"),
		Tags:        c.PostFormArray("tags"),
	})
	h.recordImageOperation("create", err)
	if err != nil {
		writeError(c, err, "Failed to upload image")
		return
	}

	img := toAPIImage(view)
	c.JSON(http.StatusCreated, api.ImageMutationResponse{
		Status:  statusSuccess,
		Message: "Image uploaded successfully",
		Image:   &img,
	})
}

func (h *handlers) UpdateImage(c *gin.Context) {
	var req api.ImageUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	var tags []string
	if req.Tags != nil {
		tags = []string(*req.Tags)
		if tags == nil {
			tags = []string{}
		}
	}

	view, err := h.images.Update(c.Request.Context(), c.Param("id"), req.Description, tags)
	h.recordImageOperation("update", err)
	if err != nil {
		writeError(c, err, "Failed to update image")
		return
	}

	img := toAPIImage(view)
	c.JSON(http.StatusOK, api.ImageMutationResponse{
		Status:  statusSuccess,
		Message: "Image updated successfully",
		Image:   &img,
	})
}

func (h *handlers) DeleteImage(c *gin.Context) {
	err := h.images.Delete(c.Request.Context(), c.Param("id"))
	h.recordImageOperation("delete", err)
	if err != nil {
		writeError(c, err, "Failed to delete image")
		return
	}

	c.JSON(http.StatusOK, api.ImageMutationResponse{
		Status:  statusSuccess,
		Message: "Image deleted successfully",
	})
}

func (h *handlers) recordImageOperation(op string, err error) {
	if h.metrics != nil {
		h.metrics.RecordImageOperation(op, err)
	}
}
