package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Image struct {
	ID          string    `json:"id"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ImageListResponse struct {
	Images []Image `json:"images"`
}

type ImageResponse struct {
	Status string `json:"status"`
	Image  Image  `json:"image"`
	URL    string `json:"url"`
}

type ImageMutationResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Image   *Image `json:"image,omitempty"`
}

// ImageUpdateRequest is the PUT body. Absent fields are left unchanged.
type ImageUpdateRequest struct {
	Description *string    `json:"description"`
	Tags        *TagsInput `json:"tags"`
}

// TagsInput accepts either a JSON array of strings or one comma separated string.
type TagsInput []string

func (t *TagsInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TagsInput(strings.Split(s, ","))
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tags must be an array of strings or a comma separated string: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	*t = TagsInput(list)
	return nil
}
