package ftrack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"shothook/internal/services"
)

// MakeReviewable uploads path to the server location as an ftrackreview
// component and asks the server to encode web playable media for it.
func (c *Client) MakeReviewable(ctx context.Context, versionID, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, component, "make reviewable", path, err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, component, "make reviewable", path+" is a directory", nil)
	}

	fileName := filepath.Base(path)
	data := map[string]any{
		"name":       "ftrackreview-upload",
		"version_id": versionID,
		"file_type":  filepath.Ext(fileName),
		"size":       info.Size(),
	}
	if err := c.create(ctx, "FileComponent", data, nil); err != nil {
		return err
	}
	componentID := fmt.Sprint(data["id"])

	results, err := c.call(ctx, operation{
		"action":       "get_upload_metadata",
		"component_id": componentID,
		"file_name":    fileName,
		"file_size":    info.Size(),
	})
	if err != nil {
		return err
	}
	var meta struct {
		URL     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	}
	if err := json.Unmarshal(results[0], &meta); err != nil || meta.URL == "" {
		return services.Wrap(services.ErrExternal, component, "upload metadata", componentID, err)
	}
	if err := c.put(ctx, meta.URL, meta.Headers, path, info.Size()); err != nil {
		return err
	}

	if err := c.create(ctx, "ComponentLocation", map[string]any{
		"component_id":        componentID,
		"location_id":         ServerLocationID,
		"resource_identifier": componentID,
	}, nil); err != nil {
		return err
	}

	_, err = c.call(ctx, operation{
		"action":        "encode_media",
		"component_id":  componentID,
		"version_id":    versionID,
		"keep_original": "auto",
	})
	return err
}

func (c *Client) put(ctx context.Context, url string, headers map[string]string, path string, size int64) error {
	file, err := os.Open(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, component, "upload", path, err)
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, component, "upload", "build request", err)
	}
	req.ContentLength = size
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, component, "upload", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrExternal, component, "upload", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	return nil
}
