package dizquetv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// ImageUpload describes an image stored by the server.
type ImageUpload struct {
	Name     string `json:"name"`
	Mimetype string `json:"mimetype"`
	Size     int64  `json:"size"`
	FileURL  string `json:"fileUrl"`
}

// UploadImage uploads the image at path, e.g. for use as a channel icon.
func (c *Client) UploadImage(ctx context.Context, path string) (*ImageUpload, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, invalidArgument("image %s does not exist", path)
		}
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	return c.UploadImageReader(ctx, filepath.Base(path), f)
}

// UploadImageReader uploads image data read from r under the given file name.
func (c *Client) UploadImageReader(ctx context.Context, name string, r io.Reader) (*ImageUpload, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if name == "" {
		return nil, fmt.Errorf("%w: image name", ErrMissingParameters)
	}
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", name)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, c.apiURL("/upload/image", nil), &body, form.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var payload struct {
		Status bool        `json:"status"`
		Data   ImageUpload `json:"data"`
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	// Newer servers wrap the upload in {status, data}.
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Data.FileURL != "" {
		return &payload.Data, nil
	}
	var upload ImageUpload
	if err := json.Unmarshal(raw, &upload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &upload, nil
}
