package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mattsolo1/grove-ged/pkg/models"
)

// File is one upload. Name is the file name stored on the server.
type File struct {
	Name    string
	Content io.Reader
}

// OpenFile opens a local file for upload. An empty name keeps the base name
// of path.
func OpenFile(path, name string) (File, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, nil, fmt.Errorf("open %s: %w", path, err)
	}
	if name == "" {
		name = filepath.Base(path)
	}
	return File{Name: name, Content: f}, f.Close, nil
}

// Upload stores one document under parentID.
func (c *Client) Upload(ctx context.Context, parentID string, file File) (*models.Item, error) {
	r, err := multipartRequest("upload", joinPath("/api/upload", seg(parentID)), "file", []File{file})
	if err != nil {
		return nil, err
	}
	var item models.Item
	if err := c.do(ctx, r, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UploadFiles stores several documents under parentID in one request. The
// server skips files it cannot write, so the result may be shorter than
// files.
func (c *Client) UploadFiles(ctx context.Context, parentID string, files []File) ([]models.Item, error) {
	if len(files) == 0 {
		return nil, errors.New("upload: no files given")
	}
	r, err := multipartRequest("upload_multiple", joinPath("/api/upload-multiple", seg(parentID)), "files", files)
	if err != nil {
		return nil, err
	}
	var items []models.Item
	if err := c.do(ctx, r, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// multipartRequest buffers the form so the request can carry a length and
// the writer's boundary in its content type.
func multipartRequest(op, path, field string, files []File) (request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		if f.Name == "" {
			return request{}, fmt.Errorf("%s: file name is required", op)
		}
		part, err := w.CreateFormFile(field, f.Name)
		if err != nil {
			return request{}, fmt.Errorf("%s: create form part %s: %w", op, f.Name, err)
		}
		if f.Content != nil {
			if _, err := io.Copy(part, f.Content); err != nil {
				return request{}, fmt.Errorf("%s: read %s: %w", op, f.Name, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return request{}, fmt.Errorf("%s: close form: %w", op, err)
	}
	return request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, nil
}
