package apisdk

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// LocalFile describes a file picked for upload.
type LocalFile struct {
	Path     string
	Name     string
	Size     int64
	MimeType string
}

func (f LocalFile) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

// InspectFile stats the file at path and sniffs its content type.
func InspectFile(path string) (LocalFile, error) {
	if path == "" {
		return LocalFile{}, ErrMissingFilePath
	}

	info, err := os.Stat(path)
	if err != nil {
		return LocalFile{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return LocalFile{}, fmt.Errorf("%s is a directory", path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return LocalFile{}, fmt.Errorf("failed to detect file type: %w", err)
	}

	return LocalFile{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MimeType: mtype.String(),
	}, nil
}

type multipartForm struct {
	Body        *bytes.Buffer
	ContentType string
}

// newMultipartForm writes the file under field plus any extra text fields.
// The part carries the sniffed content type so the server can filter on it.
func newMultipartForm(field, filePath string, fields map[string]string) (*multipartForm, error) {
	local, err := InspectFile(filePath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, local.Name))
	h.Set("Content-Type", local.MimeType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to write file to form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	return &multipartForm{Body: &body, ContentType: writer.FormDataContentType()}, nil
}
