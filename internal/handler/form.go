package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"moviemeter/internal/service"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// requestForm holds the text fields and the optional image of a request
// body sent as JSON, multipart or urlencoded form.
type requestForm struct {
	fields map[string]string
	image  multipart.File
	header *multipart.FileHeader
}

func (f *requestForm) value(key string) (string, bool) {
	v, ok := f.fields[key]
	return strings.TrimSpace(v), ok
}

// upload returns the attached image, or nil when none was sent.
func (f *requestForm) upload() *service.ImageUpload {
	if f.image == nil {
		return nil
	}
	return &service.ImageUpload{
		FileName: f.header.Filename,
		Reader:   f.image,
		Size:     f.header.Size,
	}
}

func (f *requestForm) Close() {
	if f.image != nil {
		f.image.Close()
	}
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

// readForm parses the request body and the image stored under imageField.
func (h *Handlers) readForm(w http.ResponseWriter, r *http.Request, imageField string) (*requestForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize+1<<20)
	form := &requestForm{fields: map[string]string{}}

	if isJSON(r) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid request body")
		}
		for k, v := range body {
			if v != nil {
				form.fields[k] = fmt.Sprint(v)
			}
		}
		return form, nil
	}

	err := r.ParseMultipartForm(h.Cfg.MaxUploadSize)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, fmt.Errorf("invalid form: %v", err)
	}

	for k := range r.Form {
		form.fields[k] = r.Form.Get(k)
	}

	if r.MultipartForm == nil {
		return form, nil
	}

	file, header, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %v", imageField, err)
	}

	if header.Size > h.Cfg.MaxUploadSize {
		file.Close()
		return nil, fmt.Errorf("%s exceeds the %d byte limit", imageField, h.Cfg.MaxUploadSize)
	}

	if err := checkImageType(file); err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %v", imageField, err)
	}

	form.image = file
	form.header = header
	return form, nil
}

// checkImageType sniffs the file content and rewinds it.
func checkImageType(file multipart.File) error {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	contentType := http.DetectContentType(buf[:n])
	if !allowedImageTypes[contentType] {
		return fmt.Errorf("unsupported image type %s", contentType)
	}

	_, err = file.Seek(0, io.SeekStart)
	return err
}
