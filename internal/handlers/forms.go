package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/internal/services"
)

const (
	maxMultipartMemory = 32 << 20
	maxImageBytes      = 10 << 20
	formFieldImage     = "image"
	formFieldDocAvatar = "docAvatar"
)

// isMultipart reports whether the request carries a multipart form.
func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return apperr.Validation("Invalid multipart form!")
	}
	return nil
}

// formFields collects the first value of every text field of a parsed
// multipart form.
func formFields(r *http.Request) map[string]any {
	fields := make(map[string]any)
	if r.MultipartForm == nil {
		return fields
	}
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return fields
}

// decodeForm maps fields onto dst through its JSON tags.
func decodeForm(fields map[string]any, dst any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return apperr.Validation("Invalid request body!")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperr.Validation("Invalid request body!")
	}
	return nil
}

// listField turns a comma separated field into a list. Blank values are
// dropped so the stored list is kept.
func listField(fields map[string]any, key string) {
	raw, ok := fields[key].(string)
	if !ok {
		return
	}
	if strings.TrimSpace(raw) == "" {
		delete(fields, key)
		return
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	fields[key] = items
}

// jsonField treats a field as an embedded JSON document.
func jsonField(fields map[string]any, key string) {
	raw, ok := fields[key].(string)
	if !ok {
		return
	}
	if strings.TrimSpace(raw) == "" {
		delete(fields, key)
		return
	}
	fields[key] = json.RawMessage(raw)
}

// boolField reads "true" as true and any other value as false.
func boolField(fields map[string]any, key string) {
	raw, ok := fields[key].(string)
	if !ok {
		return
	}
	fields[key] = strings.EqualFold(strings.TrimSpace(raw), "true")
}

// formImage reads an optional image file. It returns nil when the field is
// absent.
func formImage(r *http.Request, field string) (*services.ImageUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, apperr.Validation("Only one " + field + " file is allowed!")
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	data, err := readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		return nil, err
	}

	return &services.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, apperr.Validation("Uploaded file too large!")
	}
	return data, nil
}

// decodeBody fills dst from a JSON body or, for multipart requests, from the
// form fields after prepare has adjusted them. The image in imageField is
// returned when present.
func decodeBody(r *http.Request, dst any, imageField string, prepare func(map[string]any)) (*services.ImageUpload, error) {
	if !isMultipart(r) {
		return nil, decodeJSON(r, dst)
	}
	if err := parseMultipart(r); err != nil {
		return nil, err
	}
	fields := formFields(r)
	if prepare != nil {
		prepare(fields)
	}
	if err := decodeForm(fields, dst); err != nil {
		return nil, err
	}
	if imageField == "" {
		return nil, nil
	}
	return formImage(r, imageField)
}
