package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/types"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = buf.Bytes()
	return nil
}

func (f *fakeObjects) URL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeObjects) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type recordingCleaner struct {
	mu        sync.Mutex
	scheduled []string
}

func (c *recordingCleaner) Schedule(_ context.Context, publicID, _ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduled = append(c.scheduled, publicID)
}

func (c *recordingCleaner) ids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.scheduled...)
}

func pngUpload() *ImageUpload {
	return &ImageUpload{Filename: "a.png", ContentType: "image/png", Data: pngHeader}
}

func ptr[T any](v T) *T {
	return &v
}

func kindOf(err error) apperr.Kind {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return apperr.KindInternal
}

func patientInput(email string) AccountInput {
	return AccountInput{
		ProfileInput: ProfileInput{
			FirstName: "Alice",
			LastName:  "Smith",
			Email:     email,
			Phone:     "03001234567",
			Aadhar:    "123412341234",
			DOB:       "1995-04-02",
			Gender:    types.GenderFemale,
		},
		Password: "password123",
	}
}
