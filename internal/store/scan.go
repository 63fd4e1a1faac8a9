package store

import (
	"bytes"
	"encoding/json"

	"github.com/shaan-hospital/apiserver/types"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// jsonList marshals v for a JSONB column. Nil slices are stored as [].
func jsonList[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	return json.Marshal(v)
}

// imageValue returns the JSONB value for an optional image; nil maps to NULL.
func imageValue(img *types.Image) (any, error) {
	if img == nil || img.PublicID == "" {
		return nil, nil
	}
	raw, err := json.Marshal(img)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func decodeImage(raw []byte) *types.Image {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var img types.Image
	if err := json.Unmarshal(raw, &img); err != nil || img.PublicID == "" {
		return nil
	}
	return &img
}
