package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken is returned for tokens that were not produced by Encode.
var ErrInvalidToken = errors.New("invalid pagination token")

// Cursor is the opaque keyset state we encode/decode.
// CreatedUnix (in millis) + ID establish a stable position in a
// created_at DESC, id DESC listing.
type Cursor struct {
	ID          uint64 `json:"id"`
	CreatedUnix int64  `json:"created_unix,omitempty"`
}

// After builds the cursor that resumes right after a row.
func After(id uint64, createdAt time.Time) Cursor {
	return Cursor{ID: id, CreatedUnix: createdAt.UnixMilli()}
}

// IsZero reports whether the cursor points at the first page.
func (c Cursor) IsZero() bool {
	return c.ID == 0 && c.CreatedUnix == 0
}

// CreatedAt is the cursor timestamp in UTC.
func (c Cursor) CreatedAt() time.Time {
	return time.UnixMilli(c.CreatedUnix).UTC()
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidToken
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, ErrInvalidToken
	}
	if c.ID == 0 {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}
