package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
	"time"
)

// Default expiry duration for presigned photo URLs
const DefaultPresignedURLExpiry = 7 * 24 * time.Hour

var ErrInvalidDataURI = errors.New("invalid data URI")

// PhotoStorage stores profile photos and returns a URL they can be fetched from.
type PhotoStorage interface {
	UploadPhoto(ctx context.Context, objectKey, contentType string, data []byte) (string, error)
}

// DataURI is a decoded data: URL.
type DataURI struct {
	ContentType string
	Data        []byte
}

// Extension returns the subtype of the content type, e.g. "png".
func (d DataURI) Extension() string {
	_, sub, ok := strings.Cut(d.ContentType, "/")
	if !ok {
		return "bin"
	}
	sub, _, _ = strings.Cut(sub, "+")
	return sub
}

// ParseDataURI decodes data:<mime>[;base64],<payload>.
func ParseDataURI(s string) (DataURI, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return DataURI{}, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURI{}, ErrInvalidDataURI
	}

	isBase64 := false
	params := strings.Split(meta, ";")
	contentType := params[0]
	for _, p := range params[1:] {
		if p == "base64" {
			isBase64 = true
		}
	}
	if contentType == "" {
		contentType = "text/plain"
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return DataURI{}, ErrInvalidDataURI
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return DataURI{}, ErrInvalidDataURI
		}
		data = []byte(unescaped)
	}
	return DataURI{ContentType: contentType, Data: data}, nil
}
