package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"
)

// ErrNotConfigured is returned by Store when no media backend is set up.
var ErrNotConfigured = errors.New("media storage is not configured")

// Kind groups uploads under a key prefix.
type Kind string

const (
	KindImage  Kind = "images"
	KindVideo  Kind = "videos"
	KindAvatar Kind = "avatars"
)

// Object is a binary upload headed for media storage.
type Object struct {
	Kind        Kind
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service stores uploaded media and hands back stable retrievable URLs.
type Service interface {
	Store(ctx context.Context, obj Object) (string, error)
	// Transform returns the URL of the rendition of rawURL in format (e.g. "mp4").
	Transform(ctx context.Context, rawURL, format string) (string, error)
}

// Unconfigured rejects uploads and returns URLs unchanged.
type Unconfigured struct{}

func (Unconfigured) Store(context.Context, Object) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) Transform(_ context.Context, rawURL, _ string) (string, error) {
	return rawURL, nil
}

var _ Service = Unconfigured{}

// renditionURL swaps the extension of the URL path for format.
func renditionURL(rawURL, format string) (string, error) {
	format = strings.TrimPrefix(strings.ToLower(format), ".")
	if rawURL == "" || format == "" {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	ext := path.Ext(u.Path)
	if strings.EqualFold(ext, "."+format) {
		return rawURL, nil
	}
	u.Path = strings.TrimSuffix(u.Path, ext) + "." + format
	u.RawPath = ""
	return u.String(), nil
}
