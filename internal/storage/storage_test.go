package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenditionURL(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		format string
		want   string
	}{
		{"already mp4", "https://cdn.example.com/videos/a.mp4", "mp4", "https://cdn.example.com/videos/a.mp4"},
		{"uppercase extension", "https://cdn.example.com/videos/a.MP4", "mp4", "https://cdn.example.com/videos/a.MP4"},
		{"mov swapped", "https://cdn.example.com/videos/a.mov", "mp4", "https://cdn.example.com/videos/a.mp4"},
		{"no extension", "https://cdn.example.com/videos/a", "mp4", "https://cdn.example.com/videos/a.mp4"},
		{"query kept", "https://cdn.example.com/videos/a.webm?v=2", ".mp4", "https://cdn.example.com/videos/a.mp4?v=2"},
		{"empty url", "", "mp4", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renditionURL(tt.in, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnconfigured(t *testing.T) {
	var svc Service = Unconfigured{}
	_, err := svc.Store(context.Background(), Object{Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrNotConfigured)

	out, err := svc.Transform(context.Background(), "https://x/y.mov", "mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://x/y.mov", out)
}

func TestS3ObjectAddressing(t *testing.T) {
	svc := &S3Service{opts: S3Options{Bucket: "media", KeyPrefix: "/snapgram/", Region: "eu-west-1"}}

	key := svc.objectKey(Object{Kind: KindVideo, Filename: "Clip.MOV"})
	assert.True(t, strings.HasPrefix(key, "snapgram/videos/"), key)
	assert.True(t, strings.HasSuffix(key, ".mov"), key)

	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/"+key, svc.objectURL(key))

	svc.opts.PublicURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com/"+key, svc.objectURL(key))
}
