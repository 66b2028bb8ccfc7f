package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"snapgram/internal/domain"
	"snapgram/internal/policy"
	"snapgram/internal/service"
	"snapgram/internal/storage"
)

// postPayload is the only writable shape of a post; author and timestamps are never bound.
type postPayload struct {
	Content *string `json:"content" form:"content"`
	Image   *string `json:"image" form:"image"`
	Video   *string `json:"video" form:"video"`
}

func (h *Handler) listPosts(c *gin.Context) {
	if !h.authorize(c, policy.ReadPost) {
		return
	}
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	page, err := h.feed.ListPosts(c.Request.Context(), c.Query("author"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.postPage(c, page))
}

func (h *Handler) searchPosts(c *gin.Context) {
	if !h.authorize(c, policy.ReadPost) {
		return
	}
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	page, err := h.feed.SearchPosts(c.Request.Context(), c.Query("q"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.postPage(c, page))
}

func (h *Handler) createPost(c *gin.Context) {
	if !h.authorize(c, policy.CreatePost) {
		return
	}
	payload, image, video, closeFiles, ok := h.bindPost(c)
	if !ok {
		return
	}
	defer closeFiles()
	in := service.PostInput{Image: image, Video: video}
	if payload.Content != nil {
		in.Content = *payload.Content
	}

	post, err := h.posts.Create(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.postToResponse(c.Request.Context(), *post))
}

func (h *Handler) getPost(c *gin.Context) {
	id, ok := parseID(c, "id", "post")
	if !ok {
		return
	}
	post, err := h.posts.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.postToResponse(c.Request.Context(), *post))
}

func (h *Handler) updatePost(c *gin.Context) {
	if !h.requireActor(c) {
		return
	}
	id, ok := parseID(c, "id", "post")
	if !ok {
		return
	}
	payload, image, video, closeFiles, ok := h.bindPost(c)
	if !ok {
		return
	}
	defer closeFiles()

	post, err := h.posts.Update(c.Request.Context(), actorFrom(c), id, service.PostUpdate{
		Content: payload.Content,
		Image:   image,
		Video:   video,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.postToResponse(c.Request.Context(), *post))
}

func (h *Handler) deletePost(c *gin.Context) {
	id, ok := parseID(c, "id", "post")
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindPost reads a JSON or multipart post payload. Multipart image/video parts may be
// files (uploaded to media storage) or plain URL fields. The returned func closes any
// opened upload parts.
func (h *Handler) bindPost(c *gin.Context) (postPayload, *service.MediaInput, *service.MediaInput, func(), bool) {
	var payload postPayload
	noop := func() {}
	if err := c.ShouldBind(&payload); err != nil {
		bindError(c, err)
		return payload, nil, nil, noop, false
	}

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return payload, urlInput(payload.Image), urlInput(payload.Video), noop, true
	}

	var files []io.Closer
	closeFiles := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	image, err := mediaPart(c, "image", payload.Image, &files)
	if err == nil {
		var video *service.MediaInput
		if video, err = mediaPart(c, "video", payload.Video, &files); err == nil {
			return payload, image, video, closeFiles, true
		}
	}
	closeFiles()
	badRequest(c, err.Error())
	return payload, nil, nil, noop, false
}

func urlInput(url *string) *service.MediaInput {
	if url == nil {
		return nil
	}
	return &service.MediaInput{URL: *url}
}

func mediaPart(c *gin.Context, field string, fallback *string, opened *[]io.Closer) (*service.MediaInput, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return urlInput(fallback), nil
		}
		return nil, fmt.Errorf("%s upload could not be read", field)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%s upload could not be read", field)
	}
	*opened = append(*opened, f)
	return &service.MediaInput{Upload: uploadObject(fh, f)}, nil
}

func uploadObject(fh *multipart.FileHeader, body io.Reader) *storage.Object {
	return &storage.Object{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        body,
	}
}

func (h *Handler) postPage(c *gin.Context, page service.Paged[domain.Post]) PageResponse[PostResponse] {
	ctx := c.Request.Context()
	return toPage(page, func(p domain.Post) PostResponse { return h.postToResponse(ctx, p) })
}

func parseID(c *gin.Context, param, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, fmt.Sprintf("invalid %s id", what))
		return 0, false
	}
	return id, true
}

func pageRequest(c *gin.Context) (service.PageRequest, bool) {
	var req service.PageRequest
	for _, q := range []struct {
		name string
		dst  *int
	}{
		{"page", &req.Page},
		{"page_size", &req.PageSize},
	} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, fmt.Sprintf("%s must be a positive integer", q.name))
			return req, false
		}
		*q.dst = n
	}
	return req, true
}
