package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"snapgram/internal/policy"
)

type commentPayload struct {
	Post    int64  `json:"post" binding:"required"`
	Message string `json:"message" binding:"required"`
}

type commentUpdatePayload struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) listComments(c *gin.Context) {
	if !h.authorize(c, policy.ReadComment) {
		return
	}
	var postID int64
	if raw := c.Query("post"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, "post must be a positive integer")
			return
		}
		postID = id
	}
	req, ok := pageRequest(c)
	if !ok {
		return
	}

	page, err := h.feed.ListComments(c.Request.Context(), postID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPage(page, commentToResponse))
}

func (h *Handler) createComment(c *gin.Context) {
	if !h.authorize(c, policy.CreateComment) {
		return
	}
	var payload commentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		bindError(c, err)
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), actorFrom(c), payload.Post, payload.Message)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentToResponse(*comment))
}

func (h *Handler) updateComment(c *gin.Context) {
	if !h.requireActor(c) {
		return
	}
	id, ok := parseID(c, "id", "comment")
	if !ok {
		return
	}
	var payload commentUpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		bindError(c, err)
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), actorFrom(c), id, payload.Message)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, commentToResponse(*comment))
}

func (h *Handler) deleteComment(c *gin.Context) {
	id, ok := parseID(c, "id", "comment")
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

