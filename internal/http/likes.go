package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"snapgram/internal/domain"
	"snapgram/internal/policy"
)

func (h *Handler) listLikes(c *gin.Context) {
	if !h.authorize(c, policy.ReadLikes) {
		return
	}
	postID, ok := parseID(c, "id", "post")
	if !ok {
		return
	}
	req, ok := pageRequest(c)
	if !ok {
		return
	}

	page, err := h.likes.List(c.Request.Context(), postID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPage(page, likeToResponse))
}

func (h *Handler) toggleLike(c *gin.Context) {
	postID, ok := parseID(c, "id", "post")
	if !ok {
		return
	}

	result, err := h.likes.Toggle(c.Request.Context(), actorFrom(c), postID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.log(c).WithField("post_id", postID).WithField("result", result.String()).Debug("like toggled")

	if result == domain.ToggleCreated {
		c.JSON(http.StatusCreated, ToggleResponse{Created: true, Message: "Post liked"})
		return
	}
	c.JSON(http.StatusOK, ToggleResponse{Removed: true, Message: "Like removed"})
}
