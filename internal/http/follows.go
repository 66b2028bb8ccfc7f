package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"snapgram/internal/domain"
	"snapgram/internal/policy"
	"snapgram/internal/service"
)

// followPayload accepts the target id as a JSON number or a numeric string.
type followPayload struct {
	Following json.Number `json:"following" binding:"required"`
}

func (h *Handler) toggleFollow(c *gin.Context) {
	if !h.authorize(c, policy.ToggleFollow) {
		return
	}
	var payload followPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		bindError(c, err)
		return
	}
	targetID, err := payload.Following.Int64()
	if err != nil {
		badRequest(c, "following must be a user id")
		return
	}

	result, follow, err := h.follows.Toggle(c.Request.Context(), actorFrom(c), targetID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.log(c).WithField("following", targetID).WithField("result", result.String()).Debug("follow toggled")

	if result == domain.ToggleCreated {
		resp := followToResponse(*follow)
		c.JSON(http.StatusCreated, ToggleResponse{Created: true, Message: "Now following", Follow: &resp})
		return
	}
	c.JSON(http.StatusOK, ToggleResponse{Removed: true, Message: "Unfollowed"})
}

func (h *Handler) listFollowers(c *gin.Context) {
	h.listFollows(c, h.follows.Followers)
}

func (h *Handler) listFollowing(c *gin.Context) {
	h.listFollows(c, h.follows.Following)
}

type followLister func(ctx context.Context, userID int64, req service.PageRequest) (service.Paged[domain.Follow], error)

func (h *Handler) listFollows(c *gin.Context, list followLister) {
	if !h.authorize(c, policy.ReadUsers) {
		return
	}
	userID, ok := parseID(c, "id", "user")
	if !ok {
		return
	}
	req, ok := pageRequest(c)
	if !ok {
		return
	}

	page, err := list(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPage(page, followToResponse))
}
