package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"snapgram/internal/policy"
	"snapgram/internal/service"
)

type registerPayload struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword"`
	// confirm_password is accepted for older clients.
	ConfirmPasswordLegacy string `json:"confirm_password"`
}

func (p registerPayload) confirmation() string {
	if p.ConfirmPassword != "" {
		return p.ConfirmPassword
	}
	return p.ConfirmPasswordLegacy
}

type tokenPayload struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshPayload struct {
	Refresh string `json:"refresh" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var payload registerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.Registration{
		Username:        payload.Username,
		Email:           payload.Email,
		Password:        payload.Password,
		ConfirmPassword: payload.confirmation(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.log(c).WithField("user_id", user.ID).Info("user registered")
	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) issueToken(c *gin.Context) {
	var payload tokenPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		bindError(c, err)
		return
	}

	pair, err := h.users.Login(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{
		Access:           pair.Access,
		Refresh:          pair.Refresh,
		AccessExpiresAt:  pair.AccessExpiresAt.Format(time.RFC3339),
		RefreshExpiresAt: pair.RefreshExpiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) refreshToken(c *gin.Context) {
	var payload refreshPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		bindError(c, err)
		return
	}

	access, expiresAt, err := h.users.RefreshAccess(c.Request.Context(), payload.Refresh)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{
		Access:          access,
		AccessExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) listUsers(c *gin.Context) {
	if !h.authorize(c, policy.ReadUsers) {
		return
	}
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	page, err := h.users.List(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPage(page, userToResponse))
}

func (h *Handler) currentUser(c *gin.Context) {
	user, err := h.users.Current(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) deleteCurrentUser(c *gin.Context) {
	actor := actorFrom(c)
	if err := h.users.DeleteAccount(c.Request.Context(), actor); err != nil {
		h.writeError(c, err)
		return
	}
	h.log(c).WithField("user_id", actor.UserID).Info("account deleted")
	c.Status(http.StatusNoContent)
}

func (h *Handler) uploadProfilePic(c *gin.Context) {
	actor := actorFrom(c)
	// reject anonymous callers before reading the upload
	if err := policy.Can(actor, policy.UpdateSelf, policy.Resource{}); err != nil {
		h.writeError(c, err)
		return
	}
	fh, err := c.FormFile("profile_pic")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			badRequest(c, "profile_pic file is required")
			return
		}
		badRequest(c, "profile_pic upload could not be read")
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "profile_pic upload could not be read")
		return
	}
	defer f.Close()

	user, err := h.users.SetProfilePic(c.Request.Context(), actor, *uploadObject(fh, f))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}
