package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"snapgram/internal/domain"
	"snapgram/internal/policy"
)

type errorKind struct {
	target error
	status int
	code   string
}

var errorKinds = []errorKind{
	{domain.ErrValidation, http.StatusBadRequest, "validation_error"},
	{domain.ErrInvalidTarget, http.StatusBadRequest, "invalid_target"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
}

// writeError renders err as a structured error body. Unknown errors are logged and
// reported as a generic internal error.
func (h *Handler) writeError(c *gin.Context, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			c.AbortWithStatusJSON(k.status, errorBody(k.code, err.Error()))
			return
		}
	}
	h.log(c).WithError(err).Error("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
}

// authorize runs the access policy for operations that have no service-side owner check.
func (h *Handler) authorize(c *gin.Context, op policy.Operation) bool {
	if err := policy.Can(actorFrom(c), op, policy.Resource{}); err != nil {
		h.writeError(c, err)
		return false
	}
	return true
}

// requireActor rejects anonymous callers before their payload is read.
func (h *Handler) requireActor(c *gin.Context) bool {
	if !actorFrom(c).Authenticated() {
		h.writeError(c, fmt.Errorf("%w: sign in first", domain.ErrUnauthenticated))
		return false
	}
	return true
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator errors name fields the way clients send them.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{f.Tag.Get("json"), f.Tag.Get("form")} {
				name, _, _ := strings.Cut(tag, ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

// bindError reports a failed request bind without exposing Go type names.
func bindError(c *gin.Context, err error) {
	var (
		fields    validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &fields):
		msgs := make([]string, 0, len(fields))
		for _, fe := range fields {
			if fe.Tag() == "required" {
				msgs = append(msgs, fe.Field()+" is required")
			} else {
				msgs = append(msgs, fe.Field()+" is invalid")
			}
		}
		badRequest(c, strings.Join(msgs, "; "))
	case errors.As(err, &typeErr):
		badRequest(c, fmt.Sprintf("%s has the wrong type", typeErr.Field))
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		badRequest(c, "request body must be valid JSON")
	default:
		badRequest(c, "invalid request body")
	}
}

func errorBody(code, message string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": message}}
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody("validation_error", message))
}
