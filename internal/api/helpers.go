package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"choreboard-backend-go/internal/core"
	"choreboard-backend-go/internal/middleware"
	"choreboard-backend-go/internal/stream"
)

// currentUserID pulls the authenticated user id set by the auth middleware.
// A missing id means the middleware did not run; the request is aborted.
func currentUserID(c *gin.Context) (string, bool) {
	raw, exists := c.Get(middleware.ContextUserID)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: user id not found in context"})
		return "", false
	}
	uid, ok := raw.(string)
	if !ok || uid == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid user id in context"})
		return "", false
	}
	return uid, true
}

// respondError maps domain errors onto HTTP statuses. Validation failures
// are the caller's fault; everything unmapped is a 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNoProfile),
		errors.Is(err, core.ErrChoreNotFound),
		errors.Is(err, core.ErrInviteNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrTagTaken),
		errors.Is(err, core.ErrAlreadyInHousehold):
		status = http.StatusConflict
	case errors.Is(err, core.ErrNotRequestor),
		errors.Is(err, core.ErrNotAcceptor),
		errors.Is(err, core.ErrOwnChore):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrNameRequired),
		errors.Is(err, core.ErrTagRequired),
		errors.Is(err, core.ErrNoHousehold),
		errors.Is(err, core.ErrInviteExpired),
		errors.Is(err, core.ErrChoreNotOpen),
		errors.Is(err, core.ErrNotReadyForReview),
		errors.Is(err, core.ErrNoChoreSelected),
		errors.Is(err, core.ErrEmptyMessage):
		status = http.StatusBadRequest
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

// decodeImages turns base64 request payloads into raw bytes.
func decodeImages(encoded []string) ([][]byte, error) {
	if len(encoded) == 0 {
		return nil, nil
	}
	images := make([][]byte, 0, len(encoded))
	for i, e := range encoded {
		data, err := base64.StdEncoding.DecodeString(e)
		if err != nil {
			return nil, fmt.Errorf("image %d is not valid base64: %w", i, err)
		}
		images = append(images, data)
	}
	return images, nil
}

// streamState serves a State as a server-sent event stream: the current
// value immediately, then every update until the client disconnects.
func streamState[T any](c *gin.Context, state *stream.State[T]) {
	ch, cancel := state.Watch(8)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case v, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("state", v)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
