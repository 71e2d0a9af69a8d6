package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ebase/internal/core/apperror"
	appctx "ebase/internal/core/context"
	"ebase/internal/infrastructure/storage/postgres"
	"ebase/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

const (
	ctxIdempotencyKey   = "idempotency_key"
	ctxIdempotencyStore = "idempotency_store"
)

// IdempotencyStore keeps the first response of a keyed request.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	ReleaseKey(ctx context.Context, key string) error
}

var _ IdempotencyStore = (*postgres.IdempotencyStore)(nil)

// Idempotency middleware protects against duplicate requests.
// A double-submitted shipment replays the first response instead of shipping twice.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		// the path template plus the concrete path keep two repairs apart
		operation := c.Request.Method + " " + c.FullPath() + " " + c.Request.URL.Path

		replay, err := store.AcquireKey(c.Request.Context(), key, appctx.GetUserID(c.Request.Context()), operation, requestHash)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
				c.Abort()
				return
			}
			_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			c.Abort()
			return
		}

		if replay != nil {
			c.Header("Idempotent-Replay", "true")
			if replay.StatusCode == http.StatusNoContent {
				c.Status(http.StatusNoContent)
			} else {
				c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			}
			c.Abort()
			return
		}

		c.Set(ctxIdempotencyKey, key)
		c.Set(ctxIdempotencyStore, store)

		c.Next()
	}
}

func idempotencyOf(c *gin.Context) (IdempotencyStore, string, bool) {
	key, ok := c.Get(ctxIdempotencyKey)
	if !ok {
		return nil, "", false
	}
	store, ok := c.Get(ctxIdempotencyStore)
	if !ok {
		return nil, "", false
	}
	s, ok := store.(IdempotencyStore)
	if !ok || s == nil {
		return nil, "", false
	}
	return s, key.(string), true
}

// CompleteIdempotency stores the response of a keyed request for replay (best-effort).
func CompleteIdempotency(c *gin.Context, statusCode int, contentType string, body []byte) {
	store, key, ok := idempotencyOf(c)
	if !ok {
		return
	}
	if err := store.CompleteKey(c.Request.Context(), key, statusCode, contentType, body); err != nil {
		logger.Warn(c.Request.Context(), "store idempotent response", "key", key, "error", err)
	}
}

// failIdempotency stores a client error for replay; server errors release the
// key so the request can be retried.
func failIdempotency(c *gin.Context, statusCode int, body []byte) {
	store, key, ok := idempotencyOf(c)
	if !ok {
		return
	}
	var err error
	if statusCode >= http.StatusInternalServerError {
		err = store.ReleaseKey(c.Request.Context(), key)
	} else {
		err = store.FailKey(c.Request.Context(), key, statusCode, "application/json", body)
	}
	if err != nil {
		logger.Warn(c.Request.Context(), "finish idempotency key", "key", key, "error", err)
	}
}
