package handler

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"bookapi/internal/model"
	"bookapi/internal/service"
	"bookapi/internal/storage"
)

type pageResponse struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ETag        string `json:"etag,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

type presignResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}

var errPageIndex = errors.New("page index out of range")

// pageRoute parses the book id, content id and page index of a page route.
func pageRoute(c *fiber.Ctx) (id string, cid int64, index int, ok bool) {
	if id, ok = bookID(c); !ok {
		return "", 0, 0, false
	}
	if cid, ok = contentID(c); !ok {
		return "", 0, 0, false
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_PAGE_INDEX", "invalid page index")
		return "", 0, 0, false
	}
	return id, cid, index, true
}

// pageKey resolves the route to an asset key after checking that the content
// exists and the index is within its page count.
func pageKey(c *fiber.Ctx, svc service.BookManager) (string, bool) {
	id, cid, index, ok := pageRoute(c)
	if !ok {
		return "", false
	}

	content, err := svc.GetContent(c.UserContext(), id, cid)
	if err != nil {
		_ = writeServiceError(c, err)
		return "", false
	}
	if index >= content.PageCount {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_PAGE_INDEX", errPageIndex.Error())
		return "", false
	}
	return model.PageKey(id, cid, index), true
}

// writeStoreError maps asset store failures. A missing object is a 404,
// anything else means the store is unavailable.
func writeStoreError(c *fiber.Ctx, err error) error {
	if errors.Is(err, storage.ErrObjectNotFound) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "page not found")
	}
	return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
}

// UploadPage stores the raw request body as one page. The write happens under
// the book's lock so it cannot interleave with a delete of the same content.
func UploadPage(svc service.BookManager, store storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, cid, index, ok := pageRoute(c)
		if !ok {
			return nil
		}
		body := c.Body()
		if len(body) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "page content is required")
		}
		ct := c.Get(fiber.HeaderContentType)
		if ct == "" {
			ct = "application/octet-stream"
		}

		var (
			info     storage.ObjectInfo
			storeErr error
		)
		err := svc.LockContent(c.UserContext(), id, cid, func(ctx context.Context, content model.BookContent) error {
			if index >= content.PageCount {
				return errPageIndex
			}
			info, storeErr = store.Put(ctx, model.PageKey(id, cid, index), bytes.NewReader(body), storage.PutObjectOptions{
				Size:        int64(len(body)),
				ContentType: ct,
			})
			return storeErr
		})
		switch {
		case errors.Is(err, errPageIndex):
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE_INDEX", errPageIndex.Error())
		case storeErr != nil:
			return writeStoreError(c, storeErr)
		case err != nil:
			return writeServiceError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(pageResponse{
			Key:         info.Key,
			Size:        info.Size,
			ETag:        info.ETag,
			ContentType: ct,
		})
	}
}

// GetPage streams a page from the asset store.
func GetPage(svc service.BookManager, store storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := pageKey(c, svc)
		if !ok {
			return nil
		}
		rc, info, err := store.Get(c.UserContext(), key)
		if err != nil {
			return writeStoreError(c, err)
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		if info.ETag != "" {
			c.Set(fiber.HeaderETag, info.ETag)
		}
		// fasthttp closes rc once the body is written
		return c.SendStream(rc, int(info.Size))
	}
}

// PresignPage answers with a time limited download URL for a page.
func PresignPage(svc service.BookManager, store storage.Storage, expiry time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := pageKey(c, svc)
		if !ok {
			return nil
		}
		url, err := store.PresignGet(c.UserContext(), key, expiry)
		if err != nil {
			return writeStoreError(c, err)
		}
		return c.JSON(presignResponse{URL: url, ExpiresIn: int64(expiry.Seconds())})
	}
}
