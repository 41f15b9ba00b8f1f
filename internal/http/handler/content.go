package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"bookapi/internal/http/middleware"
	"bookapi/internal/model"
	"bookapi/internal/service"
)

func contentID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("contentId"), 10, 64)
	if err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_CONTENT_ID", "invalid content id")
		return 0, false
	}
	return id, true
}

// AddContent appends a content to an existing book and answers with the new content.
func AddContent(svc service.BookManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := bookID(c)
		if !ok {
			return nil
		}
		var in model.BookContentCreate
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		_, content, err := svc.AddContent(c.UserContext(), id, in, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(content)
	}
}

func GetContent(svc service.BookManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := bookID(c)
		if !ok {
			return nil
		}
		cid, ok := contentID(c)
		if !ok {
			return nil
		}
		content, err := svc.GetContent(c.UserContext(), id, cid)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(content)
	}
}

func UpdateContent(svc service.BookManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := bookID(c)
		if !ok {
			return nil
		}
		cid, ok := contentID(c)
		if !ok {
			return nil
		}
		var update model.BookContentUpdate
		if err := c.BodyParser(&update); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		content, err := svc.UpdateContent(c.UserContext(), id, cid, update, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(content)
	}
}

// RemoveContent deletes one content; removing the last one deletes the book.
func RemoveContent(svc service.BookManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := bookID(c)
		if !ok {
			return nil
		}
		cid, ok := contentID(c)
		if !ok {
			return nil
		}
		if err := svc.RemoveContent(c.UserContext(), id, cid, middleware.ActorFromCtx(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
