package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"bookapi/internal/http/middleware"
	"bookapi/internal/model"
	"bookapi/internal/service"
)

const defaultSnapshotCount = 20

// createBookRequest is a new book together with its first content.
type createBookRequest struct {
	model.BookCreate
	Content model.BookContentCreate `json:"content"`
}

type revertRequest struct {
	SnapshotID string `json:"snapshot_id"`
}

type voteRequest struct {
	Type model.VoteType `json:"type"`
}

// bookID validates the :id route parameter. ok is false when an error
// response has already been written.
func bookID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		return "", false
	}
	// params alias the request buffer; ids may outlive the request in snapshots
	return utils.CopyString(id), true
}

func GetBook(svc service.BookManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := bookID(c)
		if !ok {
			return nil
		}
		book, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(book)
	}
}

// CreateBook expects a JSON book with a nested "content" object.
func CreateBook(svc service.BookManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createBookRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		book, err := svc.Create(c.UserContext(), req.BookCreate, req.Content, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(book)
	}
}

func UpdateBook(svc service.BookManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := bookID(c)
		if !ok {
			return nil
		}
		var update model.BookUpdate
		if err := c.BodyParser(&update); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		book, err := svc.Update(c.UserContext(), id, update, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(book)
	}
}

func DeleteBook(svc service.BookManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := bookID(c)
		if !ok {
			return nil
		}
		if err := svc.Delete(c.UserContext(), id, middleware.ActorFromCtx(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListSnapshots pages through a book's history with start, count and
// order=asc|desc (newest first by default).
func ListSnapshots(svc service.BookManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := bookID(c)
		if !ok {
			return nil
		}
		start, err := strconv.Atoi(c.Query("start", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_START", "invalid start")
		}
		count, err := strconv.Atoi(c.Query("count", strconv.Itoa(defaultSnapshotCount)))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_COUNT", "invalid count")
		}
		var chronological bool
		switch c.Query("order", "desc") {
		case "asc":
			chronological = true
		case "desc":
		default:
			return writeError(c, fiber.StatusBadRequest, "INVALID_ORDER", "order must be asc or desc")
		}

		snaps, err := svc.ListSnapshots(c.UserContext(), id, start, count, chronological)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(snaps)
	}
}

func GetSnapshot(svc service.BookManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := bookID(c)
		if !ok {
			return nil
		}
		snapshotID := c.Params("snapshotId")
		if _, err := uuid.Parse(snapshotID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SNAPSHOT_ID", "invalid snapshot id format")
		}
		snap, err := svc.GetSnapshot(c.UserContext(), id, snapshotID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(snap)
	}
}

// RevertBook restores the state recorded by {"snapshot_id": ...}. Reverting
// to a deleted state answers 204.
func RevertBook(svc service.BookManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := bookID(c)
		if !ok {
			return nil
		}
		var req revertRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if _, err := uuid.Parse(req.SnapshotID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SNAPSHOT_ID", "invalid snapshot id format")
		}

		book, err := svc.Revert(c.UserContext(), id, req.SnapshotID, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		if book == nil {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(book)
	}
}

// SetVote casts or changes the caller's vote from {"type": "up"|"down"}.
func SetVote(svc service.BookManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := bookID(c)
		if !ok {
			return nil
		}
		var req voteRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if !req.Type.Valid() {
			return writeError(c, fiber.StatusBadRequest, "INVALID_VOTE_TYPE", "vote type must be up or down")
		}

		vote, err := svc.Vote(c.UserContext(), id, middleware.ActorFromCtx(c), &req.Type)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(vote)
	}
}

// UnsetVote retracts the caller's vote. Retracting a missing vote is not an error.
func UnsetVote(svc service.BookManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := bookID(c)
		if !ok {
			return nil
		}
		if _, err := svc.Vote(c.UserContext(), id, middleware.ActorFromCtx(c), nil); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
