package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"bookapi/internal/model"
)

// Headers set by the gateway after authenticating the caller.
const (
	UserIDHeader         = "X-User-ID"
	UserReputationHeader = "X-User-Reputation"
	UserRestrictedHeader = "X-User-Restricted"
	ChangeReasonHeader   = "X-Change-Reason"

	// ActorLocalKey is the key used to store the model.Actor in Fiber's context locals.
	ActorLocalKey = "actor"
)

// Claims builds the acting identity from the gateway headers. A request
// without X-User-ID acts as the system.
func Claims() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := model.Actor{
			UserID: utils.CopyString(c.Get(UserIDHeader)),
			Reason: utils.CopyString(c.Get(ChangeReasonHeader)),
		}

		if v := c.Get(UserReputationHeader); v != "" {
			rep, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid "+UserReputationHeader)
			}
			actor.Reputation = rep
		}
		if v := c.Get(UserRestrictedHeader); v != "" {
			restricted, err := strconv.ParseBool(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid "+UserRestrictedHeader)
			}
			actor.IsRestricted = restricted
		}

		c.Locals(ActorLocalKey, actor)
		return c.Next()
	}
}

// ActorFromCtx returns the actor stored by Claims, or the system actor.
func ActorFromCtx(c *fiber.Ctx) model.Actor {
	actor, _ := c.Locals(ActorLocalKey).(model.Actor)
	return actor
}

// Requirement is what a route demands of the acting user.
type Requirement struct {
	Unrestricted  bool
	MinReputation float64
	Reason        bool
}

// RequireClaims rejects callers that do not meet req. It must run after
// Claims. The system actor is never accepted.
func RequireClaims(req Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFromCtx(c)

		switch {
		case actor.IsSystem():
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		case req.Unrestricted && actor.IsRestricted:
			return fiber.NewError(fiber.StatusForbidden, "restricted users cannot perform this action")
		case actor.Reputation < req.MinReputation:
			return fiber.NewError(fiber.StatusForbidden,
				"at least "+strconv.FormatFloat(req.MinReputation, 'f', -1, 64)+" reputation required")
		case req.Reason && actor.Reason == "":
			return fiber.NewError(fiber.StatusForbidden, ChangeReasonHeader+" header required")
		}
		return c.Next()
	}
}
