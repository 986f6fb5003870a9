package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

const actorKey = "auth_actor"

// ActorMiddleware extracts the acting identity from a bearer token. The
// transport layer upstream already authenticated the caller; this middleware
// only recovers who they are for audit logging.
type ActorMiddleware struct {
	tokens *TokenManager
}

// NewActorMiddleware constructs the middleware.
func NewActorMiddleware(tokens *TokenManager) *ActorMiddleware {
	return &ActorMiddleware{tokens: tokens}
}

// Handle rejects requests without a resolvable actor identity.
func (m *ActorMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	var actor domain.Actor
	switch claims.ActorType {
	case domain.ActorTypeUser:
		actor = domain.UserActor(claims.SubjectID)
	case domain.ActorTypeWorker:
		actor = domain.WorkerActor(claims.SubjectID)
	default:
		return apperrors.NewUnauthorized("unknown actor type")
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// ActorFromContext retrieves the acting identity set by the middleware.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	val := c.Locals(actorKey)
	if val == nil {
		return domain.Actor{}, false
	}
	actor, ok := val.(domain.Actor)
	return actor, ok
}
