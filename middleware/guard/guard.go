package guard

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/MrKevinOConnell/api"
)

var (
	defaultTokenLookup     = "header:" + fiber.HeaderAuthorization
	defaultContextKey      = "current_user"
	ErrTokenMissingOrEmpty = errors.New("missing or malformed bearer token")
)

// SessionAuthenticator resolves a raw token to a live user. It mirrors the
// session guard so the middleware does not care how sessions are validated.
type SessionAuthenticator interface {
	AuthenticateRequest(ctx context.Context, raw string) (*api.User, error)
	Bind(ctx context.Context, user *api.User) context.Context
}

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler

	// Guard is required.
	Guard SessionAuthenticator

	// TokenLookup is a comma-separated list of sources, e.g.
	// "header:Authorization,cookie:access_token,query:token".
	TokenLookup string
	AuthScheme  string
	ContextKey  string
}

// New builds a fiber middleware that authenticates every request through the
// session guard and stores the resolved user in Locals and in the request's
// standard context.
func New(config ...Config) fiber.Handler {
	cfg := getDefaultConfig(config...)
	extractors := getExtractors(cfg.TokenLookup, cfg.AuthScheme)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := extractRawToken(c, extractors)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		user, err := cfg.Guard.AuthenticateRequest(c.UserContext(), raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, user)
		c.SetUserContext(cfg.Guard.Bind(c.UserContext(), user))

		return cfg.SuccessHandler(c)
	}
}

// UserFromCtx returns the authenticated user stored by the middleware. Pass
// the configured ContextKey when it differs from the default.
func UserFromCtx(c *fiber.Ctx, contextKey ...string) (*api.User, bool) {
	key := defaultContextKey
	if len(contextKey) > 0 && contextKey[0] != "" {
		key = contextKey[0]
	}
	user, ok := c.Locals(key).(*api.User)
	return user, ok
}

func getDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Guard == nil {
		panic("GUARD: middleware configuration: Guard is required.")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			if errors.Is(err, ErrTokenMissingOrEmpty) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"detail": ErrTokenMissingOrEmpty.Error(),
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "could not validate credentials",
			})
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = defaultContextKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

type tokenExtractor func(c *fiber.Ctx) (string, error)

func extractRawToken(c *fiber.Ctx, extractors []tokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func getExtractors(tokenLookup string, authScheme string) []tokenExtractor {
	extractors := make([]tokenExtractor, 0)

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}
		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

		switch source {
		case "header":
			extractors = append(extractors, tokenFromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(name))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(name))
		}
	}

	return extractors
}

func tokenFromHeader(header string, authScheme string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		scheme := strings.TrimSpace(authScheme)
		l := len(scheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], scheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrTokenMissingOrEmpty
	}
}

func tokenFromQuery(param string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrTokenMissingOrEmpty
		}
		return token, nil
	}
}

func tokenFromCookie(name string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMissingOrEmpty
		}
		return token, nil
	}
}
