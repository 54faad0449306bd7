package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// WriteError renders a rich error as a JSON response, using the error's own
// code as the HTTP status. Unknown errors collapse to a masked 500.
func WriteError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(fiber.Map{
		"detail": richErr.Message,
		"code":   richErr.TextCode,
	})
}

type AuthControllerRoutes struct {
	Login  string
	Logout string
	Me     string
}

// AuthController exposes the wallet login flow over HTTP. The access token
// travels in the JSON response; the refresh token only ever travels in an
// HTTP-only cookie.
type AuthController struct {
	Logger            Logger
	Auther            *WalletAuthenticator
	Routes            *AuthControllerRoutes
	RefreshCookieName string
	SecureCookies     bool
}

type AuthControllerOption func(*AuthController) *AuthController

func WithAuthLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithAuthenticator(auther *WalletAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:            defLogger{},
		RefreshCookieName: "refresh_token",
		SecureCookies:     true,
		Routes: &AuthControllerRoutes{
			Login:  "/auth/login",
			Logout: "/auth/logout",
			Me:     "/users/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing WalletAuthenticator in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the login flow. The protected handler guards the
// logout and profile routes; login itself is public.
func RegisterAuthRoutes(app fiber.Router, protected fiber.Handler, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.Logout, protected, controller.LogoutPost)
	app.Get(controller.Routes.Me, protected, controller.MeGet)

	return controller
}

// LoginRequest carries the signed challenge payload.
type LoginRequest struct {
	Message   ChallengeMessage `json:"message"`
	Signature string           `json:"signature"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Signature, validation.Required),
	)
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid login payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload: ", "error", err)
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload").
			WithCode(goerrors.CodeBadRequest))
	}

	pair, err := a.Auther.Authenticate(c.UserContext(), payload.Message, payload.Signature)
	if err != nil {
		a.Logger.Info("login rejected", "error", err)
		return WriteError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     a.RefreshCookieName,
		Value:    pair.RefreshToken,
		Expires:  pair.RefreshExpiresAt,
		HTTPOnly: true,
		Secure:   a.SecureCookies,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})

	return c.Status(fiber.StatusCreated).JSON(pair)
}

func (a *AuthController) LogoutPost(c *fiber.Ctx) error {
	user, ok := FromContext(c.UserContext())
	if !ok {
		return WriteError(c, ErrUnauthorized)
	}

	if err := a.Auther.Logout(c.UserContext(), user); err != nil {
		a.Logger.Error("logout: ", "error", err)
		return WriteError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     a.RefreshCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   a.SecureCookies,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})

	return c.SendStatus(fiber.StatusNoContent)
}

func (a *AuthController) MeGet(c *fiber.Ctx) error {
	user, ok := FromContext(c.UserContext())
	if !ok {
		return WriteError(c, ErrUnauthorized)
	}
	return c.JSON(user)
}

// APIController exposes channels, servers, messages, and read states. Every
// route expects the guard middleware to have bound the acting user already.
type APIController struct {
	Logger     Logger
	Channels   *ChannelService
	Servers    *ServerService
	Messages   *MessageService
	ReadStates *ReadStateService
}

type APIControllerOption func(*APIController) *APIController

func WithAPILogger(logger Logger) APIControllerOption {
	return func(c *APIController) *APIController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithServices(channels *ChannelService, servers *ServerService, messages *MessageService, readStates *ReadStateService) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Channels = channels
		c.Servers = servers
		c.Messages = messages
		c.ReadStates = readStates
		return c
	}
}

func NewAPIController(opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Channels == nil || c.Servers == nil || c.Messages == nil || c.ReadStates == nil {
		panic("Missing services in api controller...")
	}

	return c
}

// RegisterAPIRoutes mounts the channel, server, and message routes behind the
// protected handler.
func RegisterAPIRoutes(app fiber.Router, protected fiber.Handler, opts ...APIControllerOption) *APIController {
	controller := NewAPIController(opts...)

	app.Post("/channels", protected, controller.ChannelCreate)
	app.Get("/channels", protected, controller.DMChannelList)
	app.Delete("/channels/:channel_id", protected, controller.ChannelDelete)
	app.Post("/channels/:channel_id/messages", protected, controller.MessageCreate)
	app.Get("/channels/:channel_id/messages", protected, controller.MessageList)
	app.Put("/channels/:channel_id/read", protected, controller.ReadStateUpdate)
	app.Post("/channels/read", protected, controller.ChannelsMarkRead)

	app.Get("/servers", protected, controller.ServerList)
	app.Post("/servers", protected, controller.ServerCreate)
	app.Get("/servers/:server_id/channels", protected, controller.ServerChannelList)
	app.Get("/servers/:server_id/members", protected, controller.ServerMemberList)
	app.Post("/servers/:server_id/join", protected, controller.ServerJoin)

	return controller
}

func currentUser(c *fiber.Ctx) (*User, error) {
	user, ok := FromContext(c.UserContext())
	if !ok || user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid "+name).
			WithCode(goerrors.CodeBadRequest)
	}
	return id, nil
}

func (a *APIController) ChannelCreate(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return WriteError(c, err)
	}

	input := CreateChannelInput{}
	if err := c.BodyParser(&input); err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid channel payload").
			WithCode(goerrors.CodeBadRequest))
	}

	channel, err := a.Channels.CreateChannel(c.UserContext(), user, input)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(channel)
}

func (a *APIController) DMChannelList(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return WriteError(c, err)
	}

	channels, err := a.Channels.GetDMChannels(c.UserContext(), user)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(channels)
}

func (a *APIController) ChannelDelete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return WriteError(c, err)
	}

	channelID, err := paramUUID(c, "channel_id")
	if err != nil {
		return WriteError(c, err)
	}

	if err := a.Channels.DeleteChannel(c.UserContext(), user, channelID); err != nil {
		return WriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (a *APIController) MessageCreate(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return WriteError(c, err)
	}

	channelID, err := paramUUID(c, "channel_id")
	if err != nil {
		return WriteError(c, err)
	}

	input := CreateMessageInput{}
	if err := c.BodyParser(&input); err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid message payload").
			WithCode(goerrors.CodeBadRequest))
	}
	input.ChannelID = channelID

	message, err := a.Messages.CreateMessage(c.UserContext(), user, input)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

func (a *APIController) MessageList(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return WriteError(c, err)
	}

	channelID, err := paramUUID(c, "channel_id")
	if err != nil {
		return WriteError(c, err)
	}

	messages, err := a.Messages.GetChannelMessages(c.UserContext(), user, channelID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(messages)
}

// ReadStateUpdatePayload carries one read position.
type ReadStateUpdatePayload struct {
	LastReadTS ReadTimestamp `json:"last_read_ts"`
}

func (a *APIController) ReadStateUpdate(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return WriteError(c, err)
	}

	channelID, err := paramUUID(c, "channel_id")
	if err != nil {
		return WriteError(c, err)
	}

	payload := ReadStateUpdatePayload{}
	if err := c.BodyParser(&payload); err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid read state payload").
			WithCode(goerrors.CodeBadRequest))
	}

	state, err := a.ReadStates.UpdateChannelReadState(c.UserContext(), user, channelID, payload.LastReadTS)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(state)
}

// MarkReadPayload carries one read position for several channels.
type MarkReadPayload struct {
	Channels   []uuid.UUID   `json:"channels"`
	LastReadTS ReadTimestamp `json:"last_read_ts"`
}

func (a *APIController) ChannelsMarkRead(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return WriteError(c, err)
	}

	payload := MarkReadPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid read state payload").
			WithCode(goerrors.CodeBadRequest))
	}

	states, err := a.ReadStates.MarkChannelsRead(c.UserContext(), user, payload.Channels, payload.LastReadTS)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(states)
}

func (a *APIController) ServerList(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return WriteError(c, err)
	}

	servers, err := a.Servers.GetServers(c.UserContext(), user)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(servers)
}

func (a *APIController) ServerCreate(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return WriteError(c, err)
	}

	input := CreateServerInput{}
	if err := c.BodyParser(&input); err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid server payload").
			WithCode(goerrors.CodeBadRequest))
	}

	server, err := a.Servers.CreateServer(c.UserContext(), user, input)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(server)
}

func (a *APIController) ServerChannelList(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return WriteError(c, err)
	}

	serverID, err := paramUUID(c, "server_id")
	if err != nil {
		return WriteError(c, err)
	}

	channels, err := a.Channels.GetServerChannels(c.UserContext(), user, serverID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(channels)
}

func (a *APIController) ServerMemberList(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return WriteError(c, err)
	}

	serverID, err := paramUUID(c, "server_id")
	if err != nil {
		return WriteError(c, err)
	}

	members, err := a.Servers.GetServerMembers(c.UserContext(), user, serverID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(members)
}

func (a *APIController) ServerJoin(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return WriteError(c, err)
	}

	serverID, err := paramUUID(c, "server_id")
	if err != nil {
		return WriteError(c, err)
	}

	member, err := a.Servers.JoinServer(c.UserContext(), user, serverID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}
