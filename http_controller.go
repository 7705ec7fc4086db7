package auth

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"

	"github.com/devconnector/go-auth/middleware/authware"
)

// LoginRules are the declared constraints for POST /login. Violation order
// follows declaration order.
var LoginRules = NewRuleSet(
	Body("email",
		validation.Required.Error("Please include valid email"),
		is.Email.Error("Please include valid email"),
	),
	Body("password",
		validation.Required.Error("Password is required"),
	),
)

// RegisterRules are the declared constraints for POST /register.
var RegisterRules = NewRuleSet(
	Body("name",
		validation.Required.Error("name is required"),
	),
	Body("email",
		validation.Required.Error("Please include a valid email"),
		is.Email.Error("Please include a valid email"),
	),
	Body("password",
		validation.Required.Error("Password is at least 6 characters"),
		validation.Length(6, 100).Error("Password is at least 6 characters"),
	),
)

type AuthControllerRoutes struct {
	Login    string
	Register string
	Me       string
}

type AuthController struct {
	Debug  bool
	Logger Logger
	Users  Users
	Auther *Auther
	Config Config
	Routes *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:    "/login",
			Register: "/register",
			Me:       "/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Users == nil {
		panic("Missing Users repository in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = l
		return c
	}
}

func WithControllerUsers(users Users) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Users = users
		return c
	}
}

func WithControllerAuther(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

// RegisterAuthRoutes mounts the three auth endpoints on the given router:
// register and login behind their validation rule sets, me behind the
// authorization middleware.
func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, RegisterRules.Middleware(), controller.RegistrationCreate)
	app.Post(controller.Routes.Login, LoginRules.Middleware(), controller.LoginPost)
	app.Get(controller.Routes.Me, controller.ProtectedRoute(), controller.Me)

	return controller
}

// TokenResponse is the success payload of login and register.
type TokenResponse struct {
	Token string `json:"token"`
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// RegisterRequest payload
type RegisterRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (a *AuthController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return NewValidationError("body: unable to parse payload")
	}

	token, err := a.Auther.Login(ctx.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	a.setTokenCookie(ctx, token)
	return ctx.Status(fiber.StatusOK).JSON(TokenResponse{Token: token})
}

func (a *AuthController) RegistrationCreate(ctx *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return NewValidationError("body: unable to parse payload")
	}

	user, err := a.Users.Register(ctx.UserContext(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("register user error", "error", err, "email", payload.Email)
		return err
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(user))
		fmt.Println("============================")
	}

	token, err := a.Auther.TokenService().Generate(identityFromUser(user))
	if err != nil {
		return err
	}

	a.setTokenCookie(ctx, token)
	return ctx.Status(fiber.StatusCreated).JSON(TokenResponse{Token: token})
}

// Me returns the authorized principal. The password hash never serializes;
// see the User model tags.
func (a *AuthController) Me(ctx *fiber.Ctx) error {
	user, ok := ctx.Locals(a.Config.GetContextKey()).(*User)
	if !ok || user == nil {
		return ErrNotAuthorized
	}

	return ctx.JSON(user)
}

// ProtectedRoute builds the authorization middleware wired to this
// controller's token codec and credential store.
func (a *AuthController) ProtectedRoute() fiber.Handler {
	return authware.New(authware.Config{
		TokenValidator: tokenValidatorAdapter{ts: a.Auther.TokenService()},
		TokenLookup:    a.Config.GetTokenLookup(),
		AuthScheme:     a.Config.GetAuthScheme(),
		ContextKey:     a.Config.GetContextKey(),
		PrincipalLoader: func(ctx context.Context, id string) (any, error) {
			return a.Users.GetByID(ctx, id)
		},
		ContextEnricher: func(ctx context.Context, claims authware.AuthClaims, principal any) context.Context {
			if user, ok := principal.(*User); ok {
				ctx = WithContext(ctx, user)
			}
			return WithClaimsContext(ctx, claims)
		},
	})
}

func (a *AuthController) setTokenCookie(ctx *fiber.Ctx, token string) {
	ctx.Cookie(&fiber.Cookie{
		Name:     a.Config.GetCookieName(),
		Value:    token,
		Expires:  time.Now().Add(a.Config.GetTokenTTL()),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// tokenValidatorAdapter bridges the package's TokenService to the
// middleware's local validator interface.
type tokenValidatorAdapter struct {
	ts TokenService
}

func (v tokenValidatorAdapter) Validate(tokenString string) (authware.AuthClaims, error) {
	claims, err := v.ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
