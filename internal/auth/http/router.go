package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shelfmark/catalogue/internal/auth/service"
	"github.com/shelfmark/catalogue/internal/auth/store"
	"github.com/shelfmark/catalogue/pkg/httpx"
	"github.com/shelfmark/catalogue/pkg/jwtx"
	"github.com/shelfmark/catalogue/pkg/slogx"

	_ "github.com/shelfmark/catalogue/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	validate     *validator.Validate
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService *service.AuthService
}

// NewRouter builds a router. verifier must only accept access tokens.
func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		validate:     newValidator(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuthentication()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Catalogue Authentication API
//	@version		0.1.0
//	@description	Account lifecycle for the library catalogue: sign-up with email verification, sign-in, and password recovery by one time code.
//	@description
//	@description				Access tokens are HS256 signed JWTs.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuthentication() {
	h := &AuthenticationHandler{
		AuthService: r.AuthService,
		Validate:    r.validate,
	}

	r.Mux.HandleFunc("POST /v1/authentication/sign-up", h.HandleSignUp)
	r.Mux.HandleFunc("POST /v1/authentication/sign-in", h.HandleSignIn)
	r.Mux.HandleFunc("GET /v1/authentication/verify", h.HandleVerifyEmail)
	r.Mux.HandleFunc("POST /v1/authentication/forgot-password", h.HandleForgotPassword)
	r.Mux.HandleFunc("POST /v1/authentication/verify-otp", h.HandleVerifyOTP)
	r.Mux.HandleFunc("POST /v1/authentication/reset-password", h.HandleResetPassword)

	r.Mux.Handle("PATCH /v1/authentication/password",
		httpx.Chain(http.HandlerFunc(h.HandleUpdatePassword),
			httpx.AuthnMiddleware(r.verifier),
		),
	)
	r.Mux.Handle("GET /v1/authentication/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.verifier),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
