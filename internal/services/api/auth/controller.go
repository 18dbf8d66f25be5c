package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/NordCoder/Postboard/internal/domain/auth"
	"github.com/NordCoder/Postboard/internal/domain/user"
	"github.com/NordCoder/Postboard/internal/obs"
	"github.com/NordCoder/Postboard/internal/services/api/guard"
	"github.com/NordCoder/Postboard/internal/services/api/httpx"
	"go.uber.org/zap"
)

type Controller struct {
	uc  domainauth.Usecase
	log *zap.Logger
}

func NewController(uc domainauth.Usecase, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{uc: uc, log: log.With(zap.String("component", "auth.http"))}
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Name            string `json:"name"`
}

func (r registerRequest) validate() error {
	switch {
	case !strings.Contains(r.Email, "@"):
		return errors.New("email must contain @")
	case len(r.Password) < 8:
		return errors.New("password must be at least 8 characters")
	case r.ConfirmPassword != r.Password:
		return errors.New("passwords do not match")
	case strings.TrimSpace(r.Name) == "":
		return errors.New("name is required")
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := req.validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := c.uc.Register(r.Context(), domainauth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		c.mapErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	pair, err := c.uc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		c.mapErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (c *Controller) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	pair, err := c.uc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		c.mapErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := c.uc.Logout(r.Context(), req.RefreshToken); err != nil {
		c.mapErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := guard.UserIDFromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := c.uc.Me(r.Context(), id)
	if errors.Is(err, domainauth.ErrAccountNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		c.mapErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// Routes lists the auth endpoints relative to /auth.
func (c *Controller) Routes(bearer guard.Strategy) []guard.Route {
	return []guard.Route{
		{Method: http.MethodPost, Pattern: "/refresh-token", Handler: c.RefreshToken},
		{Method: http.MethodPost, Pattern: "/logout", Handler: c.Logout},
		guard.Route{Method: http.MethodGet, Pattern: "/me", Handler: c.Me}.With(guard.All(bearer)),
	}
}

// CredentialRoutes are the endpoints that sit behind the rate limiter.
func (c *Controller) CredentialRoutes() []guard.Route {
	return []guard.Route{
		{Method: http.MethodPost, Pattern: "/register", Handler: c.Register},
		{Method: http.MethodPost, Pattern: "/login", Handler: c.Login},
	}
}

func (c *Controller) mapErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domainauth.ErrDuplicateEmail):
		httpx.WriteError(w, http.StatusConflict, "email already exists")
	case errors.Is(err, domainauth.ErrAccountNotFound), errors.Is(err, domainauth.ErrIncorrectPassword):
		httpx.WriteError(w, http.StatusUnauthorized, "account or password incorrect")
	case errors.Is(err, domainauth.ErrUnauthorized):
		httpx.WriteError(w, http.StatusUnauthorized, "reauthentication required")
	default:
		obs.WithTrace(r.Context(), c.log).Error("auth request failed", zap.String("path", r.URL.Path), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
