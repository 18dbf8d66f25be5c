package post

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/NordCoder/Postboard/internal/domain/post"
	"github.com/NordCoder/Postboard/internal/obs"
	"github.com/NordCoder/Postboard/internal/services/api/guard"
	"github.com/NordCoder/Postboard/internal/services/api/httpx"
	"go.uber.org/zap"
)

type Controller struct {
	uc  post.Usecase
	log *zap.Logger
}

func NewController(uc post.Usecase, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{uc: uc, log: log.With(zap.String("component", "post.http"))}
}

type createRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

type listResponse struct {
	Items  []*post.Post `json:"items"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// Routes lists the post endpoints relative to /posts. Reads inherit the
// group default.
func (c *Controller) Routes(bearer, apiKey guard.Strategy) []guard.Route {
	return []guard.Route{
		{Method: http.MethodGet, Pattern: "/", Handler: c.List},
		{Method: http.MethodGet, Pattern: "/{id}", Handler: c.Get},
		guard.Route{Method: http.MethodPost, Pattern: "/", Handler: c.Create}.With(guard.All(bearer)),
		guard.Route{Method: http.MethodPatch, Pattern: "/{id}", Handler: c.Update}.With(guard.All(bearer)),
		guard.Route{Method: http.MethodDelete, Pattern: "/{id}", Handler: c.Delete}.With(guard.Any(bearer, apiKey)),
	}
}

func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := post.ListFilter{OnlyPublished: q.Get("published") == "true"}
	var err error
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if f.Offset, err = strconv.Atoi(v); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "offset must be a number")
			return
		}
	}

	f = NormalizeFilter(f)
	items, err := c.uc.List(r.Context(), f)
	if err != nil {
		c.mapErr(w, r, err)
		return
	}
	if items == nil {
		items = []*post.Post{}
	}
	httpx.WriteJSON(w, http.StatusOK, listResponse{Items: items, Limit: f.Limit, Offset: f.Offset})
}

func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := c.uc.Get(r.Context(), id)
	if err != nil {
		c.mapErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := guard.UserIDFromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	p, err := c.uc.Create(r.Context(), userID, post.CreateInput{
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
	})
	if err != nil {
		c.mapErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, p)
}

func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := guard.UserIDFromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var patch post.Patch
	if err := httpx.DecodeJSON(w, r, &patch); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	p, err := c.uc.Update(r.Context(), userID, id, patch)
	if err != nil {
		c.mapErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ident := guard.IdentityFromCtx(r.Context())
	err = c.uc.Delete(r.Context(), post.Requester{UserID: ident.UserID, Operator: ident.Operator}, id)
	if err != nil {
		c.mapErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) mapErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, post.ErrInvalidPost):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, post.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, post.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "post not found")
	default:
		obs.WithTrace(r.Context(), c.log).Error("post request failed", zap.String("path", r.URL.Path), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
