package denials

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/revcycle/rcm/internal/platform/auth"
	"github.com/revcycle/rcm/internal/platform/errs"
	"github.com/revcycle/rcm/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "billing"))
	g.GET("/denials", h.List)
	g.GET("/denials/:id", h.Get)
	g.GET("/claims/:id/denials", h.ListByClaim)
	g.PUT("/denials/:id", h.Update)

	// Denial specialists can work assignments without full billing access.
	a := api.Group("", auth.RequireRole("admin", "billing", "denial_specialist"))
	a.POST("/denials/:id/assign", h.Assign)
	a.POST("/denials/bulk-assign", h.BulkAssign)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	status := ResolutionStatus(c.QueryParam("status"))
	items, total, err := h.svc.List(c.Request().Context(), status, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListByClaim(c echo.Context) error {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListByClaim(c.Request().Context(), claimID)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

type assignRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) Assign(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	d, err := h.svc.Assign(c.Request().Context(), id, req.UserID)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

type bulkAssignRequest struct {
	DenialIDs []uuid.UUID `json:"denial_ids"`
	UserID    string      `json:"user_id"`
}

func (h *Handler) BulkAssign(c echo.Context) error {
	var req bulkAssignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.UserID == "" || len(req.DenialIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and denial_ids are required")
	}
	results := h.svc.BulkAssign(c.Request().Context(), req.DenialIDs, req.UserID)
	return c.JSON(http.StatusOK, results)
}
