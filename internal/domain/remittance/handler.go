package remittance

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/revcycle/rcm/internal/platform/auth"
	"github.com/revcycle/rcm/internal/platform/errs"
	"github.com/revcycle/rcm/pkg/pagination"
)

// FileNameHeader carries the uploaded file's name alongside the raw body.
const FileNameHeader = "X-File-Name"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "billing"))
	g.POST("/remittances", h.Upload)
	g.GET("/remittances", h.List)
	g.GET("/remittances/:id", h.Get)
	g.GET("/remittances/:id/details", h.ListDetails)
}

// Upload accepts a raw remittance file body and runs it through ingestion.
func (h *Handler) Upload(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read request body")
	}
	fileName := c.Request().Header.Get(FileNameHeader)
	if fileName == "" {
		fileName = c.QueryParam("file_name")
	}

	rem, err := h.svc.Ingest(c.Request().Context(), fileName, string(body))
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, rem)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rem, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, rem)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	status := ProcessingStatus(c.QueryParam("status"))
	items, total, err := h.svc.List(c.Request().Context(), status, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListDetails(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListDetails(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
