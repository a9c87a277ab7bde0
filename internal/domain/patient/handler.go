package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/certdesk/certdesk/pkg/wire"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.List)
	api.POST("/patients", h.Upsert)
	api.DELETE("/patients/:id", h.Delete)
}

// List returns all patient rows as a bare array.
func (h *Handler) List(c echo.Context) error {
	patients, err := h.svc.List(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list patients")
		return c.JSON(http.StatusInternalServerError, wire.Fail("取得に失敗しました"))
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) Upsert(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Upsert(c.Request().Context(), &p); err != nil {
		h.logger.Error().Err(err).Str("patient_id", p.ID).Msg("upsert patient")
		return c.JSON(http.StatusInternalServerError, wire.Fail("保存に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}

func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	err := h.svc.Delete(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, wire.Envelope{Success: false, Message: "患者が見つかりませんでした"})
	}
	if err != nil {
		h.logger.Error().Err(err).Str("patient_id", id).Msg("delete patient")
		return c.JSON(http.StatusInternalServerError, wire.Fail("削除に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}
