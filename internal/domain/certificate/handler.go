package certificate

import (
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
	api.GET("/certificates", h.List)
	api.POST("/certificates", h.Save)
	api.PUT("/certificates/:id", h.Update)
	api.DELETE("/certificates/:id", h.Delete)
}

// List returns certificate rows, optionally filtered by patientId. The body
// is a bare array, matching what aggregate loaders expect.
func (h *Handler) List(c echo.Context) error {
	certs, err := h.svc.List(c.Request().Context(), c.QueryParam("patientId"))
	if err != nil {
		h.logger.Error().Err(err).Msg("list certificates")
		return c.JSON(http.StatusInternalServerError, wire.Fail("取得に失敗しました"))
	}
	if certs == nil {
		certs = []*MedicalCertificate{}
	}
	return c.JSON(http.StatusOK, certs)
}

func (h *Handler) Save(c echo.Context) error {
	var cert MedicalCertificate
	if err := c.Bind(&cert); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Save(c.Request().Context(), &cert); err != nil {
		h.logger.Error().Err(err).Str("certificate_id", cert.ID).Msg("save certificate")
		return c.JSON(http.StatusInternalServerError, wire.Fail("保存に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}

func (h *Handler) Update(c echo.Context) error {
	var cert MedicalCertificate
	if err := c.Bind(&cert); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Update(c.Request().Context(), c.Param("id"), &cert); err != nil {
		h.logger.Error().Err(err).Str("certificate_id", c.Param("id")).Msg("update certificate")
		return c.JSON(http.StatusInternalServerError, wire.Fail("更新に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		h.logger.Error().Err(err).Str("certificate_id", c.Param("id")).Msg("delete certificate")
		return c.JSON(http.StatusInternalServerError, wire.Fail("削除に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}
