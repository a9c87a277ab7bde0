package ledger

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/certdesk/certdesk/pkg/pagination"
	"github.com/certdesk/certdesk/pkg/wire"
)

type Handler struct {
	svc           *Service
	defaultAuthor string
	logger        zerolog.Logger
}

func NewHandler(svc *Service, defaultAuthor string, logger zerolog.Logger) *Handler {
	if defaultAuthor == "" {
		defaultAuthor = DefaultAuthor
	}
	return &Handler{svc: svc, defaultAuthor: defaultAuthor, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/life-insurance", h.ListLifeInsurance)
	api.POST("/life-insurance", h.SaveLifeInsurance)
	api.PUT("/life-insurance/:id", h.UpdateLifeInsurance)
	api.DELETE("/life-insurance/:id", h.DeleteLifeInsurance)

	api.GET("/pending-claims", h.ListPendingClaims)
	api.POST("/pending-claims", h.SavePendingClaim)
	api.PUT("/pending-claims/:id", h.UpdatePendingClaim)
	api.DELETE("/pending-claims/:id", h.DeletePendingClaim)

	api.GET("/insurance-changes", h.ListInsuranceChanges)
	api.POST("/insurance-changes", h.SaveInsuranceChange)
	api.PUT("/insurance-changes/:id", h.UpdateInsuranceChange)
	api.DELETE("/insurance-changes/:id", h.DeleteInsuranceChange)

	api.GET("/messages", h.ListMessages)
	api.POST("/messages", h.PostMessage)
	api.DELETE("/messages/:id", h.DeleteMessage)
}

// -- Life Insurance --

func (h *Handler) ListLifeInsurance(c echo.Context) error {
	recs, err := h.svc.ListLifeInsurance(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list life insurance records")
		return c.JSON(http.StatusInternalServerError, wire.Fail("取得に失敗しました"))
	}
	if recs == nil {
		recs = []*LifeInsuranceRecord{}
	}
	return c.JSON(http.StatusOK, recs)
}

func (h *Handler) SaveLifeInsurance(c echo.Context) error {
	var rec LifeInsuranceRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveLifeInsurance(c.Request().Context(), &rec); err != nil {
		h.logger.Error().Err(err).Str("record_id", rec.ID).Msg("save life insurance record")
		return c.JSON(http.StatusInternalServerError, wire.Fail("保存に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}

func (h *Handler) UpdateLifeInsurance(c echo.Context) error {
	var rec LifeInsuranceRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateLifeInsurance(c.Request().Context(), c.Param("id"), &rec); err != nil {
		h.logger.Error().Err(err).Str("record_id", c.Param("id")).Msg("update life insurance record")
		return c.JSON(http.StatusInternalServerError, wire.Fail("更新に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}

func (h *Handler) DeleteLifeInsurance(c echo.Context) error {
	if err := h.svc.DeleteLifeInsurance(c.Request().Context(), c.Param("id")); err != nil {
		h.logger.Error().Err(err).Str("record_id", c.Param("id")).Msg("delete life insurance record")
		return c.JSON(http.StatusInternalServerError, wire.Fail("削除に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}

// -- Pending Claims --

func (h *Handler) ListPendingClaims(c echo.Context) error {
	claims, err := h.svc.ListPendingClaims(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list pending claims")
		return c.JSON(http.StatusInternalServerError, wire.Fail("取得に失敗しました"))
	}
	if claims == nil {
		claims = []*PendingClaim{}
	}
	return c.JSON(http.StatusOK, claims)
}

func (h *Handler) SavePendingClaim(c echo.Context) error {
	var claim PendingClaim
	if err := c.Bind(&claim); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SavePendingClaim(c.Request().Context(), &claim); err != nil {
		h.logger.Error().Err(err).Str("claim_id", claim.ID).Msg("save pending claim")
		return c.JSON(http.StatusInternalServerError, wire.Fail("保存に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}

func (h *Handler) UpdatePendingClaim(c echo.Context) error {
	var claim PendingClaim
	if err := c.Bind(&claim); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdatePendingClaim(c.Request().Context(), c.Param("id"), &claim); err != nil {
		h.logger.Error().Err(err).Str("claim_id", c.Param("id")).Msg("update pending claim")
		return c.JSON(http.StatusInternalServerError, wire.Fail("更新に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}

func (h *Handler) DeletePendingClaim(c echo.Context) error {
	if err := h.svc.DeletePendingClaim(c.Request().Context(), c.Param("id")); err != nil {
		h.logger.Error().Err(err).Str("claim_id", c.Param("id")).Msg("delete pending claim")
		return c.JSON(http.StatusInternalServerError, wire.Fail("削除に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}

// -- Insurance Changes --

func (h *Handler) ListInsuranceChanges(c echo.Context) error {
	recs, err := h.svc.ListInsuranceChanges(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list insurance changes")
		return c.JSON(http.StatusInternalServerError, wire.Fail("取得に失敗しました"))
	}
	if recs == nil {
		recs = []*InsuranceChangeRecord{}
	}
	return c.JSON(http.StatusOK, recs)
}

func (h *Handler) SaveInsuranceChange(c echo.Context) error {
	var rec InsuranceChangeRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveInsuranceChange(c.Request().Context(), &rec); err != nil {
		h.logger.Error().Err(err).Str("record_id", rec.ID).Msg("save insurance change")
		return c.JSON(http.StatusInternalServerError, wire.Fail("保存に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}

func (h *Handler) UpdateInsuranceChange(c echo.Context) error {
	var rec InsuranceChangeRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateInsuranceChange(c.Request().Context(), c.Param("id"), &rec); err != nil {
		h.logger.Error().Err(err).Str("record_id", c.Param("id")).Msg("update insurance change")
		return c.JSON(http.StatusInternalServerError, wire.Fail("更新に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}

func (h *Handler) DeleteInsuranceChange(c echo.Context) error {
	if err := h.svc.DeleteInsuranceChange(c.Request().Context(), c.Param("id")); err != nil {
		h.logger.Error().Err(err).Str("record_id", c.Param("id")).Msg("delete insurance change")
		return c.JSON(http.StatusInternalServerError, wire.Fail("削除に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}

// -- Messages --

// ListMessages is the one paginated listing; the board grows without bound
// while the other ledgers stay clinic-sized.
func (h *Handler) ListMessages(c echo.Context) error {
	p := pagination.FromContext(c)
	msgs, total, err := h.svc.ListMessages(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("list messages")
		return c.JSON(http.StatusInternalServerError, wire.Fail("取得に失敗しました"))
	}
	if msgs == nil {
		msgs = []*Message{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(msgs, total, p.Limit, p.Offset))
}

func (h *Handler) PostMessage(c echo.Context) error {
	var msg Message
	if err := c.Bind(&msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if msg.Author == "" {
		msg.Author = h.defaultAuthor
	}
	if err := h.svc.PostMessage(c.Request().Context(), &msg); err != nil {
		h.logger.Error().Err(err).Msg("post message")
		return c.JSON(http.StatusInternalServerError, wire.Fail("保存に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}

func (h *Handler) DeleteMessage(c echo.Context) error {
	if err := h.svc.DeleteMessage(c.Request().Context(), c.Param("id")); err != nil {
		h.logger.Error().Err(err).Str("message_id", c.Param("id")).Msg("delete message")
		return c.JSON(http.StatusInternalServerError, wire.Fail("削除に失敗しました"))
	}
	return c.JSON(http.StatusOK, wire.OK())
}
