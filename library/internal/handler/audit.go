package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) AllAudit(c echo.Context) error {
	entries, err := h.auditSvc.All(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) AuditByUser(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	entries, err := h.auditSvc.ByUser(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) AuditByCopy(c echo.Context) error {
	copyID, err := pathID(c, "copyId")
	if err != nil {
		return err
	}
	entries, err := h.auditSvc.ByCopy(c.Request().Context(), copyID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entries)
}
