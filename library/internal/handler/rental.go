package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func (h *Handler) Rent(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	copyID, err := pathID(c, "copyId")
	if err != nil {
		return err
	}
	rental, err := h.rentalSvc.Rent(c.Request().Context(), actor, copyID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rental)
}

func (h *Handler) Return(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	copyID, err := pathID(c, "copyId")
	if err != nil {
		return err
	}
	rental, err := h.rentalSvc.Return(c.Request().Context(), copyID, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rental)
}

func (h *Handler) AllRentals(c echo.Context) error {
	rentals, err := h.rentalSvc.All(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rentals)
}

func (h *Handler) OverdueRentals(c echo.Context) error {
	var userID *int64
	if param := c.QueryParam("userId"); param != "" {
		id, err := strconv.ParseInt(param, 10, 64)
		if err != nil || id <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "userId is invalid")
		}
		userID = &id
	}
	rentals, err := h.rentalSvc.Overdue(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rentals)
}

func (h *Handler) RentalsByUser(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	rentals, err := h.rentalSvc.ByUser(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rentals)
}

func (h *Handler) RentalsByCopy(c echo.Context) error {
	copyID, err := pathID(c, "copyId")
	if err != nil {
		return err
	}
	rentals, err := h.rentalSvc.ByCopy(c.Request().Context(), copyID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rentals)
}
