package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) ListCategories(c echo.Context) error {
	cats, err := h.catalogSvc.ListCategories(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *Handler) GetCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.catalogSvc.GetCategory(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *Handler) Subcategories(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cats, err := h.catalogSvc.Subcategories(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *Handler) CreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	cat, err := h.catalogSvc.CreateCategory(c.Request().Context(), req.Name, req.ParentID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *Handler) UpdateCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	cat, err := h.catalogSvc.UpdateCategory(c.Request().Context(), id, req.Name, req.ParentID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *Handler) DeleteCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalogSvc.DeleteCategory(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListCopies(c echo.Context) error {
	copies, err := h.catalogSvc.ListCopies(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, copies)
}

func (h *Handler) GetCopy(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cp, err := h.catalogSvc.GetCopy(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cp)
}

func (h *Handler) AddBook(c echo.Context) error {
	var req addBookRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	entry, err := h.catalogSvc.AddCatalogEntry(c.Request().Context(), req.Title, req.Author, req.CategoryID, req.SerialNumber)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) UpdateBookInfo(c echo.Context) error {
	copyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateBookInfoRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	info, err := h.catalogSvc.UpdateBookInfo(c.Request().Context(), copyID, req.Title, req.Author, req.CategoryID, req.BookInfoID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, info)
}

func (h *Handler) DeleteCopy(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalogSvc.DeleteCopy(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
