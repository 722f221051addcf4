package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/Astemirdum/library-management/library/docs"
	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/Astemirdum/library-management/pkg/auth"
	md "github.com/Astemirdum/library-management/pkg/middleware"
	"github.com/Astemirdum/library-management/pkg/validate"
)

type Handler struct {
	catalogSvc CatalogService
	rentalSvc  RentalService
	auditSvc   AuditService
	userSvc    UserService
	log        *zap.Logger
}

func New(catalog CatalogService, rental RentalService, audit AuditService, users UserService, log *zap.Logger) *Handler {
	return &Handler{
		catalogSvc: catalog,
		rentalSvc:  rental,
		auditSvc:   audit,
		userSvc:    users,
		log:        log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
		md.AuthContext,
	)
	admin := md.RequireAdmin

	api.GET("/categories", h.ListCategories)
	api.GET("/categories/:id", h.GetCategory)
	api.GET("/categories/:id/subcategories", h.Subcategories)
	api.POST("/categories", h.CreateCategory, admin)
	api.PUT("/categories/:id", h.UpdateCategory, admin)
	api.DELETE("/categories/:id", h.DeleteCategory, admin)

	api.GET("/books", h.ListCopies, admin)
	api.GET("/books/:id", h.GetCopy)
	api.POST("/books", h.AddBook, admin)
	api.PUT("/books/:id", h.UpdateBookInfo, admin)
	api.DELETE("/books/:id", h.DeleteCopy, admin)

	api.POST("/rentals/rent/:copyId", h.Rent)
	api.POST("/rentals/return/:copyId", h.Return)
	api.GET("/rentals", h.AllRentals, admin)
	api.GET("/rentals/overdue", h.OverdueRentals, admin)
	api.GET("/rentals/user/:userId", h.RentalsByUser, admin)
	api.GET("/rentals/book/:copyId", h.RentalsByCopy, admin)

	api.GET("/audit", h.AllAudit, admin)
	api.GET("/audit/user/:userId", h.AuditByUser, admin)
	api.GET("/audit/book/:copyId", h.AuditByCopy, admin)

	api.GET("/users", h.GetUserByUsername, admin)
	api.GET("/users/:id", h.GetUser, admin)
	api.PATCH("/users/:id", h.UpdateUser, admin)
	api.DELETE("/users/:id", h.DeleteUser, admin)

	// registration happens before the caller has an identity
	e.POST("/api/v1/users/register", h.Register,
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(baseRPS),
	)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps domain errors onto HTTP statuses.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return id, nil
}

func actorFrom(c echo.Context) (model.Actor, error) {
	id, err := auth.FromContext(c.Request().Context())
	if err != nil {
		return model.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return model.Actor{ID: id.UserID, IsAdmin: id.Role == auth.RoleAdmin}, nil
}

func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
