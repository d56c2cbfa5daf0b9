package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bookmarkd/bookmarkd/internal/config"
	"github.com/bookmarkd/bookmarkd/internal/db"
	"github.com/bookmarkd/bookmarkd/internal/service"
)

type (
	AuthReq struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	TokenResp struct {
		AccessToken string `json:"access_token"`
	}

	BookmarkCreateReq struct {
		Title       string  `json:"title" validate:"required"`
		Link        string  `json:"link" validate:"required"`
		Description *string `json:"description"`
	}

	BookmarkUpdateReq struct {
		Title       *string `json:"title"`
		Link        *string `json:"link"`
		Description *string `json:"description"`
	}

	UserUpdateReq struct {
		Email     *string `json:"email" validate:"omitempty,email"`
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
	}

	CustomValidator struct {
		validator *validator.Validate
	}

	HTTPServer struct {
		echo      *echo.Echo
		db        *gorm.DB
		auth      *service.Auth
		bookmarks *service.Bookmark
		users     *service.User
	}
)

func NewHTTPServer(lc fx.Lifecycle, cfg *config.Config, db *gorm.DB, auth *service.Auth, bookmarks *service.Bookmark, users *service.User, logger *zap.SugaredLogger) *HTTPServer {
	e := echo.New()

	instance := HTTPServer{
		echo:      e,
		db:        db,
		auth:      auth,
		bookmarks: bookmarks,
		users:     users,
	}

	e.POST("/auth/signup", instance.Signup)
	e.POST("/auth/signin", instance.Signin)

	bookmarkG := e.Group("/bookmarks")
	bookmarkG.GET("", instance.BookmarkList)
	bookmarkG.POST("", instance.BookmarkCreate)
	bookmarkG.GET("/:id", instance.BookmarkGet)
	bookmarkG.PATCH("/:id", instance.BookmarkUpdate)
	bookmarkG.DELETE("/:id", instance.BookmarkDelete)

	userG := e.Group("/users")
	userG.GET("/me", instance.UserMe)
	userG.PATCH("", instance.UserUpdate)

	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	e.Use(middleware.CORS())
	e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
		logger.Infow("request",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", c.Response().Status,
			"body", string(censorBody(reqBody)),
		)
	}))
	e.Use(middleware.Recover())

	e.Use(instance.AuthMiddleware)

	e.Validator = &CustomValidator{validator: validator.New()}

	echo.NotFoundHandler = func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := cfg.Host + ":" + cfg.Port
				if err := e.Start(listen); err != nil && err != http.ErrServerClosed {
					e.Logger.Fatal("shutting down the server")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			return e.Shutdown(ctx)
		},
	})

	return &instance
}

func (s *HTTPServer) Signup(c echo.Context) error {
	req := AuthReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := s.auth.Signup(req.Email, req.Password)
	if err != nil {
		if err == service.ErrCredentialsTaken {
			return echo.NewHTTPError(http.StatusForbidden, "credentials taken")
		}
		return err
	}

	return c.JSON(http.StatusCreated, TokenResp{AccessToken: token})
}

func (s *HTTPServer) Signin(c echo.Context) error {
	req := AuthReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := s.auth.Signin(req.Email, req.Password)
	if err != nil {
		if err == service.ErrLoginUserNotFound || err == service.ErrLoginPasswordDoesNotMatch {
			return echo.NewHTTPError(http.StatusForbidden, "credentials incorrect")
		}
		return err
	}

	return c.JSON(http.StatusOK, TokenResp{AccessToken: token})
}

func (s *HTTPServer) BookmarkList(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	bookmarks, err := s.bookmarks.List(user.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bookmarks)
}

func (s *HTTPServer) BookmarkCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := BookmarkCreateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	bookmark, err := s.bookmarks.Create(user.ID, req.Title, req.Link, req.Description)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, bookmark)
}

func (s *HTTPServer) BookmarkGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	bookmark, err := s.bookmarks.Get(user.ID, id)
	if err != nil {
		return err
	}

	// absent and not-owned both serialize as null
	return c.JSON(http.StatusOK, bookmark)
}

func (s *HTTPServer) BookmarkUpdate(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := BookmarkUpdateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	bookmark, err := s.bookmarks.Update(user.ID, id, service.BookmarkPatch{
		Title:       req.Title,
		Link:        req.Link,
		Description: req.Description,
	})
	if err != nil {
		if err == service.ErrAccessDenied {
			return echo.NewHTTPError(http.StatusForbidden, "Access to resource denied")
		}
		return err
	}

	return c.JSON(http.StatusOK, bookmark)
}

func (s *HTTPServer) BookmarkDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := s.bookmarks.Delete(user.ID, id); err != nil {
		if err == service.ErrAccessDenied {
			return echo.NewHTTPError(http.StatusForbidden, "Access to resource denied")
		}
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) UserMe(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (s *HTTPServer) UserUpdate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := UserUpdateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := s.users.Edit(user.ID, service.UserPatch{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updated)
}

func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Path() == "/auth/signup" || c.Path() == "/auth/signin" || c.Path() == "/ping" {
			return next(c)
		}

		header := c.Request().Header.Get("Authorization")
		if header == "" {
			return c.NoContent(http.StatusUnauthorized)
		}
		parts := strings.Split(header, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return c.NoContent(http.StatusUnauthorized)
		}

		userID, err := s.auth.ParseToken(parts[1])
		if err != nil {
			c.Logger().Error(errors.Wrap(err, "parse token"))
			return c.NoContent(http.StatusUnauthorized)
		}

		user := db.User{}
		res := s.db.First(&user, userID)
		if res.Error != nil {
			c.Logger().Error(errors.Wrap(res.Error, "find user in db"))
			return c.NoContent(http.StatusUnauthorized)
		}

		c.Set("user", &user)
		return next(c)
	}
}

////////

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func BindAndValidate(c echo.Context, v interface{}) error {
	var err error
	if err = c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func GetUserFromContext(c echo.Context) (*db.User, error) {
	user, ok := c.Get("user").(*db.User)
	if !ok || user == nil {
		return nil, errors.New("no user found in context")
	}
	return user, nil
}

func GetParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return value, nil
}

func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	v, e := GetParam(c, name)
	if e != nil {
		return 0, e
	}
	vv, e := strconv.ParseUint(v, 10, 64)
	if e != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return vv, nil
}

func censorBody(body []byte) []byte {
	payload := map[string]interface{}{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return body
	}
	if _, ok := payload["password"]; ok {
		payload["password"] = "$censored"
	}
	censored, err := json.Marshal(payload)
	if err != nil {
		return body
	}
	return censored
}
