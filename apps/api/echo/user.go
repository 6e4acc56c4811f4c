package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

const qrCodeSize = 256

type (
	loginResponse struct {
		user.User
		Token string `json:"token"`
	}

	tokenResponse struct {
		Token string `json:"token"`
	}

	successResponse struct {
		Success string `json:"success"`
	}

	destroyMultipleRequest struct {
		IDs []string `query:"id"`
	}

	// idCardPayload is what a student's QR code holds for the attendance scanners.
	idCardPayload struct {
		StudentID    string `json:"studentId"`
		Name         string `json:"name"`
		RollNo       string `json:"rollNo,omitempty"`
		StudentClass string `json:"studentClass,omitempty"`
		IDCardNumber string `json:"idCardNumber,omitempty"`
	}
)

func (s *server) registerAuthAPI(g *echo.Group) {
	ag := g.Group("/auth")

	// un-authed endpoints
	pg := ag.Group("", s.rateLimitMiddleware)
	pg.POST("/login", s.login)
	pg.POST("/signup", s.signup)
	pg.POST("/forgot-password", s.forgotPassword)
	pg.POST("/reset-password", s.resetPassword)

	ag.POST("/token-refresh", s.tokenRefresh, s.authMiddleware)
}

func (s *server) registerUserAPI(g *echo.Group) {
	ug := g.Group("/users")
	ug.GET("", s.queryUsers, requireRoles(user.RoleAdmin))
	ug.POST("", s.createUser, requireRoles(user.RoleAdmin))
	ug.DELETE("", s.destroyUsers, requireRoles(user.RoleAdmin))
	ug.GET("/roles", s.queryRoles)

	dg := ug.Group("/:id", selfOrRoles("id", user.RoleAdmin), s.userObjectMiddleware)
	dg.GET("", s.retrieveUser)
	dg.PUT("", s.updateUser)
	dg.DELETE("", s.destroyUser, requireRoles(user.RoleAdmin))
	ug.GET("/:id/qrcode", s.userQRCode, selfOrRoles("id", user.RoleAdmin, user.RoleFaculty), s.userObjectMiddleware)
}

// Handlers

func (s *server) login(ctx echo.Context) error {
	var data user.LoginCredentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginCredentials")
	}

	usr, err := s.deps.UserSvc.Authenticate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := s.tokens.generate(s.tokens.claims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, loginResponse{User: usr, Token: token})
}

func (s *server) signup(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	// admins are created by other admins, or with the admin CLI
	if core.CleanString(data.Role, true /* lower */) == user.RoleAdmin {
		return errForbidden
	}

	usr, err := s.deps.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (s *server) forgotPassword(ctx echo.Context) error {
	var data user.PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}

	// unknown emails get the same answer, so that registered accounts cannot be enumerated
	err := s.deps.UserSvc.RequestPasswordReset(ctx.Request().Context(), data)
	if err != nil && !core.IsNotFound(err) {
		return errors.Wrap(err, "requesting password reset")
	}
	return ctx.JSON(http.StatusOK, successResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (s *server) resetPassword(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}

	if _, err := s.deps.UserSvc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, successResponse{Success: "Password has been reset with the new password."})
}

func (s *server) tokenRefresh(ctx echo.Context) error {
	token, err := s.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (s *server) createUser(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	usr, err := s.deps.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (s *server) queryUsers(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := bindQuery(ctx, filter); err != nil {
		return errors.Wrap(err, "binding to user.QueryFilter")
	}
	ordering := bindOrdering(ctx, user.OrderingFields, []core.DBOrdering{{Field: "name", Ascending: true}})

	users, err := s.deps.UserSvc.Query(ctx.Request().Context(), filter, ordering...)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (s *server) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

// userObjectMiddleware loads the user of the `id` path param.
func (s *server) userObjectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := s.deps.UserSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding user by ID")
		}
		ctx.Set("object", usr)
		return next(ctx)
	}
}

func (s *server) retrieveUser(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ctx.Get("object"))
}

func (s *server) updateUser(ctx echo.Context) error {
	usr := ctx.Get("object").(user.User)

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	// role, status, email and ID card can only be changed by an admin
	if data.IsPrivileged() && !hasRole(getContextUser(ctx), user.RoleAdmin) {
		return errForbidden
	}

	usr, err := s.deps.UserSvc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (s *server) destroyUser(ctx echo.Context) error {
	usr := ctx.Get("object").(user.User)

	// admins cannot delete themselves
	if usr.ID == getContextUser(ctx).ID {
		return errForbidden
	}
	if err := s.deps.UserSvc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *server) destroyUsers(ctx echo.Context) error {
	var query destroyMultipleRequest
	if err := bindQuery(ctx, &query); err != nil {
		return errors.Wrap(err, "binding to destroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}

	ctxUsr := getContextUser(ctx)
	for _, id := range query.IDs {
		if id == ctxUsr.ID {
			return errForbidden
		}
	}
	if err := s.deps.UserSvc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// userQRCode renders the ID card QR code of a student, read by the attendance scanners.
func (s *server) userQRCode(ctx echo.Context) error {
	usr := ctx.Get("object").(user.User)
	if !usr.IsStudent() {
		return errNotFound
	}

	payload, err := json.Marshal(idCardPayload{
		StudentID:    usr.ID,
		Name:         usr.Name,
		RollNo:       usr.RollNo,
		StudentClass: usr.StudentClass,
		IDCardNumber: usr.IDCardNumber,
	})
	if err != nil {
		return errors.Wrap(err, "encoding ID card payload")
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, qrCodeSize)
	if err != nil {
		return errors.Wrap(err, "encoding QR code")
	}
	return ctx.Blob(http.StatusOK, "image/png", png)
}

// rateLimitMiddleware throttles requests per client IP.
func (s *server) rateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ok, err := s.deps.AuthLimiter.Allow(ctx.Request().Context(), "auth:"+ctx.RealIP())
		if err != nil {
			// fail open: the limiter must not lock users out
			s.deps.Logger.Warn("rate limiter unavailable", err)
			return next(ctx)
		}
		if !ok {
			return errTooManyRequests
		}
		return next(ctx)
	}
}
