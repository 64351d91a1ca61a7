package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/userhub/user-management/internal/api/middleware"
	"github.com/userhub/user-management/internal/core/domain"
	"github.com/userhub/user-management/internal/core/ports"
)

type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type updateProfileRequest struct {
	FirstName         string `json:"first_name,omitempty"`
	LastName          string `json:"last_name,omitempty"`
	Bio               string `json:"bio,omitempty" validate:"omitempty,max=500"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

type userListResponse struct {
	Users []*domain.User `json:"users"`
	Total int            `json:"total"`
}

// Me returns the account of the authenticated principal.
//
// @Summary      Current account
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	user, err := h.users.GetByEmail(c.Request().Context(), principal.Identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// List returns accounts, paginated. Managers and admins only (enforced by the
// route's RBAC middleware).
//
// @Summary      List accounts
// @Tags         users
// @Produce      json
// @Param        limit   query  int  false  "Page size (default 50)"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {object}  userListResponse
// @Failure      403  {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	users, err := h.users.List(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userListResponse{Users: users, Total: len(users)})
}

// Update applies a partial profile update. A principal may update their own
// account; managers and admins may update anyone.
//
// @Summary      Update profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "Account ID"
// @Param        body  body  updateProfileRequest  true  "Fields to change"
// @Success      200  {object}  domain.User
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	id := c.Param("id")
	target, err := h.users.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if target.Email != principal.Identity && !middleware.Authorized(principal, domain.RoleManager) {
		return domain.ErrForbidden
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.users.UpdateProfile(c.Request().Context(), id, ports.ProfileUpdate{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Bio:               req.Bio,
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Unlock clears the lockout state of an account. Admin only (enforced by the
// route's RBAC middleware).
//
// @Summary      Unlock account
// @Tags         users
// @Produce      json
// @Param        id  path  string  true  "Account ID"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id}/unlock [post]
func (h *UserHandler) Unlock(c echo.Context) error {
	user, err := h.users.Unlock(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func queryInt(c echo.Context, name string, fallback int64) int64 {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
