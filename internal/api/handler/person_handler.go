package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neumonitor/triage-api/internal/core/ports"
)

type PersonHandler struct {
	service ports.PersonService
}

func NewPersonHandler(service ports.PersonService) *PersonHandler {
	return &PersonHandler{service: service}
}

// Profile returns the authenticated account.
//
// @Summary      Get the account profile
// @Tags         persona
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope
// @Failure      401  {object}  errorResponse
// @Router       /persona/perfil [get]
func (h *PersonHandler) Profile(c echo.Context) error {
	personID, err := ctxPersonID(c)
	if err != nil {
		return err
	}

	person, err := h.service.Profile(c.Request().Context(), personID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, envelope{Success: true, Data: toPersonResponse(person)})
}

// UpdateProfile modifies the editable account fields.
//
// @Summary      Update the account profile
// @Tags         persona
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updatePersonRequest  true  "Profile fields"
// @Success      200   {object}  envelope
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /persona/perfil [put]
func (h *PersonHandler) UpdateProfile(c echo.Context) error {
	personID, err := ctxPersonID(c)
	if err != nil {
		return err
	}

	var req updatePersonRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	person, err := h.service.UpdateProfile(c.Request().Context(), personID, ports.UpdatePersonInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Perfil actualizado",
		Data:    toPersonResponse(person),
	})
}

// ChangePassword replaces the password after checking the current one.
//
// @Summary      Change password
// @Tags         persona
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Password change"
// @Success      200   {object}  envelope
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /persona/cambiar-contrasena [put]
func (h *PersonHandler) ChangePassword(c echo.Context) error {
	personID, err := ctxPersonID(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.ChangePassword(c.Request().Context(), personID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Contraseña actualizada",
	})
}
