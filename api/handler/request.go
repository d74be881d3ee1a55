package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// bindAndValidate rejects unknown JSON fields before running struct tags.
func bindAndValidate(c echo.Context, validate *validator.Validate, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return err
	}
	if validate == nil {
		return nil
	}
	return validate.Struct(target)
}

func parseLimitOffset(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return limit, offset
}

func pathUUID(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	return id, err == nil
}

func invalidParam(c echo.Context, name string) error {
	return writeError(c, http.StatusBadRequest, "invalid_input", "invalid "+name)
}

func stringPtr(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func clientIP(c echo.Context) *string {
	return stringPtr(c.RealIP())
}
