package handler

import (
    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
)

// Validator adapts validator/v10 to echo.Validator.
type Validator struct {
    v *validator.Validate
}

func NewValidator() *Validator {
    return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i any) error {
    return cv.v.Struct(i)
}

// bind decodes the request body into dst and validates it.  Any failure
// is InvalidInput.
func bind(c echo.Context, dst any) error {
    if err := c.Bind(dst); err != nil {
        return invalid("malformed request body")
    }
    if err := c.Validate(dst); err != nil {
        return invalid("%s", err.Error())
    }
    return nil
}
