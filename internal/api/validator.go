package api

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// seatLabelPattern は座席ラベルの形式（行は英大文字1桁、列は数字）
var seatLabelPattern = regexp.MustCompile(`^[A-Z][0-9]{1,2}$`)

// CustomValidator はEcho用のカスタムバリデーター
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator は新しいバリデーターを作成する
// 座席ラベル形式の検証タグ seat_label を登録する
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("seat_label", func(fl validator.FieldLevel) bool {
		return seatLabelPattern.MatchString(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

// Validate はリクエストのバリデーションを実行する
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(400, err.Error())
	}
	return nil
}
