// Package validation builds the request validator shared by services.
package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/upstander-api/internal/models"
)

const (
	notBlankTag      = "notblank"
	bullyingTypeTag  = "bullying_type"
	reportStatusTag  = "report_status"
	messageSenderTag = "message_sender"
)

// New returns a validator with the domain tags registered and JSON field names in errors.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation(bullyingTypeTag, func(fl validator.FieldLevel) bool {
		return models.BullyingType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation(reportStatusTag, func(fl validator.FieldLevel) bool {
		return models.ReportStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation(messageSenderTag, func(fl validator.FieldLevel) bool {
		return models.MessageSender(fl.Field().String()).Valid()
	})
	return v
}

// Describe flattens validator errors into "field: tag" pairs for client messages.
func Describe(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fe.Field()+": "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}
