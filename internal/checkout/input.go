package checkout

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Input is the buyer contact and shipping payload. Field order is the order
// violations are reported in.
type Input struct {
	Email           string `json:"email" validate:"required,email,max=120"`
	FirstName       string `json:"first_name" validate:"required,max=50"`
	LastName        string `json:"last_name" validate:"required,max=50"`
	Address         string `json:"address" validate:"required,max=200"`
	City            string `json:"city" validate:"required,max=100"`
	State           string `json:"state" validate:"required,max=50"`
	Zip             string `json:"zip" validate:"required,max=20"`
	Country         string `json:"country" validate:"max=50"`
	PaymentMethodID string `json:"payment_method_id" validate:"max=255"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func (in *Input) normalize() {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Zip = strings.TrimSpace(in.Zip)
	in.Country = strings.TrimSpace(in.Country)
	in.PaymentMethodID = strings.TrimSpace(in.PaymentMethodID)
}

// validateInput reports the first violation only.
func validateInput(in *Input, requirePaymentMethod bool) error {
	in.normalize()
	if err := validate.Struct(in); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok || len(errs) == 0 {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
		}
		first := errs[0]
		return pkgerrors.New(pkgerrors.CodeValidation, violationMessage(first)).
			WithDetails(map[string]any{"field": first.Field()})
	}
	if requirePaymentMethod && in.PaymentMethodID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing payment_method_id").
			WithDetails(map[string]any{"field": "payment_method_id"})
	}
	return nil
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "missing " + fe.Field()
	case "email":
		return "invalid email"
	case "max":
		return fe.Field() + " is too long"
	}
	return "invalid " + fe.Field()
}
