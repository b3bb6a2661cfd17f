package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/choriweb/shop-api/internal/core/domain"
)

// fieldLabel is how a field is named in user-facing messages.
type fieldLabel struct {
	text     string
	feminine bool
}

var fieldLabels = map[string]fieldLabel{
	"name":           {"El nombre", false},
	"email":          {"El email", false},
	"password":       {"La contraseña", true},
	"description":    {"La descripción", true},
	"price":          {"El precio", false},
	"category_id":    {"La categoría", true},
	"product_id":     {"El producto", false},
	"quantity":       {"La cantidad", true},
	"status":         {"El estado", false},
	"payment_status": {"El estado de pago", false},
	"payment_method": {"El método de pago", false},
	"street":         {"La calle", true},
	"number":         {"El número", false},
	"neighborhood":   {"La colonia", true},
	"municipality":   {"El municipio", false},
	"state":          {"El estado", false},
	"zip_code":       {"El código postal", false},
	"phone":          {"El teléfono", false},
	"references":     {"Las referencias", true},
	"image_url":      {"La URL de la imagen", true},
	"address":        {"La dirección", true},
	"items":          {"Los productos", false},
}

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return domain.CheckPassword(fl.Field().String()) == nil
	})
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Failures are returned as
// *domain.ValidationError with one message per broken rule.
func (ev *echoValidator) Validate(i any) error {
	err := ev.v.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldErrors(fe)...)
	}
	return domain.NewValidationError(msgs...)
}

// fieldErrors converts a single FieldError into human-readable messages.
func fieldErrors(fe validator.FieldError) []string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fieldLabel{text: "El campo " + fe.Field()}
	}

	switch fe.Tag() {
	case "required":
		return []string{label.text + " es " + gendered(label, "obligatorio", "obligatoria")}
	case "email":
		return []string{label.text + " no es válido"}
	case "password":
		var verr *domain.ValidationError
		if errors.As(domain.CheckPassword(fmt.Sprint(fe.Value())), &verr) {
			return verr.Messages
		}
		return []string{label.text + " no es válida"}
	case "min":
		if fe.Kind() == reflect.String {
			return []string{fmt.Sprintf("%s debe tener al menos %s caracteres", label.text, fe.Param())}
		}
		return []string{fmt.Sprintf("%s debe ser al menos %s", label.text, fe.Param())}
	case "max":
		if fe.Kind() == reflect.String {
			return []string{fmt.Sprintf("%s no puede tener más de %s caracteres", label.text, fe.Param())}
		}
		return []string{fmt.Sprintf("%s no puede ser mayor que %s", label.text, fe.Param())}
	case "gte":
		return []string{fmt.Sprintf("%s debe ser mayor o igual a %s", label.text, fe.Param())}
	case "oneof":
		return []string{fmt.Sprintf("%s debe ser uno de: %s", label.text, strings.ReplaceAll(fe.Param(), " ", ", "))}
	case "mongodb":
		return []string{label.text + " no es un identificador válido"}
	default:
		return []string{label.text + " no es " + gendered(label, "válido", "válida")}
	}
}

func gendered(l fieldLabel, masculine, feminine string) string {
	if l.feminine {
		return feminine
	}
	return masculine
}
