package dto

import (
	"html"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"arc-exchange/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	safeStringRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)
	pairRe       = regexp.MustCompile(`^[A-Za-z0-9]{2,12}` + domain.QuoteAsset + `$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register installs the custom tags and the decimal type func on v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonName)
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("safe_id", validateSafeID)
	_ = v.RegisterValidation("safe_url", validateSafeURL)
	_ = v.RegisterValidation("symbol", validateSymbol)
	_ = v.RegisterValidation("pair", validatePair)
	_ = v.RegisterValidation("side", validateSide)
	_ = v.RegisterValidation("order_type", validateOrderType)
	_ = v.RegisterValidation("decimal_positive", validateDecimalPositive)
}

// jsonName reports fields by their JSON name in validation errors.
func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// decimalValue lets tags see a decimal as its string form.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

// validateSafeID allows alphanumeric, underscore, dash, and dot.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeStringRe.MatchString(fl.Field().String())
}

// validateSafeURL accepts only http/https URLs.
func validateSafeURL(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true // optional field; use "required" tag to enforce presence
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func validateSymbol(fl validator.FieldLevel) bool {
	return domain.IsSupportedAsset(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
}

func validatePair(fl validator.FieldLevel) bool {
	return pairRe.MatchString(strings.TrimSpace(fl.Field().String()))
}

func validateSide(fl validator.FieldLevel) bool {
	return domain.ValidSide(domain.OrderSide(strings.ToLower(fl.Field().String())))
}

func validateOrderType(fl validator.FieldLevel) bool {
	switch domain.OrderType(strings.ToLower(fl.Field().String())) {
	case domain.OrderTypeMarket, domain.OrderTypeLimit:
		return true
	}
	return false
}

func validateDecimalPositive(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && d.IsPositive()
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
