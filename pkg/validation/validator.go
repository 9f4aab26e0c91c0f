package validation

import (
	"errors"
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Get returns the shared validator with the custom listing rules registered.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		// Report fields by their JSON names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = validate.RegisterValidation("image_ref", validateImageRef)
		_ = validate.RegisterValidation("notblank", validateNotBlank)
	})
	return validate
}

// ValidateStruct validates s and converts validator errors into a
// ValidationError keyed by JSON field name.
func ValidateStruct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs)
	}
	return err
}

// validateImageRef accepts local paths, file:// and s3:// references with a
// supported image extension.
func validateImageRef(fl validator.FieldLevel) bool {
	ref := strings.TrimSpace(fl.Field().String())
	if ref == "" {
		return false
	}
	if strings.Contains(ref, "://") && !strings.HasPrefix(ref, "file://") && !strings.HasPrefix(ref, "s3://") {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(ref))]
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
