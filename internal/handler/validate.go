package handler

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"educontrol/internal/model"
)

// custom validation tags
const (
	isoDateTag  = "isodate"
	notBlankTag = "notblank"
	roleTag     = "role"
	statusTag   = "status"
)

var (
	translator   ut.Translator
	registerOnce sync.Once
)

// RegisterValidators installs the custom tags on gin's validator. It is safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_en := en.New()
		uni := ut.New(_en, _en)
		translator, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, translator)

		// Report JSON and query names instead of Go field names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		_ = v.RegisterValidation(isoDateTag, isoDateValidation)
		_ = v.RegisterValidation(notBlankTag, notBlankValidation)
		_ = v.RegisterValidation(roleTag, roleValidation)
		_ = v.RegisterValidation(statusTag, statusValidation)

		noop := func(ut.Translator) error { return nil }
		for _, tag := range []string{isoDateTag, notBlankTag, roleTag, statusTag} {
			_ = v.RegisterTranslation(tag, translator, noop, translateCustom)
		}
	})
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case isoDateTag:
		return fe.Field() + " must be a date in YYYY-MM-DD format"
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case roleTag:
		return fe.Field() + " must be student, teacher, admin or director"
	case statusTag:
		return fe.Field() + " must be present, absent or late"
	}
	return fe.Error()
}

func isoDateValidation(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

func notBlankValidation(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && strings.TrimSpace(s) != ""
}

func roleValidation(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case model.Role:
		return v.Valid()
	case string:
		return model.Role(v).Valid()
	}
	return false
}

func statusValidation(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case model.Status:
		return v.Valid()
	case string:
		return model.Status(v).Valid()
	}
	return false
}

// bindErrors turns a binding failure into a field to message map. Other errors, like
// malformed JSON, are reported under "body".
func bindErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if translator != nil {
			out[fe.Field()] = fe.Translate(translator)
		} else {
			out[fe.Field()] = fe.Error()
		}
	}
	return out
}
