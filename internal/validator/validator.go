package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/classbridge/assess-backend/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// trans is the singleton English translator for validation errors.
var trans ut.Translator

// Setup registers the validator with English translations on Gin's binding
// engine, plus the struct-level question authoring rules.
// Call once during application startup.
func Setup() {
	if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
		// Use JSON tag name for field names in error messages.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		v.RegisterStructValidation(validateQuestionInput, model.QuestionInput{})

		// Register English translations.
		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		en_translations.RegisterDefaultTranslations(v, trans)
	}
}

// validateQuestionInput enforces that a question carries the
// correctness data its kind requires: an in-range option index for
// multiple choice, a boolean for true/false, at least one accepted
// answer for short answer.
func validateQuestionInput(sl govalidator.StructLevel) {
	q := sl.Current().Interface().(model.QuestionInput)

	switch model.QuestionKind(q.Kind) {
	case model.QuestionKindMultipleChoice:
		if len(q.Options) < 2 {
			sl.ReportError(q.Options, "options", "Options", "mcoptions", "")
		}
		if q.CorrectOption == nil {
			sl.ReportError(q.CorrectOption, "correct_option", "CorrectOption", "required", "")
		} else if *q.CorrectOption < 0 || *q.CorrectOption >= len(q.Options) {
			sl.ReportError(q.CorrectOption, "correct_option", "CorrectOption", "optionrange", "")
		}
	case model.QuestionKindTrueFalse:
		if q.CorrectBool == nil {
			sl.ReportError(q.CorrectBool, "correct_bool", "CorrectBool", "required", "")
		}
	case model.QuestionKindShortAnswer:
		if len(q.AcceptedAnswers) == 0 {
			sl.ReportError(q.AcceptedAnswers, "accepted_answers", "AcceptedAnswers", "required", "")
		}
	}
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			switch fe.Tag() {
			case "mcoptions":
				fields[fe.Field()] = "multiple choice questions need at least two options"
			case "optionrange":
				fields[fe.Field()] = "correct_option must index into options"
			default:
				fields[fe.Field()] = fe.Translate(trans)
			}
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
