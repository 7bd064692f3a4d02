// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/lodestar/internal/models"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

// CodeValidation is the APIError code of every validation failure.
const CodeValidation = "VALIDATION_ERROR"

var (
	instance     *validator.Validate
	instanceOnce sync.Once
)

// Values accepted by the entity_kind and collection tags.
var (
	entityKinds = []string{"algorithm", "post", "user"}
	collections = []string{"algorithms", "posts", "users"}
)

// FieldError describes one failed constraint.
type FieldError struct {
	Field   string // query or JSON name when the struct declares one
	Tag     string
	Param   string
	Value   any
	Message string
}

func (e FieldError) Error() string { return e.Message }

// Errors is the result of a failed ValidateStruct. It is never empty.
type Errors []FieldError

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i := range es {
		msgs[i] = es[i].Message
	}
	return strings.Join(msgs, "; ")
}

// ToAPIError renders es as a VALIDATION_ERROR body. A single failure
// reports its field, tag and value; several report a "fields" list.
func (es Errors) ToAPIError() *models.APIError {
	switch len(es) {
	case 0:
		return &models.APIError{Code: CodeValidation, Message: "Validation failed"}
	case 1:
		return &models.APIError{
			Code:    CodeValidation,
			Message: es[0].Message,
			Details: map[string]any{"field": es[0].Field, "tag": es[0].Tag, "value": es[0].Value},
		}
	}
	fields := make([]map[string]any, 0, len(es))
	for _, e := range es {
		fields = append(fields, map[string]any{"field": e.Field, "tag": e.Tag, "message": e.Message})
	}
	return &models.APIError{
		Code:    CodeValidation,
		Message: es.Error(),
		Details: map[string]any{"fields": fields},
	}
}

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	instanceOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(fieldName)
		// Registration only fails for an empty tag or a nil func.
		_ = v.RegisterValidation("entity_kind", memberOf(entityKinds))
		_ = v.RegisterValidation("collection", memberOf(collections))
		_ = v.RegisterValidation("cel_filter", celFilter)
		instance = v
	})
	return instance
}

// fieldName picks the query tag, then the json tag, then the Go name.
func fieldName(f reflect.StructField) string {
	for _, key := range []string{"query", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return f.Name
}

func memberOf(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, a := range allowed {
			if v == a {
				return true
			}
		}
		return false
	}
}

// celFilter accepts an empty string or a CEL expression that compiles
// against the vector record environment.
func celFilter(fl validator.FieldLevel) bool {
	return vectorstore.ValidateExpr(fl.Field().String()) == nil
}

// ValidateStruct checks s against its validate tags and returns nil or a
// non-empty Errors.
func ValidateStruct(s any) Errors {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{{Field: "unknown", Tag: "unknown", Message: err.Error()}}
	}

	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: message(fe),
		})
	}
	return out
}

// messages holds one template per tag; {f} is the field and {p} the param.
var messages = map[string]string{
	"required":    "{f} is required",
	"entity_kind": "{f} must be one of: " + strings.Join(entityKinds, ", "),
	"collection":  "{f} must be one of: " + strings.Join(collections, ", "),
	"cel_filter":  "{f} must be a valid CEL expression over id and metadata",
	"printascii":  "{f} must contain printable characters only",
	"oneof":       "{f} must be one of: {p}",
	"gte":         "{f} must be greater than or equal to {p}",
	"lte":         "{f} must be less than or equal to {p}",
	"gt":          "{f} must be greater than {p}",
	"lt":          "{f} must be less than {p}",
	"min":         "{f} must be at least {p}",
	"max":         "{f} must be at most {p}",
}

func message(fe validator.FieldError) string {
	tmpl, ok := messages[fe.Tag()]
	if !ok {
		tmpl = "{f} failed {t} validation"
	}
	if fe.Kind() == reflect.String && (fe.Tag() == "min" || fe.Tag() == "max") {
		tmpl += " characters"
	}
	return strings.NewReplacer("{f}", fe.Field(), "{p}", fe.Param(), "{t}", fe.Tag()).Replace(tmpl)
}
