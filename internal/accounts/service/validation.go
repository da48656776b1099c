package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field error messages, worded as the existing web and mobile clients
// display them.
const (
	MsgRequired            = "이 필드는 필수 항목입니다."
	MsgInvalidEmail        = "유효한 이메일 주소를 입력하십시오."
	MsgInvalidInteger      = "유효한 정수(integer)를 넣어주세요."
	MsgEmailExists         = "이미 가입된 이메일입니다."
	MsgStudentNumExists    = "이미 가입된 학번입니다."
	MsgPasswordNumeric     = "비밀번호가 전부 숫자로 되어 있습니다."
	msgMaxLengthFormat     = "이 필드의 글자 수가 %s 이하인지 확인하십시오."
	msgMaxValueFormat      = "이 값이 %d보다 작거나 같은지 확인하십시오."
	msgMinValueFormat      = "이 값이 %d보다 크거나 같은지 확인하십시오."
	msgPasswordShortFormat = "비밀번호가 너무 짧습니다. 최소 %d 문자를 포함해야 합니다."
)

// ValidationError maps request fields to their error messages. It is
// rendered as the body of a 400 response.
type ValidationError map[string][]string

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e ValidationError) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Has reports whether field has at least one error.
func (e ValidationError) Has(field string) bool {
	return len(e[field]) > 0
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// collect runs struct validation and converts failures into messages.
func collect(s any, into ValidationError) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}
	for _, fe := range fieldErrs {
		into.add(fe.Field(), messageFor(fe))
	}
	return nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "email":
		return MsgInvalidEmail
	case "max":
		return fmt.Sprintf(msgMaxLengthFormat, fe.Param())
	default:
		return fmt.Sprintf("유효하지 않은 값입니다 (%s).", fe.Tag())
	}
}
