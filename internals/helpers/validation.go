// file: internals/helpers/validation.go
package helper

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationMap flattens a validator error into field -> messages for the
// 422 envelope. Non-validator errors collapse into a single "body" entry.
func ValidationMap(err error) map[string][]string {
	out := map[string][]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = []string{err.Error()}
		return out
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out[field] = append(out[field], msg)
	}
	return out
}
