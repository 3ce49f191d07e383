package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/errors"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON decodes and validates a request body into dst. dst must be a
// pointer to a struct with validate tags.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewBadRequestError("invalid JSON body")
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			field := toSnakeCase(verrs[0].Field())
			return errors.NewValidationError(field, "failed "+verrs[0].Tag()+" check")
		}
		return errors.NewBadRequestError("invalid request body")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Default().Error("failed to encode response: %v", err)
	}
}

func errorResponse(code, message string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}

// toSnakeCase converts a Go struct field name to its JSON form,
// e.g. TimeSpentSeconds -> time_spent_seconds, TopicID -> topic_id.
func toSnakeCase(name string) string {
	var sb strings.Builder
	prevUpper := false
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !prevUpper {
				sb.WriteByte('_')
			}
			sb.WriteRune(r + ('a' - 'A'))
			prevUpper = true
			continue
		}
		sb.WriteRune(r)
		prevUpper = false
	}
	return sb.String()
}
