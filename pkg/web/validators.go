package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

func newComparisonValidator(valueInClosure int64, compareFn func(argValue, closedValue int64) bool) ParamValidator {
	return func(argValue int64) bool {
		return compareFn(argValue, valueInClosure)
	}
}

// gte returns a ParamValidator that checks if the argument is greater than or equal to the value captured in the closure.
func gte(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue >= closedValue
	})
}

// gt returns a ParamValidator that checks if the argument is greater than the value captured in the closure.
func gt(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue > closedValue
	})
}

// QueryIntGte parses the optional query parameter key, requiring value >= minimum.
// def is returned when the parameter is absent.
func QueryIntGte(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, minimum, def int64) (int64, bool) {
	return parseValidate(r, w, logger, key, def, gte(minimum))
}

// QueryIntGt parses the optional query parameter key, requiring value > minimum.
// def is returned when the parameter is absent.
func QueryIntGt(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, minimum, def int64) (int64, bool) {
	return parseValidate(r, w, logger, key, def, gt(minimum))
}

// QueryIntList parses every value of the repeated query parameter key, requiring each value > 0.
func QueryIntList(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string) ([]int64, bool) {
	raw := r.URL.Query()[key]
	values := make([]int64, 0, len(raw))
	positive := gt(0)
	for _, value := range raw {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil || !positive(intValue) {
			RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
			return nil, false
		}
		values = append(values, intValue)
	}
	return values, true
}

func parseValidate(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def int64, pValidator ParamValidator) (int64, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, true
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return intValue, true
}
