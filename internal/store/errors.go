package store

import (
	"fmt"

	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
)

// Response returns the response body text recorded on a status error.
func Response(err error) string {
	if classified, ok := errors.AsClassified(err); ok {
		if body, ok := classified.Context().GetString("response"); ok {
			return body
		}
	}
	return ""
}

// Describe renders err as "{code}: {body}" for status errors and as the
// plain error text otherwise.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if code, ok := errors.StatusCode(err); ok {
		return fmt.Sprintf("%d: %s", code, Response(err))
	}
	if classified, ok := errors.AsClassified(err); ok && classified.Cause() != nil {
		return classified.Cause().Error()
	}
	return err.Error()
}
