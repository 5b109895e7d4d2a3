package portfolio

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/mtlprog/wealth/internal/backend"
	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/session"
)

const genericMessage = "Something went wrong, please try again"

// UserMessage turns a form or fetch failure into text fit for the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for f := range verrs {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = f + " " + verrs[f]
		}
		return strings.Join(parts, "; ")
	}

	if errors.Is(err, session.ErrSessionExpired) {
		return "Your session has expired, please log in again"
	}
	if errors.Is(err, session.ErrNotLoggedIn) {
		return "Please log in first"
	}

	var apiErr *backend.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Detail != "":
			return apiErr.Detail
		case apiErr.StatusCode == http.StatusNotFound:
			return "Not found"
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return "Please log in again"
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return "Too many requests, please wait a moment"
		}
	}
	return genericMessage
}
