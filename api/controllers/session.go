package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type sessionIssuer interface {
	Issue(ctx context.Context) (string, error)
	Revoke(ctx context.Context, token string) error
}

type sessionResponse struct {
	Token string `json:"token"`
}

// SessionIssue mints an anonymous cart session and returns it in the body and header.
func SessionIssue(sessions sessionIssuer, header string, logg *logger.Logger) http.HandlerFunc {
	if header == "" {
		header = middleware.DefaultSessionHeader
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		token, err := sessions.Issue(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue session"))
			return
		}

		w.Header().Set(header, token)
		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{Token: token})
	}
}

// SessionRevoke ends the caller's session. The cart rows stay but become unreachable.
func SessionRevoke(sessions sessionIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		token := middleware.SessionTokenFromContext(r.Context())
		if err := sessions.Revoke(r.Context(), token); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
