// Package httperr decodes request bodies and maps service errors to HTTP responses.
package httperr

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/rs/zerolog/hlog"

	"github.com/zhouzirui/recordhub/backend/internal/service/cart"
	"github.com/zhouzirui/recordhub/backend/internal/service/records"
	"github.com/zhouzirui/recordhub/backend/internal/store"
	"github.com/zhouzirui/recordhub/backend/internal/validate"
	"github.com/zhouzirui/recordhub/backend/pkg/utils"
)

// ErrInvalidBody reports a request body that is not well-formed JSON.
var ErrInvalidBody = errors.New("invalid request body")

// Decode reads a JSON body into v. A value of the wrong type for a field is a
// *validate.Error naming that field; anything else unparsable is ErrInvalidBody.
func Decode(r *http.Request, v any) error {
	err := json.UnmarshalRead(r.Body, v)
	if err == nil {
		return nil
	}

	var semErr *json.SemanticError
	if errors.As(err, &semErr) && semErr.JSONPointer != "" {
		field := strings.ReplaceAll(strings.TrimPrefix(string(semErr.JSONPointer), "/"), "/", ".")
		return validate.Errorf(field, "has the wrong type")
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrInvalidBody
	}
	return errors.Join(ErrInvalidBody, err)
}

// Write maps err onto a status code and JSON error body.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr     *validate.Error
		notFound *records.NotFoundError
		conflict *records.ConflictError
	)

	switch {
	case errors.As(err, &verr):
		utils.RespondFieldError(w, http.StatusUnprocessableEntity, verr.Field, verr.Reason)
	case errors.As(err, &notFound):
		hlog.FromRequest(r).Warn().Str("id", notFound.ID).Msg(notFound.Error())
		utils.RespondError(w, http.StatusNotFound, notFound.Error())
	case errors.Is(err, cart.ErrProductNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "record not found")
	case errors.As(err, &conflict):
		utils.RespondError(w, http.StatusConflict, conflict.Error())
	case errors.Is(err, cart.ErrEmptyCart):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidBody):
		utils.RespondError(w, http.StatusBadRequest, ErrInvalidBody.Error())
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		utils.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
