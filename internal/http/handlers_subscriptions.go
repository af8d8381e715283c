package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"subtrack/internal/core"
	"subtrack/internal/i18n"
	"subtrack/internal/log"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, user core.User) {
	opts, err := parseDashboardOptions(r, s.deps.DefaultLocale, s.asOf())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	subs, err := s.deps.Subscriptions.ListSubscriptions(r.Context(), user.ID)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list subscriptions",
			log.FieldUserID, user.ID,
			log.FieldError, err)
		InternalServerError("could not load subscriptions").Write(w)
		return
	}

	NewJSONResponse().Data(services.BuildDashboard(subs, opts)).Write(w)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request, user core.User) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	loc := requestLocale(r, s.deps.DefaultLocale)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	in, err := parseNewSubscription(parser, core.DateOf(s.asOf()))
	if err != nil {
		logger.InfoContext(ctx, "Rejected subscription input", log.FieldUserID, user.ID, log.FieldError, err)
		UnprocessableEntityError(i18n.T(loc, i18n.ValidationError)).Write(w)
		return
	}

	id, err := s.deps.Subscriptions.CreateSubscription(ctx, user.ID, in)
	switch {
	case err == nil:
	case services.IsValidationError(err):
		logger.InfoContext(ctx, "Rejected subscription", log.FieldUserID, user.ID, log.FieldError, err)
		NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Error(err.Error()).
			NotifyError(i18n.T(loc, i18n.ValidationError)).
			Write(w)
		return
	default:
		logger.ErrorContext(ctx, "Failed to create subscription", log.FieldUserID, user.ID, log.FieldError, err)
		InternalServerError(i18n.T(loc, i18n.CreateFailed)).Write(w)
		return
	}

	atomic.AddInt64(&s.metrics.subscriptionsCreated, 1)
	NewJSONResponse().
		Status(http.StatusAccepted).
		Data(map[string]string{"id": id}).
		NotifySuccess(i18n.T(loc, i18n.ValidationSuccess)).
		Write(w)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request, user core.User) {
	ctx := r.Context()
	loc := requestLocale(r, s.deps.DefaultLocale)
	id := r.PathValue("id")

	err := s.deps.Subscriptions.DeleteSubscription(ctx, user.ID, id)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		NotFoundError(i18n.T(loc, i18n.DeleteFailed)).Write(w)
		return
	default:
		log.FromContext(ctx).ErrorContext(ctx, "Failed to delete subscription",
			log.FieldUserID, user.ID,
			log.FieldSubscriptionID, id,
			log.FieldError, err)
		InternalServerError(i18n.T(loc, i18n.DeleteFailed)).Write(w)
		return
	}

	atomic.AddInt64(&s.metrics.subscriptionsDeleted, 1)
	NewJSONResponse().
		Status(http.StatusAccepted).
		Data(map[string]string{"id": id}).
		NotifySuccess(i18n.T(loc, i18n.DeleteSuccess)).
		Write(w)
}
