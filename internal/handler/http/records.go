package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/internal/service"
	"github.com/staylio/villa-onboard/internal/utils"
	"github.com/staylio/villa-onboard/models"
)

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	ownerLogin, found := utils.GetLoginFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.createRecord").Msg("no owner login was given")
		http.Error(w, "no owner login was given", http.StatusBadRequest)
		return
	}

	recordID, err := h.services.OnboardingService.CreateRecord(ctx, ownerLogin)
	if err != nil {
		log.Err(err).Str("func", "*Handler.createRecord").Msg("error creating onboarding record")
		http.Error(w, "error creating onboarding record", statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.CreateRecordResponse{RecordID: recordID}, http.StatusCreated)
}

func (h *Handler) saveStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	recordID := chi.URLParam(r, "recordID")

	var saveRequest models.StepSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&saveRequest); err != nil {
		log.Err(err).Str("func", "*Handler.saveStep").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	version, err := h.services.OnboardingService.SaveStep(ctx, recordID, saveRequest)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			utils.WriteJSON(w, models.ValidationErrorResponse{Errors: validationErr.Fields}, http.StatusUnprocessableEntity)
			return
		}

		log.Err(err).
			Str("func", "*Handler.saveStep").
			Str("record_id", recordID).
			Int("step", saveRequest.StepNumber).
			Str("operation_id", saveRequest.OperationID).
			Msg("error saving step")
		// the response body carries the error text so legacy clients can
		// recognise "version conflict" regardless of the status code
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.StepSaveResponse{Version: version}, http.StatusOK)
}

func (h *Handler) completeStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	recordID := chi.URLParam(r, "recordID")
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		log.Err(err).Str("func", "*Handler.completeStep").Msg("non-numeric step number")
		http.Error(w, "non-numeric step number", http.StatusBadRequest)
		return
	}

	if err = h.services.OnboardingService.CompleteStep(ctx, recordID, step); err != nil {
		log.Err(err).
			Str("func", "*Handler.completeStep").
			Str("record_id", recordID).
			Int("step", step).
			Msg("error completing step")
		http.Error(w, "error completing step", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) getProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	recordID := chi.URLParam(r, "recordID")

	state, err := h.services.OnboardingService.GetProgress(ctx, recordID)
	if err != nil {
		log.Err(err).
			Str("func", "*Handler.getProgress").
			Str("record_id", recordID).
			Msg("error getting record progress")
		http.Error(w, "error getting record progress", statusFromError(err))
		return
	}

	utils.WriteJSON(w, state, http.StatusOK)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	recordID := chi.URLParam(r, "recordID")

	if err := h.services.OnboardingService.Submit(ctx, recordID); err != nil {
		log.Err(err).
			Str("func", "*Handler.submit").
			Str("record_id", recordID).
			Msg("error submitting record")
		http.Error(w, "error submitting record", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}
