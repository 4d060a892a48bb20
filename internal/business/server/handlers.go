package server

import (
	"encoding/json"
	"errors"
	"net/http"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openfin/connect-manager/internal/connect"
	"github.com/openfin/connect-manager/internal/institution"
	"github.com/openfin/connect-manager/internal/provider"
	"github.com/openfin/connect-manager/internal/serviceerr"
)

// flowAPI exposes the flow events over HTTP. All transition logic
// lives in the connect package; the handlers only decode requests,
// route events, and render flow snapshots.
type flowAPI struct {
	manager *connect.Manager
}

func newFlowAPI(manager *connect.Manager) *flowAPI {
	return &flowAPI{manager: manager}
}

type paramsBody struct {
	Step          string `json:"step,omitempty"`
	Provider      string `json:"provider,omitempty"`
	InstitutionID string `json:"institution_id,omitempty"`
	Token         string `json:"token,omitempty"`
	EnrollmentID  string `json:"enrollment_id,omitempty"`
	CountryCode   string `json:"countryCode,omitempty"`
	Query         string `json:"q,omitempty"`
}

type institutionBody struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Logo             string `json:"logo,omitempty"`
	Provider         string `json:"provider"`
	CountryCode      string `json:"country_code"`
	AvailableHistory int    `json:"available_history"`
}

type widgetBody struct {
	Provider  string `json:"provider"`
	URL       string `json:"url,omitempty"`
	LinkToken string `json:"link_token,omitempty"`
}

type flowBody struct {
	ID      string            `json:"id"`
	State   string            `json:"state"`
	Params  paramsBody        `json:"params"`
	Encoded string            `json:"encoded"`
	Results []institutionBody `json:"results,omitempty"`
	Widget  *widgetBody       `json:"widget,omitempty"`
	Notice  string            `json:"notice,omitempty"`
}

func renderFlow(flow *connect.Flow) flowBody {
	params := flow.Params()

	body := flowBody{
		ID:    flow.ID,
		State: flow.State().String(),
		Params: paramsBody{
			Step:          string(params.Step),
			Provider:      string(params.Provider),
			InstitutionID: params.InstitutionID,
			Token:         params.Token,
			EnrollmentID:  params.EnrollmentID,
			CountryCode:   params.CountryCode,
			Query:         params.Query,
		},
		Encoded: params.Values().Encode(),
	}

	for _, inst := range flow.Results() {
		body.Results = append(body.Results, institutionBody{
			ID:               inst.ID,
			Name:             inst.Name,
			Logo:             inst.Logo,
			Provider:         inst.Provider,
			CountryCode:      inst.CountryCode,
			AvailableHistory: inst.AvailableHistory,
		})
	}

	return body
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

type openFlowRequest struct {
	CountryCode string `json:"countryCode"`
}

func (a *flowAPI) openFlow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req openFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flow, err := a.manager.Open(ctx, req.CountryCode)
	if err != nil {
		slogctx.Error(ctx, "Failed to open a flow", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to open flow")

		return
	}

	if flowsOpened != nil {
		flowsOpened.Add(ctx, 1)
	}

	writeJSON(w, http.StatusCreated, renderFlow(flow))
}

func (a *flowAPI) getFlow(w http.ResponseWriter, r *http.Request) {
	flow, ok := a.loadFlow(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, renderFlow(flow))
}

type searchRequest struct {
	CountryCode *string `json:"countryCode"`
	Query       *string `json:"q"`
}

func (a *flowAPI) search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flow, ok := a.loadFlow(w, r)
	if !ok {
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flow.ApplyInput(ctx, connect.Input{
		CountryCode: req.CountryCode,
		Query:       req.Query,
	})

	if searches != nil {
		searches.Add(ctx, 1)
	}

	writeJSON(w, http.StatusOK, renderFlow(flow))
}

type selectRequest struct {
	InstitutionID string `json:"institutionId"`
}

func (a *flowAPI) selectInstitution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flow, ok := a.loadFlow(w, r)
	if !ok {
		return
	}

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inst, ok := findResult(flow.Results(), req.InstitutionID)
	if !ok {
		writeError(w, http.StatusNotFound, "institution is not in the current results")
		return
	}

	widget, err := flow.Select(ctx, inst)
	switch {
	case errors.Is(err, serviceerr.ErrFlowBusy):
		writeError(w, http.StatusConflict, "an authorization attempt is already in progress")
		return
	case errors.Is(err, serviceerr.ErrFlowClosed):
		writeError(w, http.StatusConflict, "the flow is not open")
		return
	case errors.Is(err, serviceerr.ErrProvisioning):
		// The flow is back on the search surface; surface a transient
		// notice instead of an error dialog.
		body := renderFlow(flow)
		body.Notice = "provisioning-failed"
		countAuthorization(ctx, inst.Provider, "provisioning-failed")
		writeJSON(w, http.StatusOK, body)

		return
	case err != nil:
		slogctx.Error(ctx, "Failed to select an institution", "institution_id", inst.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start authorization")

		return
	}

	body := renderFlow(flow)
	if widget != (provider.Widget{}) {
		body.Widget = &widgetBody{
			Provider:  widget.Provider,
			URL:       widget.URL,
			LinkToken: widget.LinkToken,
		}
	}

	writeJSON(w, http.StatusOK, body)
}

type outcomeRequest struct {
	Event         string `json:"event"`
	Token         string `json:"token"`
	EnrollmentID  string `json:"enrollmentId"`
	InstitutionID string `json:"institutionId"`
	Reason        string `json:"reason"`
}

func (a *flowAPI) outcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flow, ok := a.loadFlow(w, r)
	if !ok {
		return
	}

	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The provider comes from the outstanding attempt: params only carry
	// one after a success has been written through.
	prov := attemptProvider(flow)

	err := a.manager.Resolve(ctx, flow.ID, connect.Outcome{
		Event:         req.Event,
		Token:         req.Token,
		EnrollmentID:  req.EnrollmentID,
		InstitutionID: req.InstitutionID,
		Reason:        req.Reason,
	})
	switch {
	case errors.Is(err, serviceerr.ErrNotFound):
		writeError(w, http.StatusNotFound, "no outstanding authorization attempt")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	countAuthorization(ctx, prov, req.Event)

	writeJSON(w, http.StatusOK, renderFlow(flow))
}

// attemptProvider names the provider of the flow's outstanding
// authorization attempt, or "" when none is outstanding.
func attemptProvider(flow *connect.Flow) string {
	session, ok := flow.Session()
	if !ok {
		return ""
	}

	return session.Widget().Provider
}

func (a *flowAPI) closeFlow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := a.manager.Close(ctx, r.PathValue("id"))
	switch {
	case errors.Is(err, serviceerr.ErrNotFound):
		writeError(w, http.StatusNotFound, "flow not found")
		return
	case err != nil:
		slogctx.Error(ctx, "Failed to close a flow", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to close flow")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *flowAPI) loadFlow(w http.ResponseWriter, r *http.Request) (*connect.Flow, bool) {
	flow, err := a.manager.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, serviceerr.ErrNotFound):
		writeError(w, http.StatusNotFound, "flow not found")
		return nil, false
	case err != nil:
		slogctx.Error(r.Context(), "Failed to load a flow", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load flow")

		return nil, false
	}

	return flow, true
}

func findResult(results []institution.Institution, id string) (institution.Institution, bool) {
	for _, inst := range results {
		if inst.ID == id {
			return inst, true
		}
	}

	return institution.Institution{}, false
}
