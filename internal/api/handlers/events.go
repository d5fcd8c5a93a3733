package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/api/problem"
	"github.com/Togather-Foundation/eventdesk/internal/api/render"
	"github.com/Togather-Foundation/eventdesk/internal/audit"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
)

type EventsHandler struct {
	Service  *events.Service
	Renderer *render.Renderer
	Audit    *audit.Logger
	Env      string
}

func NewEventsHandler(service *events.Service, renderer *render.Renderer, auditLogger *audit.Logger, env string) *EventsHandler {
	return &EventsHandler{Service: service, Renderer: renderer, Audit: auditLogger, Env: env}
}

type listResponse struct {
	Items []events.Event `json:"items"`
	Query string         `json:"query,omitempty"`
}

// mutableFields are the form fields Update reads. Absent fields are left alone.
var mutableFields = []string{"title", "description", "date", "location", "organizer"}

// List handles GET /events. A non-blank q switches to ranked search.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var items []events.Event
	if query == "" {
		items = h.Service.List(r.Context())
	} else {
		items = h.Service.Search(r.Context(), query)
	}
	if items == nil {
		items = []events.Event{}
	}

	if middleware.WantsJSON(r) {
		render.JSON(w, http.StatusOK, listResponse{Items: items, Query: query})
		return
	}
	h.page(w, r, http.StatusOK, render.PageEvents, render.PageData{Title: "Events", Query: query, Events: items})
}

// Create handles POST /events by creating an empty record and sending the
// browser to its edit form.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	event, err := h.Service.CreateEmpty(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.audit(r, audit.ActionEventCreate, event.ID)

	location := "/events/" + event.ID
	if middleware.WantsJSON(r) {
		w.Header().Set("Location", location)
		render.JSON(w, http.StatusCreated, event)
		return
	}
	http.Redirect(w, r, location+"/edit", http.StatusFound)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, ok := h.load(w, r)
	if !ok {
		return
	}
	if middleware.WantsJSON(r) {
		render.JSON(w, http.StatusOK, event)
		return
	}
	h.page(w, r, http.StatusOK, render.PageEvent, render.PageData{Title: event.TitleOrDefault(), Event: event})
}

func (h *EventsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	event, ok := h.load(w, r)
	if !ok {
		return
	}
	if middleware.WantsJSON(r) {
		render.JSON(w, http.StatusOK, event)
		return
	}
	h.page(w, r, http.StatusOK, render.PageEdit, render.PageData{Title: "Edit " + event.TitleOrDefault(), Event: event})
}

// Update handles POST /events/{id}.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		h.missingID(w, r)
		return
	}
	if !parseForm(w, r, h.Env) {
		return
	}

	mutation := mutationFromForm(r)
	event, err := h.Service.Update(r.Context(), id, mutation)
	if err != nil {
		var verrs events.ValidationErrors
		if errors.As(err, &verrs) && !middleware.WantsJSON(r) && h.Renderer != nil {
			h.rerenderEdit(w, r, id, mutation, verrs)
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	h.audit(r, audit.ActionEventUpdate, event.ID)

	if middleware.WantsJSON(r) {
		render.JSON(w, http.StatusOK, event)
		return
	}
	http.Redirect(w, r, "/events/"+event.ID, http.StatusFound)
}

// Delete handles POST /events/{id}/delete. Deleting a missing record still
// succeeds.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		h.missingID(w, r)
		return
	}
	removed, err := h.Service.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if removed {
		h.audit(r, audit.ActionEventDelete, id)
	}

	if middleware.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Favorite handles POST /events/{id}/favorite. Only the literal strings "true"
// and "false" are accepted.
func (h *EventsHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		h.missingID(w, r)
		return
	}
	if !parseForm(w, r, h.Env) {
		return
	}

	var favorite bool
	switch r.PostForm.Get("favorite") {
	case "true":
		favorite = true
	case "false":
		favorite = false
	default:
		writeFailure(w, r, h.Renderer, http.StatusBadRequest, problem.TypeValidation, "Invalid request", nil, h.Env,
			problem.WithErrors(map[string]string{"favorite": `must be "true" or "false"`}))
		return
	}

	event, err := h.Service.SetFavorite(r.Context(), id, favorite)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.audit(r, audit.ActionEventFavor, event.ID)

	if middleware.WantsJSON(r) {
		render.JSON(w, http.StatusOK, event)
		return
	}
	http.Redirect(w, r, "/events/"+event.ID, http.StatusFound)
}

func (h *EventsHandler) load(w http.ResponseWriter, r *http.Request) (events.Event, bool) {
	id := pathParam(r, "id")
	if id == "" {
		h.missingID(w, r)
		return events.Event{}, false
	}
	event, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return events.Event{}, false
	}
	return event, true
}

func (h *EventsHandler) missingID(w http.ResponseWriter, r *http.Request) {
	middleware.LoggerFromContext(r.Context()).Warn().Str("path", r.URL.Path).Msg("event id missing")
	writeFailure(w, r, h.Renderer, http.StatusBadRequest, problem.TypeValidation, "Invalid request", nil, h.Env,
		problem.WithErrors(map[string]string{"id": "is required"}))
}

func (h *EventsHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs events.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeFailure(w, r, h.Renderer, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithErrors(fieldErrors(verrs)))
	case errors.Is(err, events.ErrNotFound):
		writeFailure(w, r, h.Renderer, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
	case errors.Is(err, events.ErrConflict):
		writeFailure(w, r, h.Renderer, http.StatusConflict, problem.TypeConflict, "Event already exists", err, h.Env)
	default:
		writeFailure(w, r, h.Renderer, http.StatusInternalServerError, problem.TypeInternal, "Server error", err, h.Env)
	}
}

// rerenderEdit shows the submitted values back to the user next to the field errors.
func (h *EventsHandler) rerenderEdit(w http.ResponseWriter, r *http.Request, id string, m events.Mutation, verrs events.ValidationErrors) {
	event, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	overlay := func(dst **string, src *string) {
		if src != nil {
			value := *src
			*dst = &value
		}
	}
	overlay(&event.Title, m.Title)
	overlay(&event.Description, m.Description)
	overlay(&event.Date, m.Date)
	overlay(&event.Location, m.Location)
	overlay(&event.Organizer, m.Organizer)

	h.page(w, r, http.StatusBadRequest, render.PageEdit, render.PageData{
		Title:       "Edit " + event.TitleOrDefault(),
		Event:       event,
		FieldErrors: fieldErrors(verrs),
	})
}

func (h *EventsHandler) page(w http.ResponseWriter, r *http.Request, status int, page string, data render.PageData) {
	if h.Renderer == nil {
		render.JSON(w, status, data)
		return
	}
	data.User = currentUser(r)
	if err := h.Renderer.HTML(w, status, page, data); err != nil {
		middleware.LoggerFromContext(r.Context()).Error().Err(err).Str("page", page).Msg("render page")
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (h *EventsHandler) audit(r *http.Request, action, resourceID string) {
	actor := ""
	if user := currentUser(r); user != nil {
		actor = user.ID
	}
	h.Audit.LogRequest(r, action, actor, resourceID, audit.StatusSuccess, nil)
}

func mutationFromForm(r *http.Request) events.Mutation {
	values := make(map[string]*string, len(mutableFields))
	for _, field := range mutableFields {
		if _, present := r.PostForm[field]; present {
			value := r.PostForm.Get(field)
			values[field] = &value
		}
	}
	return events.Mutation{
		Title:       values["title"],
		Description: values["description"],
		Date:        values["date"],
		Location:    values["location"],
		Organizer:   values["organizer"],
	}
}

func fieldErrors(verrs events.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, verr := range verrs {
		if _, exists := out[verr.Field]; !exists {
			out[verr.Field] = verr.Message
		}
	}
	return out
}
