package api

import (
	"net/http"

	"github.com/okian/hydrophys/internal/domain/profile"
)

// ProfilesHandler serves the TS profile registry.
type ProfilesHandler struct {
	deps ProfileDependencies
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(deps ProfileDependencies) *ProfilesHandler {
	return &ProfilesHandler{deps: deps}
}

type profileList struct {
	Profiles any `json:"profiles"`
}

// HandleList handles GET /profiles.
func (h *ProfilesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Profiles(r.Context())
	if err != nil {
		respondError(w, "api.profiles", err)
		return
	}
	writeJSON(w, http.StatusOK, profileList{Profiles: list})
}

// HandleCreate handles POST /profiles. An empty id is assigned by the server.
func (h *ProfilesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var p profile.Named
	if err := decodeJSON(w, r, &p); err != nil {
		respondError(w, "api.profiles.create", WrapKind("api.profiles.create", ErrBadRequest, err))
		return
	}

	stored, err := h.deps.PutProfile(r.Context(), p)
	if err != nil {
		respondError(w, "api.profiles.create", err)
		return
	}
	w.Header().Set("Location", "/profiles/"+stored.ID)
	writeJSON(w, http.StatusCreated, stored)
}

// HandleGet handles GET /profiles/{id}.
func (h *ProfilesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Profile(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, "api.profiles.get", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleReplace handles PUT /profiles/{id}. The path id wins over any id in
// the body.
func (h *ProfilesHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var p profile.Named
	if err := decodeJSON(w, r, &p); err != nil {
		respondError(w, "api.profiles.replace", WrapKind("api.profiles.replace", ErrBadRequest, err))
		return
	}
	p.ID = r.PathValue("id")

	stored, err := h.deps.PutProfile(r.Context(), p)
	if err != nil {
		respondError(w, "api.profiles.replace", err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// HandleDelete handles DELETE /profiles/{id}.
func (h *ProfilesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteProfile(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, "api.profiles.delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAt handles GET /profiles/{id}/at?z=<depth>.
func (h *ProfilesHandler) HandleAt(w http.ResponseWriter, r *http.Request) {
	z, err := queryFloat(r, "z")
	if err != nil {
		respondError(w, "api.profiles.at", WrapKind("api.profiles.at", ErrBadRequest, err))
		return
	}

	pt, err := h.deps.ProfileAt(r.Context(), r.PathValue("id"), z)
	if err != nil {
		respondError(w, "api.profiles.at", err)
		return
	}
	writeJSON(w, http.StatusOK, pt)
}
