package httpapi

import (
	"net/http"
	"strings"

	"github.com/nstepa/inkpost/internal/auth"
	"github.com/nstepa/inkpost/internal/user"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type profileUpdateRequest struct {
	Bio                *string `json:"bio"`
	Avatar             *string `json:"avatar"`
	Location           *string `json:"location"`
	Website            *string `json:"website"`
	Twitter            *string `json:"twitter"`
	Github             *string `json:"github"`
	Linkedin           *string `json:"linkedin"`
	IsPublic           *bool   `json:"is_public"`
	EmailNotifications *bool   `json:"email_notifications"`
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := h.Users.Register(req.Username, req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	token, err := h.Users.Login(req.Username, req.Password)
	if err != nil {
		// Credential failures are deliberately indistinct.
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid username or password"})
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
		respondUnauthorized(w)
		return
	}
	var req profileUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	profile, err := h.Users.UpdateProfile(r.Context(), user.ProfileUpdate{
		Bio:                req.Bio,
		Avatar:             req.Avatar,
		Location:           req.Location,
		Website:            req.Website,
		Twitter:            req.Twitter,
		Github:             req.Github,
		Linkedin:           req.Linkedin,
		IsPublic:           req.IsPublic,
		EmailNotifications: req.EmailNotifications,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// userRoutes dispatches /api/users/{username} and its sub-resources.
func (h *Handlers) userRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/users/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if parts[0] == "" {
		notFound(w)
		return
	}
	username := parts[0]

	if len(parts) == 1 {
		u, err := h.Users.GetByUsername(r.Context(), username)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, u)
		return
	}

	if len(parts) != 2 {
		notFound(w)
		return
	}

	switch parts[1] {
	case "posts":
		limit, offset := pagination(r)
		posts, err := h.Posts.ListByAuthor(username, limit, offset)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, posts)

	case "stats":
		u, err := h.Users.GetByUsername(r.Context(), username)
		if err != nil {
			respondError(w, err)
			return
		}
		stats, err := h.Users.Stats(u.ID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, stats)

	default:
		notFound(w)
	}
}
