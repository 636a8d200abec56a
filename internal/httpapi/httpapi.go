package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/nstepa/inkpost/internal/comment"
	"github.com/nstepa/inkpost/internal/newsletter"
	"github.com/nstepa/inkpost/internal/notify"
	"github.com/nstepa/inkpost/internal/post"
	"github.com/nstepa/inkpost/internal/taxonomy"
	"github.com/nstepa/inkpost/internal/user"
	"github.com/nstepa/inkpost/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handlers holds the stores behind the JSON API.
type Handlers struct {
	Posts      post.PostStorage
	Comments   comment.CommentStorage
	Users      user.UserStorage
	Taxonomy   taxonomy.Storage
	Newsletter newsletter.Storage
	Notifier   notify.Manager
}

func NewHandlers(
	posts post.PostStorage,
	comments comment.CommentStorage,
	users user.UserStorage,
	tax taxonomy.Storage,
	news newsletter.Storage,
	notifier notify.Manager,
) *Handlers {
	return &Handlers{
		Posts:      posts,
		Comments:   comments,
		Users:      users,
		Taxonomy:   tax,
		Newsletter: news,
		Notifier:   notifier,
	}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/register", h.register)
	mux.HandleFunc("/api/login", h.login)
	mux.HandleFunc("/api/profile", h.updateProfile)
	mux.HandleFunc("/api/users/", h.userRoutes)

	mux.HandleFunc("/api/posts", h.postsCollection)
	mux.HandleFunc("/api/posts/", h.postRoutes)

	mux.HandleFunc("/api/comments/recent", h.recentComments)
	mux.HandleFunc("/api/comments/", h.commentRoutes)

	mux.HandleFunc("/api/categories", h.categoriesCollection)
	mux.HandleFunc("/api/categories/", h.categoryRoutes)
	mux.HandleFunc("/api/tags", h.tagsCollection)
	mux.HandleFunc("/api/tags/", h.tagRoutes)

	mux.HandleFunc("/api/newsletter/subscribe", h.subscribe)
	mux.HandleFunc("/api/newsletter/unsubscribe", h.unsubscribe)
}

// WithRecover keeps a panicking handler from taking the server down.
func WithRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				respondError(w, errors.New("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("could not encode response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps storage errors onto HTTP statuses. Unrecognized errors
// are logged and reported as a bare 500 so internals never leak.
func respondError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
	default:
		log.Printf("internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

func respondUnauthorized(w http.ResponseWriter) {
	respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
}

func methodNotAllowed(w http.ResponseWriter) {
	respondJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func notFound(w http.ResponseWriter) {
	respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

// pagination reads limit/offset query parameters with sane bounds.
func pagination(r *http.Request) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
