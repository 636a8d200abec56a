package httpapi

import (
	"net/http"
	"strings"

	"github.com/nstepa/inkpost/internal/auth"
)

const recentCommentsLimit = 10

type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parent_id"`
}

type reactionRequest struct {
	Type string `json:"type"`
}

type approveRequest struct {
	Approved bool `json:"approved"`
}

// postComments serves /api/posts/{id}/comments: the thread on GET, a new
// comment on POST.
func (h *Handlers) postComments(w http.ResponseWriter, r *http.Request, postID uint) {
	switch r.Method {
	case http.MethodGet:
		limit, offset := pagination(r)
		comments, err := h.Comments.ListForPost(postID, limit, offset)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, comments)

	case http.MethodPost:
		if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
			respondUnauthorized(w)
			return
		}
		var req createCommentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		c, err := h.Comments.Create(r.Context(), postID, req.ParentID, req.Content)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, c)

	default:
		methodNotAllowed(w)
	}
}

func (h *Handlers) recentComments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit, _ := pagination(r)
	if limit > recentCommentsLimit {
		limit = recentCommentsLimit
	}
	comments, err := h.Comments.RecentApproved(limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, comments)
}

// commentRoutes dispatches /api/comments/{id} and its sub-resources.
func (h *Handlers) commentRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/comments/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	id, ok := parseID(parts[0])
	if !ok {
		notFound(w)
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
			respondUnauthorized(w)
			return
		}
		if err := h.Comments.Delete(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusNoContent, nil)
		return
	}

	if len(parts) != 2 {
		notFound(w)
		return
	}

	switch parts[1] {
	case "approve":
		h.approveComment(w, r, id)
	case "reactions":
		h.commentReactions(w, r, id)
	default:
		notFound(w)
	}
}

func (h *Handlers) approveComment(w http.ResponseWriter, r *http.Request, id uint) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
		respondUnauthorized(w)
		return
	}
	var req approveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.Comments.SetApproved(r.Context(), id, req.Approved); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// commentReactions serves the aggregate on GET and toggles the caller's
// reaction on POST.
func (h *Handlers) commentReactions(w http.ResponseWriter, r *http.Request, id uint) {
	switch r.Method {
	case http.MethodGet:
		summary, err := h.Comments.ReactionsSummary(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, summary)

	case http.MethodPost:
		if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
			respondUnauthorized(w)
			return
		}
		var req reactionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := h.Comments.React(r.Context(), id, req.Type)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, res)

	default:
		methodNotAllowed(w)
	}
}
