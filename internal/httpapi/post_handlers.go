package httpapi

import (
	"net/http"
	"strings"

	"github.com/nstepa/inkpost/internal/auth"
	"github.com/nstepa/inkpost/internal/post"
)

const relatedLimit = 3

type createPostRequest struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Content         string   `json:"content"`
	Excerpt         string   `json:"excerpt"`
	FeaturedImage   string   `json:"featured_image"`
	MetaDescription string   `json:"meta_description"`
	Status          string   `json:"status"`
	CategoryID      *uint    `json:"category_id"`
	Tags            []string `json:"tags"`
	AllowComments   *bool    `json:"allow_comments"`
}

type updatePostRequest struct {
	Title           *string   `json:"title"`
	Slug            *string   `json:"slug"`
	Content         *string   `json:"content"`
	Excerpt         *string   `json:"excerpt"`
	FeaturedImage   *string   `json:"featured_image"`
	MetaDescription *string   `json:"meta_description"`
	Status          *string   `json:"status"`
	CategoryID      *uint     `json:"category_id"`
	ClearCategory   bool      `json:"clear_category"`
	Tags            *[]string `json:"tags"`
	AllowComments   *bool     `json:"allow_comments"`
}

// postsCollection serves /api/posts: the public feed on GET, creation on POST.
// GET also understands drafts=true, featured=true and q= for the author's
// drafts, the most viewed posts and full-text search.
func (h *Handlers) postsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit, offset := pagination(r)
		query := r.URL.Query()

		switch {
		case query.Get("drafts") == "true":
			if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
				respondUnauthorized(w)
				return
			}
			posts, err := h.Posts.ListDrafts(r.Context(), limit, offset)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, posts)

		case query.Get("featured") == "true":
			posts, err := h.Posts.Featured(limit)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, posts)

		case query.Get("q") != "":
			posts, err := h.Posts.Search(query.Get("q"), limit, offset)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, posts)

		default:
			posts, err := h.Posts.ListPublished(limit, offset)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, posts)
		}

	case http.MethodPost:
		if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
			respondUnauthorized(w)
			return
		}
		var req createPostRequest
		if !decodeBody(w, r, &req) {
			return
		}
		p, err := h.Posts.Create(r.Context(), post.CreateInput{
			Title:           req.Title,
			Slug:            req.Slug,
			Content:         req.Content,
			Excerpt:         req.Excerpt,
			FeaturedImage:   req.FeaturedImage,
			MetaDescription: req.MetaDescription,
			Status:          req.Status,
			CategoryID:      req.CategoryID,
			Tags:            req.Tags,
			AllowComments:   req.AllowComments,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, p)

	default:
		methodNotAllowed(w)
	}
}

// postRoutes dispatches /api/posts/{slug} and /api/posts/{id}/... paths.
// Numeric first segments address a post by ID for mutations and sub-resources;
// anything else is a slug lookup.
func (h *Handlers) postRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if parts[0] == "" {
		notFound(w)
		return
	}

	id, numeric := parseID(parts[0])
	if !numeric {
		if len(parts) != 1 || r.Method != http.MethodGet {
			notFound(w)
			return
		}
		h.getPost(w, r, parts[0])
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodPut:
			h.updatePost(w, r, id)
		case http.MethodDelete:
			h.deletePost(w, r, id)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) != 2 {
		notFound(w)
		return
	}

	switch parts[1] {
	case "publish":
		h.setPostStatus(w, r, id, true)
	case "unpublish":
		h.setPostStatus(w, r, id, false)
	case "related":
		h.relatedPosts(w, r, id)
	case "view":
		h.recordView(w, r, id)
	case "comments":
		h.postComments(w, r, id)
	case "stream":
		h.streamComments(w, r, id)
	default:
		notFound(w)
	}
}

func (h *Handlers) getPost(w http.ResponseWriter, r *http.Request, slug string) {
	p, err := h.Posts.GetBySlug(r.Context(), slug)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) updatePost(w http.ResponseWriter, r *http.Request, id uint) {
	if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
		respondUnauthorized(w)
		return
	}
	var req updatePostRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.Posts.Update(r.Context(), id, post.UpdateInput{
		Title:           req.Title,
		Slug:            req.Slug,
		Content:         req.Content,
		Excerpt:         req.Excerpt,
		FeaturedImage:   req.FeaturedImage,
		MetaDescription: req.MetaDescription,
		Status:          req.Status,
		CategoryID:      req.CategoryID,
		ClearCategory:   req.ClearCategory,
		Tags:            req.Tags,
		AllowComments:   req.AllowComments,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) deletePost(w http.ResponseWriter, r *http.Request, id uint) {
	if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
		respondUnauthorized(w)
		return
	}
	if err := h.Posts.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) setPostStatus(w http.ResponseWriter, r *http.Request, id uint, publish bool) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
		respondUnauthorized(w)
		return
	}

	var (
		p   interface{}
		err error
	)
	if publish {
		p, err = h.Posts.Publish(r.Context(), id)
	} else {
		p, err = h.Posts.Unpublish(r.Context(), id)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) relatedPosts(w http.ResponseWriter, r *http.Request, id uint) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	posts, err := h.Posts.Related(r.Context(), id, relatedLimit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, posts)
}

func (h *Handlers) recordView(w http.ResponseWriter, r *http.Request, id uint) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := h.Posts.RecordView(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
