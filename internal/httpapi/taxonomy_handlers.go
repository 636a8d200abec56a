package httpapi

import (
	"net/http"
	"strings"

	"github.com/nstepa/inkpost/internal/auth"
	"github.com/nstepa/inkpost/internal/taxonomy"
	"github.com/nstepa/inkpost/models"
)

type createCategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

type createTagRequest struct {
	Name string `json:"name"`
}

type categoryResponse struct {
	*models.Category
	PostCount int `json:"post_count"`
}

type tagResponse struct {
	*models.Tag
	PostCount int `json:"post_count"`
}

func (h *Handlers) categoriesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cats, err := h.Taxonomy.ListCategories()
		if err != nil {
			respondError(w, err)
			return
		}
		out := make([]categoryResponse, 0, len(cats))
		for _, cat := range cats {
			count, err := h.Taxonomy.CategoryPostCount(cat.ID)
			if err != nil {
				respondError(w, err)
				return
			}
			out = append(out, categoryResponse{Category: cat, PostCount: count})
		}
		respondJSON(w, http.StatusOK, out)

	case http.MethodPost:
		if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
			respondUnauthorized(w)
			return
		}
		var req createCategoryRequest
		if !decodeBody(w, r, &req) {
			return
		}
		cat, err := h.Taxonomy.CreateCategory(r.Context(), taxonomy.CategoryInput{
			Name:        req.Name,
			Slug:        req.Slug,
			Description: req.Description,
			Icon:        req.Icon,
			Color:       req.Color,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, cat)

	default:
		methodNotAllowed(w)
	}
}

// categoryRoutes dispatches /api/categories/{slug} and .../posts.
func (h *Handlers) categoryRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/categories/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if parts[0] == "" {
		notFound(w)
		return
	}

	switch {
	case len(parts) == 1:
		cat, err := h.Taxonomy.GetCategoryBySlug(parts[0])
		if err != nil {
			respondError(w, err)
			return
		}
		count, err := h.Taxonomy.CategoryPostCount(cat.ID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, categoryResponse{Category: cat, PostCount: count})

	case len(parts) == 2 && parts[1] == "posts":
		limit, offset := pagination(r)
		posts, err := h.Posts.ListByCategory(parts[0], limit, offset)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, posts)

	default:
		notFound(w)
	}
}

func (h *Handlers) tagsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		tags, err := h.Taxonomy.ListTags()
		if err != nil {
			respondError(w, err)
			return
		}
		out := make([]tagResponse, 0, len(tags))
		for _, tag := range tags {
			count, err := h.Taxonomy.TagPostCount(tag.ID)
			if err != nil {
				respondError(w, err)
				return
			}
			out = append(out, tagResponse{Tag: tag, PostCount: count})
		}
		respondJSON(w, http.StatusOK, out)

	case http.MethodPost:
		if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
			respondUnauthorized(w)
			return
		}
		var req createTagRequest
		if !decodeBody(w, r, &req) {
			return
		}
		tag, err := h.Taxonomy.CreateTag(r.Context(), req.Name)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, tag)

	default:
		methodNotAllowed(w)
	}
}

// tagRoutes dispatches /api/tags/{slug} and .../posts.
func (h *Handlers) tagRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/tags/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if parts[0] == "" {
		notFound(w)
		return
	}

	switch {
	case len(parts) == 1:
		tag, err := h.Taxonomy.GetTagBySlug(parts[0])
		if err != nil {
			respondError(w, err)
			return
		}
		count, err := h.Taxonomy.TagPostCount(tag.ID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, tagResponse{Tag: tag, PostCount: count})

	case len(parts) == 2 && parts[1] == "posts":
		limit, offset := pagination(r)
		posts, err := h.Posts.ListByTag(parts[0], limit, offset)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, posts)

	default:
		notFound(w)
	}
}
