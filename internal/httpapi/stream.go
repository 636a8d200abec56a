package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// streamComments pushes new comments on a post to the client as server-sent
// events until the client disconnects.
func (h *Handlers) streamComments(w http.ResponseWriter, r *http.Request, postID uint) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if h.Notifier == nil {
		notFound(w)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := h.Notifier.Subscribe(postID)
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: comment\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
