package httpapi

import "net/http"

type subscribeRequest struct {
	Email string `json:"email"`
}

type subscribeResponse struct {
	Message           string `json:"message"`
	AlreadySubscribed bool   `json:"already_subscribed"`
	Reactivated       bool   `json:"reactivated"`
}

func (h *Handlers) subscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req subscribeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.Newsletter.Subscribe(req.Email)
	if err != nil {
		respondError(w, err)
		return
	}

	msg := "subscribed"
	if res.AlreadySubscribed {
		msg = "already subscribed"
	}
	respondJSON(w, http.StatusOK, subscribeResponse{
		Message:           msg,
		AlreadySubscribed: res.AlreadySubscribed,
		Reactivated:       res.Reactivated,
	})
}

// unsubscribe is a GET so it can be linked directly from an email footer.
func (h *Handlers) unsubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "token is required"})
		return
	}
	if err := h.Newsletter.Unsubscribe(token); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "unsubscribed"})
}
