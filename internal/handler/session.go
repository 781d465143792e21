package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/AlexZinkM/emotes-portal/internal/model"
	"github.com/AlexZinkM/emotes-portal/internal/session"

	"github.com/gagliardetto/solana-go"
)

// Session is the controller surface exposed to the presentation layer
type Session interface {
	Snapshot() session.State
	BaseAccount() solana.PublicKey
	Connect(ctx context.Context) error
	SetInput(value string)
	Submit(ctx context.Context) error
	Initialize(ctx context.Context) error
}

// SessionHandler serves the session state and forwards user intents
type SessionHandler struct {
	session Session
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(s Session) *SessionHandler {
	return &SessionHandler{session: s}
}

// State handles GET /session
// @Summary      Get session state
// @Description  Returns wallet presence, connected identity, gif list and input buffer
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.SessionResponse
// @Router       /session [get]
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	h.writeState(w, http.StatusOK)
}

// Connect handles POST /session/connect
// @Summary      Connect wallet
// @Description  Asks the wallet for an interactive connection, then loads the gif list
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.SessionResponse
// @Failure      403  {object}  model.ErrorResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /session/connect [post]
func (h *SessionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	if err := h.session.Connect(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

// Input handles PUT /session/input
// @Summary      Edit input buffer
// @Description  Replaces the pending gif link
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request  body      model.InputRequest  true  "New input value"
// @Success      200      {object}  model.SessionResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /session/input [put]
func (h *SessionHandler) Input(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed. Should be PUT", http.StatusMethodNotAllowed)
		return
	}

	var req model.InputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}

	h.session.SetInput(req.Value)
	h.writeState(w, http.StatusOK)
}

// Submit handles POST /session/submit
// @Summary      Submit gif link
// @Description  Appends the input buffer to the shared list and refreshes it
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.SessionResponse
// @Failure      400  {object}  model.ErrorResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /session/submit [post]
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	if err := h.session.Submit(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

// Initialize handles POST /session/initialize
// @Summary      Create the shared account
// @Description  One-time initialization of the on-chain account holding the gif list
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.SessionResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /session/initialize [post]
func (h *SessionHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	if err := h.session.Initialize(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

func (h *SessionHandler) writeState(w http.ResponseWriter, status int) {
	s := h.session.Snapshot()

	resp := model.SessionResponse{
		Phase:       string(s.Phase),
		Presence:    s.Wallet.Presence,
		Trusted:     s.Wallet.Trusted,
		ListStatus:  string(s.ListStatus),
		ListSource:  string(s.ListSource),
		Gifs:        s.Gifs,
		Input:       s.Input,
		BaseAccount: h.session.BaseAccount().String(),
	}
	if s.Wallet.PublicKey != nil {
		resp.PublicKey = s.Wallet.PublicKey.String()
	}
	if s.Failure != nil {
		resp.Failure = &model.Failure{
			Op:      s.Failure.Op,
			Kind:    string(s.Failure.Kind),
			Message: s.Failure.Err.Error(),
		}
	}

	writeJSON(w, status, resp)
}

func writeError(w http.ResponseWriter, err error) {
	kind := session.KindOf(err)
	writeJSON(w, statusFor(kind), model.ErrorResponse{Error: err.Error(), Code: string(kind)})
}

func statusFor(kind session.FailureKind) int {
	switch kind {
	case session.FailureValidation:
		return http.StatusBadRequest
	case session.FailureConnectRejected, session.FailureSignatureRejected:
		return http.StatusForbidden
	case session.FailureProviderAbsent, session.FailureNotConnected, session.FailureAlreadyExists:
		return http.StatusConflict
	case session.FailureAccountNotFound:
		return http.StatusNotFound
	case session.FailureNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
