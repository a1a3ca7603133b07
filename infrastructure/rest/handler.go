package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"pairchat/domain"
	"pairchat/errors"
	"pairchat/observability"
	"pairchat/services"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

type Handler struct {
	chatService      services.IChatService
	directoryService services.IDirectoryService
	monitoring       *observability.MonitoringManager
	log              *slog.Logger
}

func NewHandler(log *slog.Logger, chatService services.IChatService, directoryService services.IDirectoryService,
	monitoring *observability.MonitoringManager) *Handler {
	return &Handler{
		chatService:      chatService,
		directoryService: directoryService,
		monitoring:       monitoring,
		log:              log,
	}
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type UsersResponse struct {
	Users []UserResponse `json:"users"`
}

type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type LatestResponse struct {
	Username      string  `json:"username"`
	LatestMessage *string `json:"latestMessage"`
}

type SendMessageRequest struct {
	Message     string `json:"message"`
	MessageType string `json:"messageType"`
}

type SendMessageResponse struct {
	Message   string    `json:"message"`
	MessageID string    `json:"messageId"`
	Position  uint64    `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}

type HistoryMessageResponse struct {
	Sender      string    `json:"sender"`
	Content     string    `json:"content"`
	MessageType string    `json:"messageType"`
	Timestamp   time.Time `json:"timestamp"`
}

type ConversationResponse struct {
	Messages []HistoryMessageResponse `json:"messages"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.directoryService.ListUsers(r.Context())
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, UsersResponse{Users: toUsers(users)})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.JSON(w, http.StatusOK, h.monitoring.GetLatest())
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.directoryService.Register(r.Context(), domain.RegisterCommand{
		Handle:   req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, AuthResponse{Message: "User registered successfully", User: toUser(user)})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.directoryService.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, AuthResponse{Message: "Signin successful", User: toUser(user)})
}

func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.chatService.SearchUsers(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, UsersResponse{Users: toUsers(users)})
}

// Latest returns the roster of username: every other user with the last content exchanged, or null.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	entries, err := h.chatService.Roster(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, lo.Map(entries, func(item domain.RosterEntry, _ int) LatestResponse {
		return LatestResponse{Username: item.Contact.Handle, LatestMessage: item.LatestMessage}
	}))
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !h.decode(w, r, &req) {
		return
	}
	message, err := h.chatService.SendMessage(r.Context(), domain.SendMessageCommand{
		From:    chi.URLParam(r, "from"),
		To:      chi.URLParam(r, "to"),
		Content: req.Message,
		Type:    req.MessageType,
	})
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, SendMessageResponse{
		Message:   "Message sent successfully",
		MessageID: message.ID.String(),
		Position:  message.Position,
		Timestamp: message.CreatedAt,
	})
}

func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	entries, err := h.chatService.FetchConversation(r.Context(), chi.URLParam(r, "from"), chi.URLParam(r, "to"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, ConversationResponse{
		Messages: lo.Map(entries, func(item domain.HistoryEntry, _ int) HistoryMessageResponse {
			return HistoryMessageResponse{
				Sender:      item.SenderHandle,
				Content:     item.Content,
				MessageType: string(item.Type),
				Timestamp:   item.CreatedAt,
			}
		}),
	})
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Warn("Failed to write response", "error", err)
	}
}

// Error answers with the status of err's kind and its public message.
func (h *Handler) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	h.JSON(w, status, ErrorResponse{Error: errors.Public(err)})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.JSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func toUser(user domain.UserRef) UserResponse {
	return UserResponse{ID: user.ID, Username: user.Handle}
}

func toUsers(users []domain.UserRef) []UserResponse {
	return lo.Map(users, func(item domain.UserRef, _ int) UserResponse { return toUser(item) })
}
