// Package wire declares the PairChat gRPC contract: service and method names
// and the request/response bodies exchanged by server and client.
package wire

import "time"

const ServiceName = "pairchat.v1.PairChat"

const (
	MethodRegister          = "Register"
	MethodSignIn            = "SignIn"
	MethodListUsers         = "ListUsers"
	MethodSearchUsers       = "SearchUsers"
	MethodSendMessage       = "SendMessage"
	MethodFetchConversation = "FetchConversation"
	MethodRoster            = "Roster"
)

// FullMethod returns the "/service/method" path used on the wire.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type User struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
}

type RegisterRequest struct {
	Handle   string `json:"handle"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

type UserResponse struct {
	User User `json:"user"`
}

type ListUsersRequest struct{}

type SearchUsersRequest struct {
	Query string `json:"query"`
}

type UsersResponse struct {
	Users []User `json:"users"`
}

type SendMessageRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

type SendMessageResponse struct {
	MessageID string    `json:"message_id"`
	Position  uint64    `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

type FetchConversationRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type HistoryMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type FetchConversationResponse struct {
	Messages []HistoryMessage `json:"messages"`
}

type RosterRequest struct {
	Handle string `json:"handle"`
}

// RosterEntry has a nil LatestMessage when the two users never talked.
type RosterEntry struct {
	Contact       User    `json:"contact"`
	LatestMessage *string `json:"latest_message"`
}

type RosterResponse struct {
	Entries []RosterEntry `json:"entries"`
}
