package rest

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"pairchat/observability"
	"pairchat/repositories"
	"pairchat/services"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := repositories.NewUserRepository(db, log)
	conversations := repositories.NewConversationRepository(db, log)
	chatService := services.NewChatService(log, users, conversations, services.NewScanRoster(users, conversations), 1000)
	directoryService := services.NewDirectoryService(users, log)
	monitoring, err := observability.NewMonitoringManager(log, time.Minute)
	require.NoError(t, err)

	server := httptest.NewServer(NewRouter(log, chatService, directoryService, monitoring, []string{"http://localhost:5173"}))
	t.Cleanup(server.Close)
	return server
}

func call(t *testing.T, server *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	request, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")
	response, err := server.Client().Do(request)
	require.NoError(t, err)
	defer response.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(response.Body).Decode(out))
	}
	return response.StatusCode
}

func signUp(t *testing.T, server *httptest.Server, usernames ...string) {
	t.Helper()
	for _, username := range usernames {
		status := call(t, server, http.MethodPost, "/signup",
			SignUpRequest{Username: username, Email: username + "@pairchat.dev", Password: "correct horse"}, nil)
		require.Equal(t, http.StatusCreated, status)
	}
}

func TestRouter_Conversation(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	signUp(t, server, "alice", "bob")

	var sent SendMessageResponse
	status := call(t, server, http.MethodPost, "/sendmessage/alice/bob", SendMessageRequest{Message: "hey"}, &sent)
	req.Equal(http.StatusCreated, status)
	req.Equal("Message sent successfully", sent.Message)
	req.Equal(uint64(1), sent.Position)

	status = call(t, server, http.MethodPost, "/sendmessage/bob/alice",
		SendMessageRequest{Message: "🎉", MessageType: "emoji"}, nil)
	req.Equal(http.StatusCreated, status)

	var conversation ConversationResponse
	status = call(t, server, http.MethodGet, "/getconversation/bob/alice", nil, &conversation)
	req.Equal(http.StatusOK, status)
	req.Len(conversation.Messages, 2)
	req.Equal("alice", conversation.Messages[0].Sender)
	req.Equal("text", conversation.Messages[0].MessageType)
	req.Equal("bob", conversation.Messages[1].Sender)
	req.Equal("emoji", conversation.Messages[1].MessageType)
}

func TestRouter_Empty_Conversation_Has_An_Empty_List(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	signUp(t, server, "alice", "bob")

	response, err := server.Client().Get(server.URL + "/getconversation/alice/bob")
	req.NoError(err)
	defer response.Body.Close()

	var raw map[string]json.RawMessage
	req.NoError(json.NewDecoder(response.Body).Decode(&raw))
	req.Equal(http.StatusOK, response.StatusCode)
	req.JSONEq(`[]`, string(raw["messages"]))
}

func TestRouter_Latest(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	signUp(t, server, "alice", "bob", "carol")
	call(t, server, http.MethodPost, "/sendmessage/bob/alice", SendMessageRequest{Message: "hi"}, nil)

	var latest []LatestResponse
	status := call(t, server, http.MethodGet, "/latest/alice", nil, &latest)

	req.Equal(http.StatusOK, status)
	req.Len(latest, 2)
	req.Equal("bob", latest[0].Username)
	req.Equal("hi", *latest[0].LatestMessage)
	req.Equal("carol", latest[1].Username)
	req.Nil(latest[1].LatestMessage)
}

func TestRouter_Search_And_Listing(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	signUp(t, server, "alice", "Malika", "bob")

	var found UsersResponse
	status := call(t, server, http.MethodGet, "/search/ALI", nil, &found)
	req.Equal(http.StatusOK, status)
	req.Len(found.Users, 2)
	req.Equal("alice", found.Users[0].Username)
	req.Equal("Malika", found.Users[1].Username)

	var all UsersResponse
	status = call(t, server, http.MethodGet, "/", nil, &all)
	req.Equal(http.StatusOK, status)
	req.Len(all.Users, 3)
}

func TestRouter_Errors(t *testing.T) {
	server := newTestServer(t)
	signUp(t, server, "alice")

	tests := []struct {
		description string
		method      string
		path        string
		body        any
		wantStatus  int
		wantError   string
	}{
		{"unknown recipient", http.MethodPost, "/sendmessage/alice/ghost", SendMessageRequest{Message: "hey"}, http.StatusNotFound, "user(s) not found"},
		{"unknown recipient and blank message", http.MethodPost, "/sendmessage/alice/ghost", SendMessageRequest{Message: ""}, http.StatusNotFound, "user(s) not found"},
		{"unknown conversation side", http.MethodGet, "/getconversation/ghost/alice", nil, http.StatusNotFound, "user(s) not found"},
		{"blank message", http.MethodPost, "/sendmessage/alice/alice", SendMessageRequest{Message: "  "}, http.StatusBadRequest, "message content is empty"},
		{"unsupported type", http.MethodPost, "/sendmessage/alice/alice", SendMessageRequest{Message: "x", MessageType: "gif"}, http.StatusBadRequest, "message type must be text or emoji"},
		{"duplicate user", http.MethodPost, "/signup", SignUpRequest{Username: "alice", Email: "a@pairchat.dev", Password: "correct horse"}, http.StatusConflict, "email or username already exists"},
		{"missing fields", http.MethodPost, "/signup", SignUpRequest{Username: "bob"}, http.StatusBadRequest, "all fields are required"},
		{"bad password", http.MethodPost, "/signin", SignInRequest{Username: "alice", Password: "nope nope"}, http.StatusUnauthorized, "invalid credentials"},
		{"unknown user sign in", http.MethodPost, "/signin", SignInRequest{Username: "ghost", Password: "nope nope"}, http.StatusNotFound, "user not found"},
		{"unknown roster owner", http.MethodGet, "/latest/ghost", nil, http.StatusNotFound, "user not found"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)
			var body ErrorResponse
			status := call(t, server, tt.method, tt.path, tt.body, &body)
			req.Equal(tt.wantStatus, status)
			req.Equal(tt.wantError, body.Error)
		})
	}
}

func TestRouter_Invalid_Json(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	response, err := server.Client().Post(server.URL+"/signin", "application/json", strings.NewReader("{"))
	req.NoError(err)
	defer response.Body.Close()

	req.Equal(http.StatusBadRequest, response.StatusCode)
}

func TestRouter_Health(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	call(t, server, http.MethodGet, "/", nil, nil)

	var stats observability.Stats
	status := call(t, server, http.MethodGet, "/healthz", nil, &stats)

	req.Equal(http.StatusOK, status)
	req.Equal("ok", stats.Status)
	req.GreaterOrEqual(stats.Requests, uint64(1))
	req.NotZero(stats.Pid)
}

func TestRouter_Cors_Preflight(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	request, err := http.NewRequest(http.MethodOptions, server.URL+"/signin", nil)
	req.NoError(err)
	request.Header.Set("Origin", "http://localhost:5173")
	request.Header.Set("Access-Control-Request-Method", http.MethodPost)
	response, err := server.Client().Do(request)
	req.NoError(err)
	defer response.Body.Close()

	req.Equal("http://localhost:5173", response.Header.Get("Access-Control-Allow-Origin"))
}
