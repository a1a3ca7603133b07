package client

import (
	"context"
	"log/slog"
	"net"
	"pairchat/errors"
	"pairchat/infrastructure/grpc/server"
	"pairchat/infrastructure/grpc/wire"
	"pairchat/observability"
	"pairchat/repositories"
	"pairchat/services"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	sdkgrpc "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024 * 1024

type PairChatSuite struct {
	suite.Suite
	db         *badger.DB
	grpcServer *grpc.Server
	conn       *grpc.ClientConn
	monitoring *observability.MonitoringManager
	client     *PairChatClient
}

func TestPairChatSuite(t *testing.T) {
	suite.Run(t, new(PairChatSuite))
}

func (s *PairChatSuite) SetupTest() {
	req := s.Require()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	s.db = db

	users := repositories.NewUserRepository(db, log)
	conversations := repositories.NewConversationRepository(db, log)
	chatService := services.NewChatService(log, users, conversations, services.NewScanRoster(users, conversations), 1000)
	directoryService := services.NewDirectoryService(users, log)

	s.monitoring, err = observability.NewMonitoringManager(log, time.Minute)
	req.NoError(err)

	listener := bufconn.Listen(bufSize)
	s.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(
		sdkgrpc.UnaryLoggingInterceptor(log),
		server.MonitoringInterceptor(s.monitoring),
	))
	server.RegisterPairChatServer(s.grpcServer, server.NewChatServer(log, chatService, directoryService))
	go func() { _ = s.grpcServer.Serve(listener) }()

	s.conn, err = grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	req.NoError(err)
	s.client = NewPairChatClient(s.conn)
}

func (s *PairChatSuite) TearDownTest() {
	_ = s.conn.Close()
	s.grpcServer.Stop()
	_ = s.db.Close()
}

func (s *PairChatSuite) register(handles ...string) {
	for _, handle := range handles {
		_, err := s.client.Register(context.Background(), handle, handle+"@pairchat.dev", "correct horse")
		s.Require().NoError(err)
	}
}

func (s *PairChatSuite) send(from, to, content string) wire.SendMessageResponse {
	resp, err := s.client.SendMessage(context.Background(), wire.SendMessageRequest{From: from, To: to, Content: content})
	s.Require().NoError(err)
	return resp
}

func (s *PairChatSuite) TestConversationRoundTrip() {
	req := s.Require()
	ctx := context.Background()
	s.register("alice", "bob")

	first := s.send("alice", "bob", "hey")
	second := s.send("bob", "alice", "yo")
	req.Equal(uint64(1), first.Position)
	req.Equal(uint64(2), second.Position)

	messages, err := s.client.FetchConversation(ctx, "bob", "alice")
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("alice", messages[0].Sender)
	req.Equal("hey", messages[0].Content)
	req.Equal("text", messages[0].Type)
	req.Equal("bob", messages[1].Sender)
	req.Equal("yo", messages[1].Content)
}

func (s *PairChatSuite) TestRosterAndSearch() {
	req := s.Require()
	ctx := context.Background()
	s.register("alice", "bob", "carol")
	s.send("alice", "bob", "hi")

	entries, err := s.client.Roster(ctx, "alice")
	req.NoError(err)
	req.Len(entries, 2)
	req.Equal("bob", entries[0].Contact.Handle)
	req.NotNil(entries[0].LatestMessage)
	req.Equal("hi", *entries[0].LatestMessage)
	req.Equal("carol", entries[1].Contact.Handle)
	req.Nil(entries[1].LatestMessage)

	users, err := s.client.SearchUsers(ctx, "CAR")
	req.NoError(err)
	req.Len(users, 1)
	req.Equal("carol", users[0].Handle)

	users, err = s.client.ListUsers(ctx)
	req.NoError(err)
	req.Len(users, 3)
}

func (s *PairChatSuite) TestErrorsKeepTheirKind() {
	req := s.Require()
	ctx := context.Background()
	s.register("alice")

	_, err := s.client.SendMessage(ctx, wire.SendMessageRequest{From: "alice", To: "ghost", Content: "hey"})
	req.ErrorIs(err, errors.ErrNotFound)
	req.Equal("user(s) not found", err.Error())

	_, err = s.client.SendMessage(ctx, wire.SendMessageRequest{From: "alice", To: "alice", Content: "   "})
	req.ErrorIs(err, errors.ErrInvalidArgument)

	_, err = s.client.Register(ctx, "alice", "other@pairchat.dev", "correct horse")
	req.ErrorIs(err, errors.ErrConflict)

	_, err = s.client.SignIn(ctx, "alice", "wrong password")
	req.ErrorIs(err, errors.ErrUnauthenticated)

	user, err := s.client.SignIn(ctx, "alice", "correct horse")
	req.NoError(err)
	req.Equal("alice", user.Handle)

	stats := s.monitoring.GetLatest()
	req.Equal(uint64(6), stats.Requests)
	req.Equal(uint64(4), stats.Failures)
}

func (s *PairChatSuite) TestConcurrentFirstContact() {
	req := s.Require()
	ctx := context.Background()
	s.register("alice", "bob")

	const senders = 16
	var wg sync.WaitGroup
	errs := make([]error, senders)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := "alice", "bob"
			if i%2 == 1 {
				from, to = to, from
			}
			_, errs[i] = s.client.SendMessage(ctx, wire.SendMessageRequest{From: from, To: to, Content: "hello"})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		req.NoError(err)
	}

	messages, err := s.client.FetchConversation(ctx, "alice", "bob")
	req.NoError(err)
	req.Len(messages, senders)
	for i := 1; i < len(messages); i++ {
		req.False(messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
	}
}

func (s *PairChatSuite) TestCallsNeedTheJSONContentSubtype() {
	req := s.Require()
	var out wire.UsersResponse

	err := s.conn.Invoke(context.Background(), wire.FullMethod(wire.MethodListUsers), &wire.ListUsersRequest{}, &out)

	req.Error(err)
	req.Equal(codes.Internal, status.Code(err))

	err = s.conn.Invoke(context.Background(), wire.FullMethod(wire.MethodListUsers), &wire.ListUsersRequest{}, &out,
		grpc.CallContentSubtype(wire.CodecName))
	req.NoError(err)
	req.NotNil(out.Users)
}
