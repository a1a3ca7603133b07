package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"pairchat/infrastructure/grpc/client"
	"pairchat/infrastructure/grpc/wire"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const usage = `usage: client <command> [args]

  register <handle> <email> <password>
  signin   <handle> <password>
  users
  search   <query>
  send     <from> <to> <message...>     (prefix the message with emoji: to send an emoji)
  history  <from> <to>
  roster   <handle>`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	color.Enable = config.Colours

	conn, err := dial(config)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return execute(ctx, client.NewPairChatClient(conn), args)
}

func dial(config Config) (*grpc.ClientConn, error) {
	options := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if config.Debug {
		options = append(options, grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any,
			cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)
			fmt.Fprintln(os.Stderr, color.Gray.Sprintf("GRPC %s [%s] in %v", method, status.Code(err), time.Since(start)))
			return err
		}))
	}
	conn, err := grpc.NewClient(config.ServerAddr, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", config.ServerAddr, err)
	}
	return conn, nil
}

func execute(ctx context.Context, c *client.PairChatClient, args []string) error {
	command, args := args[0], args[1:]
	switch {
	case command == "register" && len(args) == 3:
		user, err := c.Register(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Println(color.Green.Sprintf("Registered %s (%s)", user.Handle, user.ID))
	case command == "signin" && len(args) == 2:
		user, err := c.SignIn(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(color.Green.Sprintf("Signed in as %s", user.Handle))
	case command == "users" && len(args) == 0:
		users, err := c.ListUsers(ctx)
		if err != nil {
			return err
		}
		printUsers(users)
	case command == "search" && len(args) == 1:
		users, err := c.SearchUsers(ctx, args[0])
		if err != nil {
			return err
		}
		printUsers(users)
	case command == "send" && len(args) >= 3:
		content, messageType := strings.Join(args[2:], " "), "text"
		if rest, ok := strings.CutPrefix(content, "emoji:"); ok {
			content, messageType = rest, "emoji"
		}
		sent, err := c.SendMessage(ctx, wire.SendMessageRequest{From: args[0], To: args[1], Content: content, Type: messageType})
		if err != nil {
			return err
		}
		fmt.Println(color.Green.Sprintf("Sent #%d at %s", sent.Position, sent.CreatedAt.Local().Format(time.TimeOnly)))
	case command == "history" && len(args) == 2:
		messages, err := c.FetchConversation(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		printHistory(args[0], messages)
	case command == "roster" && len(args) == 1:
		entries, err := c.Roster(ctx, args[0])
		if err != nil {
			return err
		}
		printRoster(entries)
	default:
		return errors.New(usage)
	}
	return nil
}

func newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetColumnSeparator("")
	table.SetTablePadding("\t")
	return table
}

func printUsers(users []wire.User) {
	table := newTable("Handle", "ID")
	for _, user := range users {
		table.Append([]string{color.Cyan.Sprint(user.Handle), user.ID})
	}
	table.Render()
}

func printHistory(me string, messages []wire.HistoryMessage) {
	if len(messages) == 0 {
		fmt.Println(color.Gray.Sprint("No messages yet"))
		return
	}
	table := newTable("At", "From", "Message")
	for _, message := range messages {
		sender := color.Cyan.Sprint(message.Sender)
		if message.Sender == me {
			sender = color.Green.Sprint(message.Sender)
		}
		table.Append([]string{message.CreatedAt.Local().Format(time.DateTime), sender, message.Content})
	}
	table.Render()
}

func printRoster(entries []wire.RosterEntry) {
	table := newTable("Contact", "Latest")
	for _, entry := range entries {
		latest := color.Gray.Sprint("-")
		if entry.LatestMessage != nil {
			latest = *entry.LatestMessage
		}
		table.Append([]string{color.Cyan.Sprint(entry.Contact.Handle), latest})
	}
	table.Render()
}
