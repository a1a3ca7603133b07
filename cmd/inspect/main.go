package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"pairchat/repositories"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// inspect dumps a pairchat badger directory without a running server.
//
//	inspect -db ./data                     every key, decoded
//	inspect -db ./data -prefix user:id:    users only
//	inspect -db ./data -view conversations one row per pair with handles resolved
func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	prefix := flag.String("prefix", "", "Key prefix to scan (raw view)")
	view := flag.String("view", "raw", "raw | conversations")
	flag.Parse()
	if *dbPath == "" {
		log.Fatal("-db is required")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := newTable()
	switch *view {
	case "raw":
		err = rawView(db, *prefix, table)
	case "conversations":
		err = conversationView(db, table)
	default:
		err = fmt.Errorf("unknown view %q", *view)
	}
	if err != nil {
		log.Fatal(err)
	}
	table.Render()
}

func newTable() *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func rawView(db *badger.DB, prefix string, table *tablewriter.Table) error {
	table.SetHeader([]string{"Key", "Kind", "Created", "ID", "Detail"})
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			err := item.Value(func(v []byte) error {
				entry, err := repositories.DescribeEntry(key, v)
				if err != nil {
					// Keep going: one corrupt record should not hide the others.
					fmt.Println(color.Red.Sprintf("Error decoding key %s: %v", key, err))
					return nil
				}
				created := "--"
				if !entry.At.IsZero() {
					created = entry.At.Format("2006-01-02 15:04:05")
				}
				table.Append([]string{key, colorKind(entry.Kind), created, shortID(entry.ID), entry.Detail})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func conversationView(db *badger.DB, table *tablewriter.Table) error {
	log := logs.GetLoggerFromLevel(slog.LevelWarn)
	users, err := repositories.NewUserRepository(db, log).ListUsers()
	if err != nil {
		return err
	}
	handles := make(map[string]string, len(users))
	for _, user := range users {
		handles[user.ID] = user.Handle
	}
	conversations, err := repositories.NewConversationRepository(db, log).ListConversations()
	if err != nil {
		return err
	}

	table.SetHeader([]string{"Conversation", "Between", "Messages", "Latest"})
	for _, conversation := range conversations {
		low, high := conversation.Pair.Members()
		latest := "-"
		if message, ok := conversation.LatestMessage(); ok {
			latest = fmt.Sprintf("%s: %s", handleOf(handles, message.SenderID), message.Content)
		}
		table.Append([]string{
			shortID(conversation.ID.String()),
			handleOf(handles, low) + " / " + handleOf(handles, high),
			fmt.Sprint(len(conversation.Messages)),
			latest,
		})
	}
	return nil
}

func handleOf(handles map[string]string, id string) string {
	if handle, ok := handles[id]; ok {
		return handle
	}
	return color.Yellow.Sprint("Unknown")
}

func colorKind(kind string) string {
	switch kind {
	case "CONVERSATION":
		return color.Green.Sprint(kind)
	case "MESSAGE":
		return color.Blue.Sprint(kind)
	case "USER":
		return color.Cyan.Sprint(kind)
	case "RAW":
		return color.Gray.Sprint(kind)
	}
	return kind
}

// shortID keeps the first 8 characters for readability.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		// Replay the value log once in write mode, then reopen read-only.
		repairOpts := badger.DefaultOptions(path).WithLogger(nil).WithBypassLockGuard(true)
		repaired, repairErr := badger.Open(repairOpts)
		if repairErr != nil {
			return nil, fmt.Errorf("repair failed: %w", repairErr)
		}
		_ = repaired.Close()
		return badger.Open(opts)
	}
	return db, err
}
