package main

import (
	"chat-guard/domain"
	"chat-guard/repositories"
	"chat-guard/storage"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	feed := storage.NewBadger(db, logger)

	messages, err := repositories.NewMessageRepository(feed, logger).Read(ctx)
	if err != nil {
		log.Fatal(err)
	}
	blocked, err := repositories.NewBlockedRepository(feed, logger).Read(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s: %d\n", repositories.MessagesKey, len(messages))
	renderMessages(messages)
	fmt.Printf("\n%s: %v\n", repositories.BlockedUsersKey, blocked)

	users, err := listKeys(db, "user:")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\nusers: %s\n", strings.Join(users, ", "))
}

func renderMessages(messages []domain.Message) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "User", "Username", "Role", "Timestamp", "Edited", "Text"})
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

	for _, m := range messages {
		edited := ""
		if m.Edited() {
			edited = m.EditedAt.Format("15:04:05")
		}
		table.Append([]string{
			m.ID,
			m.UserID,
			m.Username,
			string(m.Role),
			m.Timestamp.Format("2006-01-02 15:04:05"),
			edited,
			m.Text,
		})
	}
	table.Render()
}

// listKeys returns the keys under prefix without their prefix.
func listKeys(db *badger.DB, prefix string) ([]string, error) {
	var keys []string
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), prefix))
		}
		return nil
	})
	return keys, err
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil {
		// A dirty shutdown leaves a log needing a truncate, only a writable open does it
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}
			_ = db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
