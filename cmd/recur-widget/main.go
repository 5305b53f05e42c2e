// Command recur-widget is a small companion process that opens the same
// database as the recur service and prints the current due queue. With
// --watch it polls on an interval; repeated polls within one due period do
// not inflate seen counts.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/dermotcahill/recur/internal/config"
	"github.com/dermotcahill/recur/internal/domain"
	"github.com/dermotcahill/recur/internal/engine"
	"github.com/dermotcahill/recur/internal/queue"
	"github.com/dermotcahill/recur/internal/storage"
)

func main() {
	flags := pflag.NewFlagSet("recur-widget", pflag.ExitOnError)
	configPath := flags.String("config", "recur.yaml", "path to the yaml config file")
	flags.String("db_path", config.Default().DBPath, "path to the sqlite database file")
	categories := flags.String("categories", "", "comma-separated category filter")
	folders := flags.String("folders", "", "comma-separated folder filter, \"none\" for folderless cards")
	watch := flags.Duration("watch", 0, "poll interval; 0 prints once and exits")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	filter, err := parseFilter(*categories, *folders)
	if err != nil {
		slog.Error("bad filter", "error", err)
		os.Exit(1)
	}

	eng := engine.New(db)
	for {
		if err := printQueue(eng, filter, time.Now().UTC()); err != nil {
			slog.Error("failed to fetch queue", "error", err)
			os.Exit(1)
		}
		if *watch <= 0 {
			return
		}
		time.Sleep(*watch)
	}
}

func parseFilter(categories, folders string) (queue.Filter, error) {
	var f queue.Filter
	for _, part := range strings.Split(categories, ",") {
		if part = strings.TrimSpace(part); part != "" {
			cat, err := domain.ParseCategory(part)
			if err != nil {
				return queue.Filter{}, err
			}
			f.Categories = append(f.Categories, cat)
		}
	}
	for _, part := range strings.Split(folders, ",") {
		if part = strings.TrimSpace(part); part != "" {
			f.Folders = append(f.Folders, part)
		}
	}
	return f, nil
}

func printQueue(eng *engine.Engine, f queue.Filter, now time.Time) error {
	res, err := eng.FetchQueue(now, f)
	if err != nil {
		return err
	}
	fmt.Printf("%s — %d due of %d matching\n", now.Format(time.RFC3339), len(res.Queued), res.TotalMatching)
	for _, c := range res.Queued {
		line := c.Text
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		fmt.Printf("  [%s] %-8s %s\n", c.Priority, c.Category, line)
	}
	if res.NextUpcoming != nil {
		fmt.Printf("next up at %s\n", res.NextUpcoming.NextDueAt.Format(time.RFC3339))
	}
	return nil
}
