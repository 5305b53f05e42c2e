// Package sync reconciles configured card-file sources (local directories and
// git repositories) into the card store. New blocks become cards; blocks that
// disappear from their source archive the matching card. The engine never
// hard-deletes, so removing a block retires its card instead of destroying
// its history.
package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dermotcahill/recur/internal/gitsource"
	"github.com/dermotcahill/recur/internal/importer"
	"github.com/dermotcahill/recur/internal/lifecycle"
	"github.com/dermotcahill/recur/internal/storage"
)

const cardFileSuffix = ".cards"

// Options configures a sync run.
type Options struct {
	// ReposDir is where git sources are cloned.
	ReposDir string
	// DefaultIntervalHours seeds the interval of newly imported cards.
	DefaultIntervalHours int
}

// RunSync iterates over all sources and reconciles them at now.
func RunSync(db *storage.DB, opts Options, now time.Time) error {
	slog.Info("Starting sync process for all sources...")
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with --add-source <path/or/url.git>")
		return nil
	}

	if err := os.MkdirAll(opts.ReposDir, 0o755); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("Syncing source", "id", source.ID, "kind", source.Kind, "path", source.Path)

		scanPath := source.Path
		if source.Kind == "git" {
			localRepoPath, err := gitURLToLocalPath(opts.ReposDir, source.Path)
			if err != nil {
				slog.Error("Error determining local path for git repo", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localRepoPath); err != nil {
				slog.Error("Error syncing git repo", "url", source.Path, "error", err)
				continue
			}
			scanPath = localRepoPath
		}

		reconcileSource(db, source.ID, scanPath, opts.DefaultIntervalHours, now)
	}
	slog.Info("Sync process complete.")
	return nil
}

// reconcileSource walks one source directory, inserting new cards and
// archiving cards whose blocks are gone.
func reconcileSource(db *storage.DB, sourceID int64, path string, defaultInterval int, now time.Time) {
	var imported int
	var scanErrors []error
	foundFingerprints := make(map[string]bool)

	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), cardFileSuffix) {
			return nil
		}
		parsed, parseErr := importer.ParseFile(p)
		if parseErr != nil {
			scanErrors = append(scanErrors, fmt.Errorf("parsing %s: %w", p, parseErr))
			return nil
		}
		for _, pc := range parsed {
			fp := importer.Fingerprint(pc)
			foundFingerprints[fp] = true

			existing, findErr := db.FindCardByFingerprint(fp)
			if findErr != nil {
				scanErrors = append(scanErrors, fmt.Errorf("db check for %s: %w", fp, findErr))
				continue
			}
			if existing != nil {
				continue
			}
			card := lifecycle.New(lifecycle.Params{
				Category:             pc.Category,
				Text:                 pc.Text,
				Answer:               pc.Answer,
				Tags:                 pc.Tags,
				Priority:             pc.Priority,
				InitialIntervalHours: defaultInterval,
				Fingerprint:          fp,
				SourceID:             sourceID,
			}, now)
			slog.Info("New card found, importing...", "fingerprint", fp, "category", pc.Category)
			if insertErr := db.InsertCard(card); insertErr != nil {
				scanErrors = append(scanErrors, fmt.Errorf("db insert for %s: %w", fp, insertErr))
			}
			imported++
		}
		return nil
	})

	if walkErr != nil {
		slog.Error("Error walking directory", "path", path, "error", walkErr)
		return
	}

	dbCards, err := db.ListCardsBySourceID(sourceID)
	if err != nil {
		slog.Error("Error getting cards for source", "source_id", sourceID, "error", err)
		return
	}

	var retired int
	for _, c := range dbCards {
		if c.Archived || foundFingerprints[c.Fingerprint] {
			continue
		}
		slog.Info("Source block gone, archiving card", "card", c.ID)
		before := len(c.Events)
		if err := lifecycle.RemoveFromQueue(c, now, false, true); err != nil {
			slog.Warn("Failed to archive orphaned card", "card", c.ID, "error", err)
			continue
		}
		if err := db.UpdateCard(c); err != nil {
			slog.Warn("Failed to persist orphaned card", "card", c.ID, "error", err)
			continue
		}
		if err := db.AppendEvents(c.ID, c.Events[before:]); err != nil {
			slog.Warn("Failed to persist archive event", "card", c.ID, "error", err)
		}
		retired++
	}

	if err := db.UpdateSourceLastScanned(sourceID, now); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", sourceID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", path,
		"imported", imported,
		"retired", retired,
		"errors", len(scanErrors),
	)
	for _, e := range scanErrors {
		slog.Warn("sync issue", "error", e)
	}
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		// scp-like syntax: git@host:owner/repo.git
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
