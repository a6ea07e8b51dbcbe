package core

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/julien-sobczak/mermaid-export/internal/medias"
	"github.com/julien-sobczak/mermaid-export/pkg/text"
)

// FileName substitutes the placeholders of the template and appends the extension if missing.
//
// Supported placeholders:
//
//	{noteName}   the note name, sanitized
//	{noteSlug}   the note name, as a lowercase ASCII slug (ex: "systeme-de-design")
//	{timestamp}  ISO-8601 timestamp safe for file systems (2024-03-01T09-30-00-000Z)
//	{date}       2024-03-01
//	{time}       09-30-00
func FileName(template string, noteName string, format medias.Format, now time.Time) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultFilename
	}
	timestamp := now.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	timestamp = strings.NewReplacer(":", "-", ".", "-").Replace(timestamp)

	name := strings.NewReplacer(
		"{noteName}", text.SanitizeFileName(noteName),
		"{noteSlug}", slug.Make(noteName),
		"{timestamp}", timestamp,
		"{date}", now.Format("2006-01-02"),
		"{time}", now.Format("15-04-05"),
	).Replace(template)
	// Templates must not escape the destination folder
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(name)

	if !strings.HasSuffix(strings.ToLower(name), format.Extension()) {
		name += format.Extension()
	}
	return name
}

// NormalizeFolder cleans a destination folder typed by the user.
// The result has no leading separator and a trailing one, or is empty.
func NormalizeFolder(folder string) string {
	folder = strings.TrimSpace(folder)
	folder = strings.ReplaceAll(folder, "\\", "/")
	folder = path.Clean("/" + folder)
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return ""
	}
	return folder + "/"
}

// Persister writes exports in the vault and falls back to a download.
type Persister struct {
	vault      Vault
	downloader Downloader
	notifier   Notifier
}

func NewPersister(vault Vault, downloader Downloader, notifier Notifier) *Persister {
	return &Persister{
		vault:      vault,
		downloader: downloader,
		notifier:   notifier,
	}
}

// Save persists the data and returns where it was saved.
// A failure to write in the vault is only a warning.
func (p *Persister) Save(folder, name string, data []byte) (string, error) {
	folder = NormalizeFolder(folder)
	if folder != "" && p.vault != nil {
		key := folder + name
		err := p.saveInVault(folder, key, data)
		if err == nil {
			return key, nil
		}
		CurrentLogger().Warnf("Failed to save %s in vault: %v", key, err)
		if p.notifier != nil {
			p.notifier.Warn(fmt.Sprintf("Could not save to %q, downloading instead", strings.TrimSuffix(folder, "/")))
		}
	}

	if p.downloader == nil {
		return "", fmt.Errorf("%w: no download destination", ErrPersistence)
	}
	location, err := p.downloader.Download(name, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return location, nil
}

func (p *Persister) saveInVault(folder, key string, data []byte) error {
	if err := EnsureFolder(p.vault, folder); err != nil {
		return err
	}
	return p.vault.WriteBinary(key, data)
}

// EnsureFolder creates the folder and its missing parents.
// The direct creation is tried first, then segments are created top-down.
func EnsureFolder(vault Vault, folder string) error {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return nil
	}
	exists, err := vault.Exists(folder)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := vault.CreateFolder(folder); err == nil {
		return nil
	}

	current := ""
	for _, segment := range strings.Split(folder, "/") {
		current = path.Join(current, segment)
		exists, err := vault.Exists(current)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := vault.CreateFolder(current); err != nil {
			return fmt.Errorf("unable to create folder %s: %w", current, err)
		}
	}
	return nil
}
