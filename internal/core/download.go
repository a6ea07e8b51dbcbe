package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/browser"
)

// Downloader is the default destination of exports.
type Downloader interface {
	// Download saves the data under the given file name and returns the final location.
	Download(name string, data []byte) (string, error)
}

// DefaultDownloadDir returns the Downloads directory of the current user.
func DefaultDownloadDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Downloads"), nil
}

// DirDownloader saves files in a downloads directory like a browser does.
//
// Data is first written to a transient file, then moved to the downloads
// directory. The transient file never outlives the call.
type DirDownloader struct {
	dir     string
	tempDir string
	reveal  bool
}

func NewDirDownloader(dir, tempDir string) *DirDownloader {
	return &DirDownloader{
		dir:     dir,
		tempDir: tempDir,
	}
}

// RevealAfterDownload opens the downloaded file with the default application.
func (d *DirDownloader) RevealAfterDownload() *DirDownloader {
	d.reveal = true
	return d
}

func (d *DirDownloader) Download(name string, data []byte) (string, error) {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(d.tempDir, "download-*"+filepath.Ext(name))
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	target := availablePath(filepath.Join(d.dir, filepath.Base(name)))
	if err := moveFile(tmp.Name(), target); err != nil {
		return "", err
	}

	if d.reveal {
		if err := browser.OpenFile(target); err != nil {
			CurrentLogger().Warnf("Unable to reveal %s: %v", target, err)
		}
	}
	return target, nil
}

// availablePath appends " (1)", " (2)", ... to the name until the path is free.
func availablePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// moveFile renames the file or copies it when the rename crosses devices.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
