package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/otiai10/copy"
)

// SetUpFromGoldenFile copies the golden note of the current test in a temp directory.
// The note must exist in directory testdata/.
func SetUpFromGoldenFile(t *testing.T) string {
	return SetUpFromGoldenFileNamed(t, t.Name()+".md")
}

// SetUpFromGoldenFileNamed copies the given golden note in a temp directory.
func SetUpFromGoldenFileNamed(t *testing.T, filename string) string {
	fileIn := filepath.Join("testdata", filename)
	stat, err := os.Lstat(fileIn)
	if err != nil {
		t.Fatal(err)
	}
	in, err := os.ReadFile(fileIn)
	if err != nil {
		t.Fatal(err)
	}

	fileOut := filepath.Join(t.TempDir(), filepath.Base(filename))
	if err := os.WriteFile(fileOut, in, stat.Mode()); err != nil {
		t.Fatal(err)
	}
	return fileOut
}

// SetUpFromFileContent creates a temp file with the given content.
func SetUpFromFileContent(t *testing.T, filename string, content string) string {
	fileOut := filepath.Join(t.TempDir(), filename)
	if err := os.WriteFile(fileOut, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return fileOut
}

// SetUpFromGoldenDir copies the golden vault of the current test in a temp directory.
func SetUpFromGoldenDir(t *testing.T) string {
	return SetUpFromGoldenDirNamed(t, t.Name())
}

// SetUpFromGoldenDirNamed copies the given golden vault in a temp directory.
// The copy is writable: exports can be saved inside without altering testdata/.
func SetUpFromGoldenDirNamed(t *testing.T, name string) string {
	dirIn := filepath.Join("testdata", name)
	dirOut := filepath.Join(t.TempDir(), filepath.Base(name))

	if err := copy.Copy(dirIn, dirOut); err != nil {
		t.Fatal(err)
	}
	// Placeholders only exist to keep empty folders under version control
	err := filepath.WalkDir(dirOut, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == ".keep" {
			return os.Remove(path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return dirOut
}

// GoldenFile reads the content of the golden file of the current test.
func GoldenFile(t *testing.T) []byte {
	return GoldenFileNamed(t, t.Name()+".md")
}

// GoldenFileNamed reads the content of the given golden file.
func GoldenFileNamed(t *testing.T, filename string) []byte {
	path := filepath.Join("testdata", filename)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed reading golden file %s: %v", path, err)
	}
	return b
}
