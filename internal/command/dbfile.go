package command

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dwifuady/larik/internal/driver"
)

// ErrRestartRequired is returned by ImportDatabase once the file swap
// has succeeded: per spec.md §6, replacing the backing file "restarts
// the process" — this package only signals the need, since os.Exit
// belongs to the composition root (cmd/larikd), not a library.
var ErrRestartRequired = errors.New("database file replaced, process restart required")

// ExportDatabase implements export_database(destination_path): it
// checkpoints the WAL so the on-disk file reflects every committed
// write, then copies it to destination.
func (s *Service) ExportDatabase(destinationPath string) error {
	if _, err := s.store.DB().Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return driver.New(driver.KindIOError, "checkpoint before export", err)
	}
	return copyFile(s.store.Path(), destinationPath)
}

// ImportDatabase implements import_database(source_path): it closes the
// live handle, replaces the on-disk file with source, and returns
// ErrRestartRequired so the caller can re-exec the process against the
// new file.
func (s *Service) ImportDatabase(sourcePath string) error {
	if _, err := os.Stat(sourcePath); err != nil {
		return driver.New(driver.KindIOError, "source database file", err)
	}
	dest := s.store.Path()
	if err := s.store.Close(); err != nil {
		return driver.New(driver.KindIOError, "close store before import", err)
	}
	if err := copyFile(sourcePath, dest); err != nil {
		return err
	}
	return ErrRestartRequired
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return driver.New(driver.KindIOError, fmt.Sprintf("open %s", src), err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return driver.New(driver.KindIOError, fmt.Sprintf("create %s", dst), err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return driver.New(driver.KindIOError, fmt.Sprintf("copy %s to %s", src, dst), err)
	}
	return out.Sync()
}
