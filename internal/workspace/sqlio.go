package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dwifuady/larik/internal/driver"
	"github.com/dwifuady/larik/internal/model"
)

// ExportTabAsSQL writes a tab's content to a .sql file on disk, per
// SPEC_FULL.md's supplemented sql-file-io commands (the original's
// export_tab_as_sql). The tab is re-read fresh so an in-flight autosave
// is reflected in the exported file.
func (r *Repository) ExportTabAsSQL(ctx context.Context, tabID, filePath string) error {
	tab, err := r.GetTab(ctx, tabID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filePath, []byte(tab.Content), 0o644); err != nil {
		return driver.New(driver.KindIOError, fmt.Sprintf("write %s", filePath), err)
	}
	return nil
}

// ImportSQLFileAsTab reads a .sql file from disk and creates a new tab
// in spaceID with its contents, titled after the file name unless title
// is supplied.
func (r *Repository) ImportSQLFileAsTab(ctx context.Context, spaceID, filePath, title string) (model.Tab, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return model.Tab{}, driver.New(driver.KindIOError, fmt.Sprintf("read %s", filePath), err)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	return r.CreateTab(ctx, CreateTabInput{
		SpaceID: spaceID,
		Title:   title,
		Type:    model.TabQuery,
		Content: string(content),
	})
}
