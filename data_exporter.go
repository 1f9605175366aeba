package feedcrawler

import (
	"fmt"
	"os"
	"path/filepath"
)

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// writeFileAtomic writes data next to path and renames it into place, so
// readers never observe a half-written feed and an aborted run keeps the
// previous file.
func (app *Crawler) writeFileAtomic(path string, data []byte) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// SaveHtml stores a page snapshot for failure analysis, gated on STORE_HTML.
// The file lands under DEBUG_DIR/<site>/<run id>/ and, when configured, the
// snapshot is also queued to BigQuery.
func (app *Crawler) SaveHtml(html, url string) string {
	if !app.Config.GetBool("STORE_HTML") {
		return ""
	}

	dir := filepath.Join(app.Config.GetString("DEBUG_DIR"), app.Name, app.RunId)
	if err := ensureDir(dir); err != nil {
		app.Logger.Error(err.Error())
		return ""
	}

	path := filepath.Join(dir, generateFilename(url))
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		app.Logger.Error("Failed to write html snapshot: %v", err)
		return ""
	}

	if app.Config.GetBool("SEND_HTML_TO_BIGQUERY") {
		if err := app.sendHtmlToBigquery(html, url); err != nil {
			app.Logger.Error("Failed to send html snapshot to BigQuery: %v", err)
		}
	}
	return path
}
