package audacity

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// CleanedDir is created next to cleaned files.
const CleanedDir = "cleaned"

// ImportWave imports audio file into the project. If clear is set, all
// existing tracks are removed first.
//
// Path is inserted into the command verbatim. Quotes are not escaped, so
// a path containing a quote changes the command.
func (c *Client) ImportWave(path string, clear bool) error {
	if clear {
		if _, err := c.Do(CmdSelectAllTracks); err != nil {
			return err
		}
		if _, err := c.Do(CmdRemoveTracks); err != nil {
			return err
		}
	}
	if _, err := c.Do(CmdSelectFirst); err != nil {
		return err
	}
	_, err := c.Do(fmt.Sprintf(CmdImport, path))
	return err
}

// ExportWave exports the project into file at path. Response is not
// inspected: an error reported by Audacity is not detected.
func (c *Client) ExportWave(path string) error {
	_, err := c.Do(fmt.Sprintf(CmdExport, path))
	return err
}

// CleanedPath returns where CleanAudio exports the file at path.
func CleanedPath(path string) string {
	return filepath.Join(filepath.Dir(path), CleanedDir, filepath.Base(path))
}

// CleanAudio round-trips the file through Audacity into CleanedPath. The
// whole operation is bounded by the client timeout. Any failure,
// including the timeout, is logged and reported as false.
func (c *Client) CleanAudio(ctx context.Context, path string) (string, bool) {
	out := CleanedPath(path)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	err := c.bounded(ctx, func() error {
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return err
		}
		if err := c.ImportWave(path, true); err != nil {
			return err
		}
		return c.ExportWave(out)
	})
	if err != nil {
		c.log.Errorf("Failed to clean audio: %v", err)
		return "", false
	}
	c.log.Infof("Cleaned up file: %s", path)
	return out, true
}
