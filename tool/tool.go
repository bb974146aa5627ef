package tool

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/pretty"

	"github.com/dhawalhost/treeq"
	"github.com/dhawalhost/treeq/codec"
)

// Operation selects what a QueryTool invocation does.
type Operation string

const (
	OpRead  Operation = "read"
	OpWrite Operation = "write"
)

// QueryTool runs one query against one document file under Root. The
// format is picked from the file extension.
type QueryTool struct {
	Root      string
	FilePath  string
	Query     string
	Operation Operation

	// Output selects the rendering for read results: pretty, compact
	// or raw.
	Output string

	// InPlace must be set for writes; it is an explicit opt-in to
	// modifying the file.
	InPlace bool

	// Backup keeps a .bak copy of the original next to the file on
	// write.
	Backup bool

	// FollowSymlinks allows the target itself to be a symlink.
	FollowSymlinks bool
}

// WriteResult is the summary returned by write operations.
type WriteResult struct {
	File      string `json:"file"`
	Operation string `json:"operation"`
	Modified  bool   `json:"modified"`
	Backup    string `json:"backup,omitempty"`
}

// Run executes the operation and returns the rendered result.
func (t *QueryTool) Run(s *Session) (string, error) {
	resolved, err := t.resolve()
	if err != nil {
		return "", t.fail(err)
	}
	c, err := codec.ForPath(resolved)
	if err != nil {
		return "", t.fail(err)
	}
	style, err := codec.ParseStyle(t.Output)
	if err != nil {
		return "", t.fail(err)
	}

	logrus.WithFields(logrus.Fields{
		"file":   t.FilePath,
		"format": c.Name(),
		"op":     t.Operation,
	}).Debug("running query")

	switch t.Operation {
	case OpRead, "":
		out, err := t.runRead(s, resolved, c, style)
		if err != nil {
			return "", t.fail(err)
		}
		return out, nil
	case OpWrite:
		out, err := t.runWrite(s, resolved, c)
		if err != nil {
			return "", t.fail(err)
		}
		return out, nil
	default:
		return "", t.fail(fmt.Errorf("unknown operation %q", t.Operation))
	}
}

func (t *QueryTool) fail(err error) error {
	return fmt.Errorf("treeq %s %s: %w", t.Operation, t.FilePath, err)
}

// resolve joins FilePath onto Root without letting the path escape
// it, and rejects symlink targets unless explicitly allowed.
func (t *QueryTool) resolve() (string, error) {
	root := t.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	resolved, err := securejoin.SecureJoin(absRoot, t.FilePath)
	if err != nil {
		return "", fmt.Errorf("path escapes project root: %w", err)
	}
	if !t.FollowSymlinks {
		if fi, err := os.Lstat(resolved); err == nil && fi.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("%s is a symlink and symlinks are not followed", t.FilePath)
		}
	}
	return resolved, nil
}

func (t *QueryTool) runRead(s *Session, path string, c codec.Codec, style codec.Style) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	s.MarkRead(path)

	// simple JSON paths can be answered straight off the bytes
	if _, isJSON := c.(codec.JSON); isJSON && style != codec.StyleRaw {
		if raw, ok := codec.FastGetJSON(data, t.Query); ok {
			logrus.WithField("file", t.FilePath).Debug("fast path read")
			if style == codec.StyleCompact {
				return string(pretty.Ugly([]byte(raw))), nil
			}
			return strings.TrimSuffix(string(pretty.Pretty([]byte(raw))), "\n"), nil
		}
	}

	doc, err := c.Decode(data)
	if err != nil {
		return "", err
	}
	res, err := treeq.Evaluate(doc, t.Query)
	if err != nil {
		return "", err
	}
	out, err := c.Encode(res, style)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

func (t *QueryTool) runWrite(s *Session, path string, c codec.Codec) (string, error) {
	if !t.InPlace {
		return "", fmt.Errorf("write requires in-place mode")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !s.WasRead(path) {
		return "", fmt.Errorf("file must be read in this session before writing")
	}

	var updated []byte
	if _, isJSON := c.(codec.JSON); isJSON {
		if fast, ok := codec.FastSetJSON(data, t.Query); ok {
			logrus.WithField("file", t.FilePath).Debug("fast path write")
			updated = pretty.Pretty(fast)
		}
	}
	if updated == nil {
		doc, err := c.Decode(data)
		if err != nil {
			return "", err
		}
		if _, err := treeq.EvaluateWrite(&doc, t.Query); err != nil {
			return "", err
		}
		updated, err = c.Encode(doc, codec.StylePretty)
		if err != nil {
			return "", err
		}
	}

	result := WriteResult{
		File:      t.FilePath,
		Operation: string(OpWrite),
		Modified:  true,
	}
	if t.Backup {
		backup := path + ".bak"
		if err := os.WriteFile(backup, data, filePerm(path)); err != nil {
			return "", fmt.Errorf("writing backup: %w", err)
		}
		result.Backup = t.FilePath + ".bak"
	}
	if err := atomicWrite(path, updated); err != nil {
		return "", err
	}
	s.MarkWritten(path)

	out, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// atomicWrite replaces path's contents via a temp file and rename so
// a crash mid-write cannot leave a half-written document.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, filePerm(path)); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func filePerm(path string) os.FileMode {
	if fi, err := os.Stat(path); err == nil {
		return fi.Mode().Perm()
	}
	return 0o644
}
