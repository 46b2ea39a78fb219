package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/brave-versions/pkg/domain/interfaces"
	"github.com/m-mizutani/brave-versions/pkg/domain/model"
	"github.com/m-mizutani/brave-versions/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// tagFormat prints "<object hash> <short tag name>" per tag
const tagFormat = "%(objectname) %(refname:strip=2)"

type client struct {
	binary string
	stdout io.Writer
	stderr io.Writer
}

// Option is a functional option for the git client
type Option func(*client)

// WithBinary sets the git executable, "git" by default
func WithBinary(path string) Option {
	return func(c *client) {
		c.binary = path
	}
}

// WithOutput sets where clone and pull output is streamed
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *client) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// NewClient creates a GitClient that shells out to git
func NewClient(opts ...Option) interfaces.GitClient {
	c := &client{
		binary: "git",
		stdout: os.Stderr,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sync clones remoteURL into dir, or pulls when dir already exists
func (c *client) Sync(ctx context.Context, remoteURL, dir string, skipPull bool) error {
	logger := ctxlog.From(ctx)

	var args []string
	var cwd string

	_, err := os.Stat(dir)
	switch {
	case err == nil:
		if skipPull {
			logger.Info("Skipping repository pull", "dir", dir)
			return nil
		}
		args = []string{"pull"}
		cwd = dir

	case errors.Is(err, os.ErrNotExist):
		cwd = filepath.Dir(dir)
		if err := os.MkdirAll(cwd, 0755); err != nil {
			return goerr.Wrap(err, "failed to create repository parent directory",
				goerr.T(types.ErrTagRepositorySync),
				goerr.V("dir", cwd),
			)
		}
		args = []string{"clone", remoteURL, filepath.Base(dir)}

	default:
		return goerr.Wrap(err, "failed to stat repository directory",
			goerr.T(types.ErrTagRepositorySync),
			goerr.V("dir", dir),
		)
	}

	logger.Info("Synchronizing repository",
		"command", "git "+strings.Join(args, " "),
		"cwd", cwd,
	)

	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Dir = cwd
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	if err := cmd.Run(); err != nil {
		return goerr.Wrap(err, "failed to synchronize repository",
			goerr.T(types.ErrTagRepositorySync),
			goerr.V("args", args),
			goerr.V("cwd", cwd),
		)
	}

	return nil
}

// ListTags lists tags matching pattern in the order git prints them
func (c *client) ListTags(ctx context.Context, dir, pattern string) ([]model.TagRef, error) {
	out, err := c.output(ctx, dir, "tag", "-l", pattern, "--format", tagFormat)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tags", goerr.V("pattern", pattern))
	}

	var tags []model.TagRef
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		tags = append(tags, model.TagRef{Commit: fields[0], Name: fields[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to scan tag listing", goerr.T(types.ErrTagGitCommand))
	}

	return tags, nil
}

// ShowFile returns the content of path at ref
func (c *client) ShowFile(ctx context.Context, dir, ref, path string) ([]byte, error) {
	out, err := c.output(ctx, dir, "show", ref+":"+path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to show file", goerr.V("ref", ref), goerr.V("path", path))
	}
	return out, nil
}

// output runs git in dir and returns its stdout
func (c *client) output(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Dir = dir

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, goerr.Wrap(err, "git command exited with error",
				goerr.T(types.ErrTagGitCommand),
				goerr.V("args", args),
				goerr.V("stderr", strings.TrimSpace(string(exitErr.Stderr))),
			)
		}
		return nil, goerr.Wrap(err, "failed to run git command",
			goerr.T(types.ErrTagGitCommand),
			goerr.V("args", args),
		)
	}

	return out, nil
}
