package git_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/brave-versions/pkg/domain/types"
	gitinfra "github.com/m-mizutani/brave-versions/pkg/infra/git"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

// runGit runs git in dir with a fixed identity
func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	full := append([]string{"-c", "user.name=tester", "-c", "user.email=tester@example.com"}, args...)
	cmd := exec.Command("git", full...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
	return string(out)
}

// setupRepo creates a repository with a tagged package.json
func setupRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	dir := filepath.Join(t.TempDir(), "source")
	gt.NoError(t, os.MkdirAll(dir, 0755))
	runGit(t, dir, "init", "-q")

	pkg := `{"config":{"projects":{"chrome":{"tag":"116.0.5845.42"}},"widevine":{"version":"4.10.2557.0"}}}`
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(pkg), 0644))
	runGit(t, dir, "add", "package.json")
	runGit(t, dir, "commit", "-q", "-m", "initial")
	runGit(t, dir, "tag", "v0.9.0")
	runGit(t, dir, "tag", "v1.50.114")
	runGit(t, dir, "tag", "other-tag")

	return dir
}

func TestClient_ListTags(t *testing.T) {
	dir := setupRepo(t)
	ctx := context.Background()
	client := gitinfra.NewClient()

	tags, err := client.ListTags(ctx, dir, "v*")
	gt.NoError(t, err)
	gt.A(t, tags).Length(2)

	head := runGit(t, dir, "rev-parse", "HEAD")
	names := map[string]string{}
	for _, tag := range tags {
		names[tag.Name] = tag.Commit
	}

	_, hasOther := names["other-tag"]
	gt.False(t, hasOther)
	gt.Value(t, names["v1.50.114"]+"\n").Equal(head)
	gt.Value(t, names["v0.9.0"]+"\n").Equal(head)
}

func TestClient_ListTags_NotARepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	client := gitinfra.NewClient()
	_, err := client.ListTags(context.Background(), t.TempDir(), "v*")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagGitCommand))
}

func TestClient_ShowFile(t *testing.T) {
	dir := setupRepo(t)
	ctx := context.Background()
	client := gitinfra.NewClient()

	t.Run("file exists at tag", func(t *testing.T) {
		data, err := client.ShowFile(ctx, dir, "v1.50.114", "package.json")
		gt.NoError(t, err)
		gt.String(t, string(data)).Contains("116.0.5845.42")
	})

	t.Run("file missing at tag", func(t *testing.T) {
		data, err := client.ShowFile(ctx, dir, "v1.50.114", "missing.json")
		gt.Error(t, err)
		gt.Value(t, data).Nil()
		gt.True(t, goerr.HasTag(err, types.ErrTagGitCommand))
	})
}

func TestClient_Sync(t *testing.T) {
	source := setupRepo(t)
	ctx := context.Background()

	var out bytes.Buffer
	client := gitinfra.NewClient(gitinfra.WithOutput(&out, &out))
	dest := filepath.Join(t.TempDir(), "mirror", "brave-browser")

	t.Run("clones when directory is absent", func(t *testing.T) {
		gt.NoError(t, client.Sync(ctx, source, dest, false))
		_, err := os.Stat(filepath.Join(dest, "package.json"))
		gt.NoError(t, err)
	})

	gt.NoError(t, os.WriteFile(filepath.Join(source, "README.md"), []byte("readme"), 0644))
	runGit(t, source, "add", "README.md")
	runGit(t, source, "commit", "-q", "-m", "readme")

	t.Run("skips pull when requested", func(t *testing.T) {
		gt.NoError(t, client.Sync(ctx, source, dest, true))
		_, err := os.Stat(filepath.Join(dest, "README.md"))
		gt.True(t, os.IsNotExist(err))
	})

	t.Run("pulls when directory exists", func(t *testing.T) {
		gt.NoError(t, client.Sync(ctx, source, dest, false))
		_, err := os.Stat(filepath.Join(dest, "README.md"))
		gt.NoError(t, err)
	})

	t.Run("fails for unknown remote", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "no-such-remote")
		err := client.Sync(ctx, missing, filepath.Join(t.TempDir(), "clone"), false)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagRepositorySync))
	})
}
