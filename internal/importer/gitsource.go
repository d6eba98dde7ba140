package importer

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// isGitURL reports whether the source path names a git repository
// rather than a local directory.
func isGitURL(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}

// syncRepo clones the repository if localPath does not exist yet, or
// pulls the latest changes if it does.
func syncRepo(repoURL, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		slog.Info("cloning word-list repository", "url", repoURL, "path", localPath)
		if _, err := git.PlainClone(localPath, false, &git.CloneOptions{URL: repoURL}); err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", repoURL, err)
		}
	case err == nil:
		slog.Info("pulling word-list repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}
		if err := worktree.Pull(&git.PullOptions{RemoteName: "origin"}); err != nil &&
			err != git.NoErrAlreadyUpToDate {
			return fmt.Errorf("failed to pull repo at %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}
	return nil
}

// repoLocalPath maps a git URL to a stable checkout location under
// baseDir, so repeated imports reuse the same clone.
func repoLocalPath(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		return filepath.Join(baseDir, parsed.Host, strings.TrimSuffix(parsed.Path, ".git")), nil
	}

	// scp-like form: git@host:owner/repo.git
	if strings.Contains(repoURL, "@") {
		parts := strings.SplitN(repoURL, ":", 2)
		if len(parts) == 2 {
			hostParts := strings.SplitN(parts[0], "@", 2)
			if len(hostParts) == 2 {
				return filepath.Join(baseDir, hostParts[1], strings.TrimSuffix(parts[1], ".git")), nil
			}
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
