// Package capability implements the two capability objects that mediate
// all filesystem and subprocess access: PathCapability and
// CommandCapability. No tool handler may touch a path or spawn a process
// except through these. Paths are resolved and checked against symlink
// escapes before any I/O; commands are always invoked via an argv array,
// never a shell.
package capability

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dispatchd/dispatchd/internal/dispatcherr"
	"github.com/dispatchd/dispatchd/internal/errkind"
)

// AccessMode distinguishes read from write resolution. Both currently apply
// the same allowlist rule; the mode is threaded through for future
// divergence (e.g. read-only mounts) and for audit clarity.
type AccessMode int

const (
	Read AccessMode = iota
	Write
)

// hardBlockedNames are file/directory names a PathCapability refuses to
// resolve into, anywhere in the path — not just at baseDir — even if an
// allowPaths entry would otherwise permit it. Not overridable.
var hardBlockedNames = []string{".git", ".env", "node_modules", ".ssh"}

func isHardBlocked(name string) bool {
	lower := strings.ToLower(name)
	for _, blocked := range hardBlockedNames {
		if lower == blocked {
			return true
		}
	}
	// ".env.*" — any dotfile beginning with "env." after the leading dot.
	if strings.HasPrefix(lower, ".env.") {
		return true
	}
	return false
}

// PathCapability resolves user-supplied paths against a fixed baseDir and
// a set of allowed sub-paths. It is the only legal way a tool obtains a
// filesystem path.
type PathCapability struct {
	baseDir    string // canonical (symlink-resolved) absolute path
	allowPaths []string
}

// NewPathCapability constructs a PathCapability rooted at baseDir, with
// allowPaths interpreted relative to baseDir (per ResolvedConfig/PermissionSet).
func NewPathCapability(baseDir string, allowPaths []string) (*PathCapability, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("capability: resolve baseDir %q: %w", baseDir, err)
	}
	realBase, err := filepath.EvalSymlinks(absBase)
	if err != nil {
		// baseDir may not exist yet on disk; fall back to the cleaned abs path.
		realBase = absBase
	}

	resolvedAllow := make([]string, 0, len(allowPaths))
	for _, p := range allowPaths {
		joined := filepath.Clean(filepath.Join(realBase, p))
		resolvedAllow = append(resolvedAllow, joined)
	}

	return &PathCapability{baseDir: realBase, allowPaths: resolvedAllow}, nil
}

// ResolveAllowed resolves userPath against baseDir and validates it:
//  1. Reject absolute paths and any path containing ".." segments.
//  2. Resolve relative to baseDir, canonicalize (resolve symlinks).
//  3. Require the canonical path to be baseDir or underneath it.
//  4. Reject hard-blocked names anywhere in the path, even if allowPaths
//     would otherwise permit them.
//  5. Require the canonical path to be underneath at least one allowPaths
//     entry.
func (p *PathCapability) ResolveAllowed(userPath string, mode AccessMode) (string, error) {
	if filepath.IsAbs(userPath) {
		return "", dispatcherr.New(errkind.DeniedPathTraversal,
			fmt.Sprintf("absolute paths are not permitted: %q", userPath))
	}
	for _, seg := range strings.Split(filepath.ToSlash(userPath), "/") {
		if seg == ".." {
			return "", dispatcherr.New(errkind.DeniedPathTraversal,
				fmt.Sprintf("path traversal not permitted: %q", userPath))
		}
	}

	joined := filepath.Clean(filepath.Join(p.baseDir, userPath))
	canonical, err := resolveExisting(joined)
	if err != nil {
		canonical = joined
	}

	base, canon := p.baseDir, canonical
	if runtime.GOOS == "windows" {
		base = strings.ToLower(base)
		canon = strings.ToLower(canon)
	}
	if canon != base && !strings.HasPrefix(canon, base+string(os.PathSeparator)) {
		return "", dispatcherr.New(errkind.DeniedPathAllowlist,
			fmt.Sprintf("path %q escapes base directory", userPath))
	}

	for _, part := range strings.Split(filepath.ToSlash(canonical), "/") {
		if part != "" && isHardBlocked(part) {
			return "", dispatcherr.New(errkind.DeniedPathAllowlist,
				fmt.Sprintf("path touches hard-blocked name %q", part))
		}
	}

	allowed := false
	for _, root := range p.allowPaths {
		rootCmp, canonCmp := root, canonical
		if runtime.GOOS == "windows" {
			rootCmp = strings.ToLower(rootCmp)
			canonCmp = strings.ToLower(canonCmp)
		}
		if canonCmp == rootCmp || strings.HasPrefix(canonCmp, rootCmp+string(os.PathSeparator)) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", dispatcherr.New(errkind.DeniedPathAllowlist,
			fmt.Sprintf("path %q is not under any allowed root", userPath))
	}

	return canonical, nil
}

// resolveExisting resolves symlinks for an existing path, or for its
// nearest existing ancestor when the path itself (e.g. a file about to be
// written) does not yet exist on disk.
func resolveExisting(path string) (string, error) {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real, nil
	}
	dir, base := filepath.Dir(path), filepath.Base(path)
	if dir == path {
		return path, fmt.Errorf("capability: cannot resolve %q", path)
	}
	real, err := resolveExisting(dir)
	if err != nil {
		return path, err
	}
	return filepath.Join(real, base), nil
}
