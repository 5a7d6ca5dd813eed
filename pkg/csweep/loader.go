package csweep

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// LoaderOptions configures source discovery.
type LoaderOptions struct {
	// Paths are the files or directories to sweep.
	Paths []string

	// Recursive enables descending into subdirectories.
	Recursive bool

	// Extensions are the file extensions treated as C sources.
	// Defaults to .c and .h.
	Extensions []string

	// Exclude lists directory names skipped during discovery.
	Exclude []string
}

// SourceFile is one discovered file with its contents.
type SourceFile struct {
	Path    string
	Content []byte
}

// LoadSources discovers and reads C sources with consistent configuration
// for the sweep.
func LoadSources(ctx context.Context, opts LoaderOptions) ([]SourceFile, error) {
	paths := opts.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}

	extensions := normalizeExtensions(opts.Extensions)
	if len(extensions) == 0 {
		extensions = []string{".c", ".h"}
	}

	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, dir := range opts.Exclude {
		excluded[dir] = struct{}{}
	}

	seen := make(map[string]struct{})
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}

		if !info.IsDir() {
			if !isSourceOrHeaderFile(path, extensions) {
				return nil, fmt.Errorf("%s is not a C source or header file", path)
			}
			if _, ok := seen[path]; !ok {
				seen[path] = struct{}{}
				files = append(files, path)
			}
			continue
		}

		root := path
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if p == root {
					return nil
				}
				if _, ok := excluded[d.Name()]; ok {
					return fs.SkipDir
				}
				if !opts.Recursive {
					return fs.SkipDir
				}
				return nil
			}
			if !isSourceOrHeaderFile(p, extensions) {
				return nil
			}
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no C sources found under: %v", paths)
	}

	// Deterministic order keeps reports and site lists stable.
	slices.Sort(files)

	sources := make([]SourceFile, 0, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		sources = append(sources, SourceFile{Path: file, Content: content})
	}

	return sources, nil
}

func isSourceOrHeaderFile(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(extensions, ext)
}

// normalizeExtensions lowercases configured extensions and prepends the
// dot, so `--ext c` means the same as `--ext .c`.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
