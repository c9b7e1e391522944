package workspace

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Caps on what the context helpers feed into a prompt.
const (
	// ManifestMaxEntries bounds the file-manifest line count.
	ManifestMaxEntries = 200
	// ManifestHintLen bounds the first-line content hint.
	ManifestHintLen = 80
	// DigestMaxFiles bounds how many files the structural digest reads.
	DigestMaxFiles = 30
	// DigestMaxEntries bounds total extracted signatures.
	DigestMaxEntries = 150
)

// skipDirs are directories never included in prompt context: control and
// VCS metadata plus dependency/build output trees.
var skipDirs = map[string]bool{
	ControlDir:     true,
	".git":         true,
	"__pycache__":  true,
	"node_modules": true,
	"dist":         true,
}

// BuildFileManifest walks the project directory and returns one line per
// file: the relative path plus a first-line content hint. Output is
// capped at ManifestMaxEntries with an overflow line counting the rest.
// Returns "" for an empty or unreadable directory.
func BuildFileManifest(root string) string {
	var entries []string
	overflow := 0

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if len(entries) >= ManifestMaxEntries {
			overflow++
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		line := rel
		if hint := firstLine(path); hint != "" {
			line += "  # " + hint
		}
		entries = append(entries, line)
		return nil
	})

	if overflow > 0 {
		entries = append(entries, fmt.Sprintf("(and %d more...)", overflow))
	}
	return strings.Join(entries, "\n")
}

// firstLine reads the first non-empty line of a file, trimmed and capped
// to ManifestHintLen characters.
func firstLine(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return ""
	}
	line := strings.TrimSpace(scanner.Text())
	if len(line) > ManifestHintLen {
		line = line[:ManifestHintLen]
	}
	return line
}

// signaturePatterns extracts exported declarations per language.
var signaturePatterns = map[string]*regexp.Regexp{
	".py": regexp.MustCompile(`(?m)^(?:async\s+)?(?:def|class)\s+\w+[^:\n]*`),
	".js": regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?(?:function\s+\w+|class\s+\w+|const\s+\w+\s*=)`),
	".ts": regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?(?:function\s+\w+|class\s+\w+|interface\s+\w+|const\s+\w+\s*=)`),
	".go": regexp.MustCompile(`(?m)^(?:func|type)\s+[^{\n]+`),
}

// BuildStructuralDigest extracts function/class/type signatures from the
// most-recently-modified source files. The result is a compact picture of
// what the project exposes, for prompts that do not need file contents.
func BuildStructuralDigest(root string) string {
	type candidate struct {
		rel     string
		path    string
		ext     string
		modTime time.Time
	}
	var files []candidate

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".jsx" {
			ext = ".js"
		}
		if ext == ".tsx" {
			ext = ".ts"
		}
		if _, ok := signaturePatterns[ext]; !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, candidate{
			rel:     filepath.ToSlash(rel),
			path:    path,
			ext:     ext,
			modTime: info.ModTime(),
		})
		return nil
	})

	// Recently-touched files describe the current state of the build
	// best, so they rank first and survive the cap.
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})
	if len(files) > DigestMaxFiles {
		files = files[:DigestMaxFiles]
	}

	var lines []string
	total := 0
	for _, f := range files {
		if total >= DigestMaxEntries {
			break
		}
		data, err := os.ReadFile(f.path)
		if err != nil {
			continue
		}
		sigs := signaturePatterns[f.ext].FindAllString(string(data), -1)
		if len(sigs) == 0 {
			continue
		}
		lines = append(lines, "## "+f.rel)
		for _, sig := range sigs {
			if total >= DigestMaxEntries {
				break
			}
			lines = append(lines, "  "+strings.TrimSpace(sig))
			total++
		}
	}
	return strings.Join(lines, "\n")
}
