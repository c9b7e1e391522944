package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestBuildFileManifestSkipsNoiseDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "# entry point\nprint('hi')\n")
	writeFile(t, dir, ".elisa/comms/task-1_summary.md", "secret")
	writeFile(t, dir, ".git/config", "[core]")
	writeFile(t, dir, "node_modules/pkg/index.js", "module.exports = {}")
	writeFile(t, dir, "src/game.py", "class Game:\n    pass\n")

	got := BuildFileManifest(dir)

	if !strings.Contains(got, "main.py  # # entry point") {
		t.Errorf("expected main.py with first-line hint, got %q", got)
	}
	if !strings.Contains(got, "src/game.py") {
		t.Errorf("expected nested file, got %q", got)
	}
	for _, excluded := range []string{".elisa", ".git", "node_modules"} {
		if strings.Contains(got, excluded) {
			t.Errorf("expected %s excluded, got %q", excluded, got)
		}
	}
}

func TestBuildFileManifestHintCapped(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("x", 200)
	writeFile(t, dir, "long.txt", long+"\n")

	got := BuildFileManifest(dir)
	line := strings.SplitN(got, "\n", 2)[0]
	hint := strings.TrimPrefix(line, "long.txt  # ")
	if len(hint) != ManifestHintLen {
		t.Errorf("expected hint capped at %d chars, got %d", ManifestHintLen, len(hint))
	}
}

func TestBuildFileManifestOverflow(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < ManifestMaxEntries+5; i++ {
		writeFile(t, dir, filepath.Join("files", "f"+itoa(i)+".txt"), "x\n")
	}

	got := BuildFileManifest(dir)
	lines := strings.Split(got, "\n")
	if len(lines) != ManifestMaxEntries+1 {
		t.Fatalf("expected %d lines, got %d", ManifestMaxEntries+1, len(lines))
	}
	last := lines[len(lines)-1]
	if last != "(and 5 more...)" {
		t.Errorf("expected overflow line, got %q", last)
	}
}

func itoa(n int) string {
	// zero-padded so file walk order is stable
	digits := "0000"
	s := ""
	for n > 0 {
		s = string(rune('0'+n%10)) + s
		n /= 10
	}
	if s == "" {
		s = "0"
	}
	return digits[:4-len(s)] + s
}

func TestBuildFileManifestEmptyDir(t *testing.T) {
	if got := BuildFileManifest(t.TempDir()); got != "" {
		t.Errorf("expected empty manifest, got %q", got)
	}
}

func TestBuildStructuralDigestExtractsSignatures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "game.py", "import os\n\ndef start():\n    pass\n\nclass Game:\n    pass\n")
	writeFile(t, dir, "app.js", "export function render() {}\nclass Board {}\n")
	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n\ntype Config struct {\n}\n")
	writeFile(t, dir, "notes.txt", "not source\n")

	got := BuildStructuralDigest(dir)

	for _, want := range []string{
		"## game.py", "def start()", "class Game",
		"## app.js", "export function render",
		"## main.go", "func main()", "type Config struct",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected digest to contain %q, got:\n%s", want, got)
		}
	}
	if strings.Contains(got, "notes.txt") {
		t.Errorf("expected non-source file excluded, got:\n%s", got)
	}
}

func TestBuildStructuralDigestRecentFilesFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "old.py", "def old():\n    pass\n")
	writeFile(t, dir, "new.py", "def fresh():\n    pass\n")

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old.py"), past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	got := BuildStructuralDigest(dir)
	newIdx := strings.Index(got, "## new.py")
	oldIdx := strings.Index(got, "## old.py")
	if newIdx == -1 || oldIdx == -1 {
		t.Fatalf("expected both files in digest, got:\n%s", got)
	}
	if newIdx > oldIdx {
		t.Errorf("expected most-recently-modified file first, got:\n%s", got)
	}
}
