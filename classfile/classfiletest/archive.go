package classfiletest

import (
	"archive/zip"
	"bytes"
	"os"
	"sort"
	"strings"
	"testing"
)

// Manifest renders a MANIFEST.MF with the given key/value pairs.
func Manifest(pairs ...string) []byte {
	var sb strings.Builder
	sb.WriteString("Manifest-Version: 1.0\r\n")
	for i := 0; i+1 < len(pairs); i += 2 {
		sb.WriteString(pairs[i] + ": " + pairs[i+1] + "\r\n")
	}
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

// Zip returns a zip archive holding files, written in name order.
func Zip(t testing.TB, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range sortedKeys(files) {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := f.Write(files[name]); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// WriteJar writes a jar at path.
func WriteJar(t testing.TB, path string, files map[string][]byte) {
	t.Helper()
	if err := os.WriteFile(path, Zip(t, files), 0o644); err != nil {
		t.Fatalf("write jar: %v", err)
	}
}

// WriteJmod writes a jmod at path: the JM\x01\x00 header followed by a
// zip whose class entries live under classes/.
func WriteJmod(t testing.TB, path string, files map[string][]byte) {
	t.Helper()
	data := append([]byte("JM\x01\x00"), Zip(t, files)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write jmod: %v", err)
	}
}

// WriteClass writes class bytes under dir at the path implied by the
// internal name and returns that path.
func WriteClass(t testing.TB, dir, internalName string, data []byte) string {
	t.Helper()
	path := dir + "/" + internalName + ".class"
	if err := os.MkdirAll(path[:strings.LastIndexByte(path, '/')], 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write class: %v", err)
	}
	return path
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
