package symbols

import (
	"archive/zip"
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/dhamidi/linkage/classfile"
)

const (
	versionsPrefix = "META-INF/versions/"
	manifestName   = "META-INF/MANIFEST.MF"
	jmodMagic      = "JM\x01\x00"
)

// Archive is an open jar or jmod. Jmod class entries live under classes/,
// which Archive hides: names passed to Open are always class-relative.
type Archive struct {
	Path     string
	zip      *zip.Reader
	file     *os.File
	prefix   string
	isJmod   bool
	entries  map[string]*zip.File
	manifest map[string]string
}

// OpenArchive opens the jar or jmod at path.
func OpenArchive(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	a := &Archive{Path: path, file: f}
	var r io.ReaderAt = f
	size := info.Size()
	header := make([]byte, len(jmodMagic))
	if _, err := f.ReadAt(header, 0); err == nil && string(header) == jmodMagic {
		r = io.NewSectionReader(f, int64(len(jmodMagic)), size-int64(len(jmodMagic)))
		size -= int64(len(jmodMagic))
		a.prefix = "classes/"
		a.isJmod = true
	}

	a.zip, err = zip.NewReader(r, size)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}
	a.entries = make(map[string]*zip.File, len(a.zip.File))
	for _, zf := range a.zip.File {
		a.entries[zf.Name] = zf
	}
	return a, nil
}

func (a *Archive) Close() error {
	return a.file.Close()
}

func (a *Archive) IsJmod() bool { return a.isJmod }

// Has reports whether the archive holds name.
func (a *Archive) Has(name string) bool {
	_, ok := a.entries[a.prefix+name]
	return ok
}

// Read returns the contents of name, or nil if the entry is absent.
func (a *Archive) Read(name string) ([]byte, error) {
	zf, ok := a.entries[a.prefix+name]
	if !ok {
		return nil, nil
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s in %s: %w", name, a.Path, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s in %s: %w", name, a.Path, err)
	}
	return data, nil
}

// Names lists the class-relative entry names in archive order.
func (a *Archive) Names() []string {
	var names []string
	for _, zf := range a.zip.File {
		if zf.FileInfo().IsDir() || !strings.HasPrefix(zf.Name, a.prefix) {
			continue
		}
		names = append(names, strings.TrimPrefix(zf.Name, a.prefix))
	}
	return names
}

// Manifest returns the main manifest attributes with lowercased keys.
func (a *Archive) Manifest() map[string]string {
	if a.manifest != nil {
		return a.manifest
	}
	a.manifest = map[string]string{}
	zf, ok := a.entries[manifestName]
	if !ok {
		return a.manifest
	}
	rc, err := zf.Open()
	if err != nil {
		return a.manifest
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return a.manifest
	}
	a.manifest = parseManifest(data)
	return a.manifest
}

// parseManifest reads the main section. Continuation lines begin with a
// single space.
func parseManifest(data []byte) map[string]string {
	attrs := map[string]string{}
	var key string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, " ") && key != "" {
			attrs[key] += line[1:]
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(name))
		attrs[key] = strings.TrimSpace(value)
	}
	return attrs
}

func (a *Archive) IsMultiRelease() bool {
	return strings.EqualFold(strings.TrimSpace(a.Manifest()["multi-release"]), "true")
}

// ModuleName names the module the archive belongs to: its module-info
// descriptor, then Automatic-Module-Name, then a name derived from the
// file name. Jmods are named after their file.
func (a *Archive) ModuleName() string {
	base := filepath.Base(a.Path)
	if a.isJmod {
		return strings.TrimSuffix(base, ".jmod")
	}
	if name := a.DeclaredModule(); name != nil {
		return name.Name
	}
	if name := strings.TrimSpace(a.Manifest()["automatic-module-name"]); name != "" {
		return name
	}
	return DeriveModuleName(base)
}

// DeclaredModule decodes the archive's module-info, looking at the root
// first and then the highest versioned copy. It returns nil for automatic
// modules and for unreadable descriptors.
func (a *Archive) DeclaredModule() *classfile.Module {
	candidates := []string{"module-info.class"}
	best := 0
	for _, name := range a.Names() {
		if v, rest, ok := splitVersioned(name); ok && rest == "module-info.class" && v > best {
			best = v
		}
	}
	if best > 0 {
		candidates = append(candidates, versionsPrefix+strconv.Itoa(best)+"/module-info.class")
	}
	for _, name := range candidates {
		data, err := a.Read(name)
		if err != nil || data == nil {
			continue
		}
		cd, err := classfile.Read(data, filepath.Join(a.Path, name))
		if err != nil || cd.Module == nil {
			continue
		}
		return cd.Module
	}
	return nil
}

// DeriveModuleName turns a jar file name into an automatic module name:
// the version suffix is cut at the first '-' followed by a digit, and
// runs of other characters collapse to '.'.
func DeriveModuleName(fileName string) string {
	name := strings.TrimSuffix(fileName, ".jar")
	for i := 0; i+1 < len(name); i++ {
		if name[i] == '-' && name[i+1] >= '0' && name[i+1] <= '9' {
			name = name[:i]
			break
		}
	}
	var sb strings.Builder
	dot := false
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
			dot = false
			continue
		}
		if !dot {
			sb.WriteByte('.')
			dot = true
		}
	}
	return strings.Trim(sb.String(), ".")
}

// splitVersioned splits META-INF/versions/N/rest.
func splitVersioned(name string) (int, string, bool) {
	if !strings.HasPrefix(name, versionsPrefix) {
		return 0, "", false
	}
	v, rest, ok := strings.Cut(name[len(versionsPrefix):], "/")
	if !ok {
		return 0, "", false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, "", false
	}
	return n, rest, true
}

type selectionStatus int

const (
	notPresent selectionStatus = iota
	selected
	mismatched
)

// selection is the outcome of picking an entry from one archive. For a
// mismatch, version holds the lowest release above the target that
// carries the class.
type selection struct {
	status    selectionStatus
	entry     string
	versioned bool
	version   int
}

func (a *Archive) selectEntry(classEntry string, target int) selection {
	if !a.IsMultiRelease() {
		if a.Has(classEntry) {
			return selection{status: selected, entry: classEntry}
		}
		return selection{}
	}
	for v := target; v >= 9; v-- {
		name := versionsPrefix + strconv.Itoa(v) + "/" + classEntry
		if a.Has(name) {
			return selection{status: selected, entry: name, versioned: true, version: v}
		}
	}
	if a.Has(classEntry) {
		return selection{status: selected, entry: classEntry}
	}
	lowest := 0
	for _, name := range a.Names() {
		v, rest, ok := splitVersioned(name)
		if !ok || rest != classEntry || v <= target {
			continue
		}
		if lowest == 0 || v < lowest {
			lowest = v
		}
	}
	if lowest > 0 {
		return selection{status: mismatched, version: lowest}
	}
	return selection{}
}
