package archive

import (
	"archive/zip"
	"bufio"
	"io"
	"strings"
)

const manifestPath = "META-INF/MANIFEST.MF"

// Manifest holds the headers from an archive's META-INF/MANIFEST.MF that the
// resolver and cross-linker care about. Parsed once per archive and
// memoized on the Handle.
type Manifest struct {
	ClassPath         []string
	BundleClassPath   []string
	MainClass         string
	ImplementationTitle string
	PackageRootPrefix string
}

// readManifest parses META-INF/MANIFEST.MF from an already-open zip reader.
// Returns a zero-value Manifest, not an error, when the archive carries no
// manifest entry: manifest absence is routine for plain directories-as-jars
// and test fixtures, not a resolution error.
func readManifest(zr *zip.Reader) (*Manifest, error) {
	var mf *zip.File
	for _, f := range zr.File {
		if f.Name == manifestPath {
			mf = f
			break
		}
	}
	if mf == nil {
		return &Manifest{}, nil
	}

	rc, err := mf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	headers, err := parseManifestHeaders(rc)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		MainClass:           headers["Main-Class"],
		ImplementationTitle: headers["Implementation-Title"],
	}
	if cp, ok := headers["Class-Path"]; ok {
		m.ClassPath = strings.Fields(cp)
	}
	if bcp, ok := headers["Bundle-ClassPath"]; ok {
		for _, part := range strings.Split(bcp, ",") {
			part = strings.TrimSpace(part)
			if part != "" && part != "." {
				m.BundleClassPath = append(m.BundleClassPath, part)
			}
		}
	}
	return m, nil
}

// parseManifestHeaders decodes the JAR manifest's line-oriented,
// continuation-folded header format: a header value may continue on the
// next line if that line starts with a single space.
func parseManifestHeaders(r io.Reader) (map[string]string, error) {
	headers := make(map[string]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var curKey, curVal string
	flush := func() {
		if curKey != "" {
			headers[curKey] = curVal
		}
		curKey, curVal = "", ""
	}

	for scanner.Scan() {
		line := scanner.Text()
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, " ") {
			curVal += line[1:]
			continue
		}
		flush()
		idx := strings.Index(line, ": ")
		if idx < 0 {
			continue
		}
		curKey = line[:idx]
		curVal = line[idx+2:]
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return headers, nil
}
