package geometry

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

const stepSignature = "ISO-10303-21"

// STEPHeader summarizes a STEP (ISO 10303-21) exchange file. Interpreting
// the B-rep itself is left to the external mesher.
type STEPHeader struct {
	FileName    string
	Schema      string
	Entities    int
	EntityTypes map[string]int
}

// HasSolid reports whether the data section carries a closed solid body.
func (h *STEPHeader) HasSolid() bool {
	return h.EntityTypes["MANIFOLD_SOLID_BREP"] > 0 || h.EntityTypes["BREP_WITH_VOIDS"] > 0
}

func ReadSTEPHeader(path string) (*STEPHeader, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := DecodeSTEPHeader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

var (
	stepQuoted = regexp.MustCompile(`'([^']*)'`)
	stepEntity = regexp.MustCompile(`^#\d+\s*=\s*([A-Z0-9_]+)?\s*\(`)
)

// DecodeSTEPHeader scans STEP statements from r.
func DecodeSTEPHeader(r io.Reader) (*STEPHeader, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	sc.Split(splitStatements)

	h := &STEPHeader{EntityTypes: make(map[string]int)}
	first := true
	section := ""
	for sc.Scan() {
		stmt := strings.TrimSpace(sc.Text())
		if stmt == "" {
			continue
		}
		if first {
			if stmt != stepSignature {
				return nil, fmt.Errorf("%w: missing %s signature", ErrMalformed, stepSignature)
			}
			first = false
			continue
		}
		upper := strings.ToUpper(stmt)
		switch {
		case upper == "HEADER" || upper == "DATA":
			section = upper
			continue
		case upper == "ENDSEC":
			section = ""
			continue
		case strings.HasPrefix(upper, "END-"+stepSignature):
			return h, nil
		}

		switch section {
		case "HEADER":
			if strings.HasPrefix(upper, "FILE_NAME") {
				if m := stepQuoted.FindStringSubmatch(stmt); m != nil {
					h.FileName = m[1]
				}
			} else if strings.HasPrefix(upper, "FILE_SCHEMA") {
				if m := stepQuoted.FindStringSubmatch(stmt); m != nil {
					h.Schema = m[1]
				}
			}
		case "DATA":
			if !strings.HasPrefix(stmt, "#") {
				continue
			}
			h.Entities++
			if m := stepEntity.FindStringSubmatch(stmt); m != nil && m[1] != "" {
				h.EntityTypes[m[1]]++
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if first {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}
	return nil, fmt.Errorf("%w: missing END-%s", ErrMalformed, stepSignature)
}

// splitStatements is a bufio.SplitFunc yielding ';'-terminated statements,
// ignoring separators inside quoted strings.
func splitStatements(data []byte, atEOF bool) (int, []byte, error) {
	inQuote := false
	for i, c := range data {
		switch c {
		case '\'':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return i + 1, bytes.TrimSpace(data[:i]), nil
			}
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), bytes.TrimSpace(data), nil
	}
	return 0, nil, nil
}
