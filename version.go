package pyext

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Version holds the raw version tokens extracted from a header.
//
// Tokens are kept exactly as written after the macro name; no numeric
// parsing or whitespace trimming beyond the line boundary is applied.
type Version struct {
	Major string
	Minor string
	Patch string
}

// String renders the version as MAJOR.MINOR.PATCH
func (v Version) String() string {
	return v.Major + "." + v.Minor + "." + v.Patch
}

var versionFields = []string{"MAJOR", "MINOR", "PATCH"}

// ExtractVersion parses #define <prefix>_<FIELD> <value> macros out of header
// text and returns the MAJOR, MINOR and PATCH tokens.
//
// Every macro matching the prefix is collected, later definitions replacing
// earlier ones. If any of the three required fields is absent a
// *VersionFieldError is returned.
//
// # Example
//
//	v, err := ExtractVersion(header, "NB_VERSION")
//	// "#define NB_VERSION_MAJOR 2" ... -> v.String() == "2.1.0"
func ExtractVersion(text, prefix string) (Version, error) {
	re, err := versionPattern(prefix)
	if err != nil {
		return Version{}, err
	}

	fields := make(map[string]string)
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		fields[m[1]] = m[2]
	}

	for _, name := range versionFields {
		if _, ok := fields[name]; !ok {
			return Version{}, &VersionFieldError{Prefix: prefix, Field: name}
		}
	}

	return Version{
		Major: fields["MAJOR"],
		Minor: fields["MINOR"],
		Patch: fields["PATCH"],
	}, nil
}

// ReadVersion reads a header file and extracts its version.
func ReadVersion(path, prefix string) (Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Version{}, fmt.Errorf("reading version header: %w", err)
	}

	v, err := ExtractVersion(string(data), prefix)
	if err != nil {
		return Version{}, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func versionPattern(prefix string) (*regexp.Regexp, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, fmt.Errorf("version macro prefix is required")
	}
	return regexp.Compile(`(?m)^[ \t]*#[ \t]*define[ \t]+` + regexp.QuoteMeta(prefix) + `_([A-Z]+)[ \t]+(.*)$`)
}
