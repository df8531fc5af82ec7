package pyext

import (
	"fmt"
	"strings"
)

// Metadata describes the Python distribution.
type Metadata struct {
	Name                       string `yaml:"name"`
	Version                    string `yaml:"-"`
	Author                     string `yaml:"author"`
	AuthorEmail                string `yaml:"author_email"`
	Summary                    string `yaml:"description"`
	URL                        string `yaml:"url"`
	License                    string `yaml:"license"`
	LongDescription            string `yaml:"long_description"`
	LongDescriptionContentType string `yaml:"long_description_content_type"`
}

// CoreMetadata renders m in the core metadata 2.1 format used for PKG-INFO
// and .dist-info/METADATA. Empty optional fields are omitted; the long
// description becomes the message body.
func (m Metadata) CoreMetadata() string {
	var b strings.Builder

	field := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", key, value)
		}
	}

	field("Metadata-Version", "2.1")
	field("Name", m.Name)
	field("Version", m.Version)
	field("Summary", m.Summary)
	field("Home-page", m.URL)
	field("Author", m.Author)
	field("Author-email", m.AuthorEmail)
	field("License", m.License)
	field("Description-Content-Type", m.LongDescriptionContentType)

	if m.LongDescription != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimLeft(m.LongDescription, "\n"))
		if !strings.HasSuffix(m.LongDescription, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String()
}

const nanobindLongDescription = `
![nanobind logo](
https://github.com/wjakob/nanobind/raw/master/docs/images/logo.jpg?raw=True)

_nanobind_ is a small binding library that exposes C++ types in Python and
vice versa. It is reminiscent of
[Boost.Python](https://www.boost.org/doc/libs/1_64_0/libs/python/doc/html)
and [pybind11](http://github.com/pybind/pybind11) and uses near-identical
syntax. In contrast to these existing tools, nanobind is more efficient:
bindings compile in a shorter amount of time, produce smaller binaries, and
have better runtime performance.

More concretely,
[benchmarks](https://nanobind.readthedocs.io/en/latest/benchmark.html) show up
to **~4× faster** compile time, **~5× smaller** binaries, and **~10× lower**
runtime overheads compared to pybind11. nanobind also outperforms Cython in
important metrics (**3-12×** binary size reduction, **1.6-4×** compilation time
reduction, similar runtime performance).

Please see the following links for tutorial and reference documentation in
[HTML](https://nanobind.readthedocs.io/en/latest/) and
[PDF](https://nanobind.readthedocs.io/_/downloads/en/latest/pdf/) formats.
`
