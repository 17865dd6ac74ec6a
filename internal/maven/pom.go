// SPDX-License-Identifier: MPL-2.0

package maven

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/invowk/rtenv/pkg/requirement"
)

const (
	// PackagingJar is the default packaging of a project.
	PackagingJar = "jar"
	// PackagingPOM marks aggregate projects that publish no artifact.
	PackagingPOM = "pom"

	// maxDescriptorBytes bounds a descriptor read into memory (4 MiB).
	maxDescriptorBytes = 4 << 20
)

// ErrInvalidDescriptor is returned when a descriptor cannot be parsed.
var ErrInvalidDescriptor = errors.New("invalid project descriptor")

var propertyRef = regexp.MustCompile(`\$\{([^}]+)\}`)

type (
	// Project is the subset of a POM the resolver needs.
	Project struct {
		GroupID      string       `xml:"groupId"`
		ArtifactID   string       `xml:"artifactId"`
		Version      string       `xml:"version"`
		Packaging    string       `xml:"packaging"`
		Parent       Parent       `xml:"parent"`
		Properties   Properties   `xml:"properties"`
		Dependencies []Dependency `xml:"dependencies>dependency"`
		Managed      []Dependency `xml:"dependencyManagement>dependencies>dependency"`

		// Raw holds the bytes the project was parsed from.
		Raw []byte `xml:"-"`
	}

	// Parent is the <parent> reference of a project.
	Parent struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
		Version    string `xml:"version"`
	}

	// Dependency is one <dependency> entry.
	Dependency struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
		Version    string `xml:"version"`
		Type       string `xml:"type"`
		Classifier string `xml:"classifier"`
		Scope      string `xml:"scope"`
		Optional   string `xml:"optional"`
	}

	// Properties holds the free-form <properties> block.
	Properties map[string]string
)

// UnmarshalXML collects every child element of <properties> as name -> text.
func (p *Properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	props := Properties{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			props[t.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				*p = props
				return nil
			}
		}
	}
}

// Parse decodes a POM. Group and version are inherited from <parent> when the
// project omits them.
func Parse(data []byte) (*Project, error) {
	if len(data) > maxDescriptorBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit", ErrInvalidDescriptor, len(data))
	}

	var p Project
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}

	p.GroupID = strings.TrimSpace(p.GroupID)
	p.ArtifactID = strings.TrimSpace(p.ArtifactID)
	p.Version = strings.TrimSpace(p.Version)
	p.Packaging = strings.TrimSpace(p.Packaging)

	if p.GroupID == "" {
		p.GroupID = strings.TrimSpace(p.Parent.GroupID)
	}
	if p.Version == "" {
		p.Version = strings.TrimSpace(p.Parent.Version)
	}
	if p.Packaging == "" {
		p.Packaging = PackagingJar
	}
	if p.ArtifactID == "" {
		return nil, fmt.Errorf("%w: missing artifactId", ErrInvalidDescriptor)
	}

	p.GroupID = p.Interpolate(p.GroupID)
	p.Version = p.Interpolate(p.Version)
	p.Raw = data
	return &p, nil
}

// Coordinate returns the project's own coordinate.
func (p *Project) Coordinate() requirement.Coordinate {
	return requirement.Coordinate{Group: p.GroupID, Artifact: p.ArtifactID, Version: p.Version}
}

// WithCoordinate returns a copy of p published under c. Repositories lay
// files out by the requested coordinate, which may differ from what the
// descriptor declares (unflattened ${revision} versions, relocations).
func (p *Project) WithCoordinate(c requirement.Coordinate) *Project {
	cp := *p
	cp.GroupID, cp.ArtifactID, cp.Version = c.Group, c.Artifact, c.Version
	return &cp
}

// HasArtifact reports whether the project publishes a binary artifact.
func (p *Project) HasArtifact() bool {
	return p.Packaging != PackagingPOM
}

// Extension returns the file extension of the project's artifact. Bundle and
// plugin packagings still publish jars.
func (p *Project) Extension() string {
	switch p.Packaging {
	case "", PackagingJar, "bundle", "maven-plugin", "eclipse-plugin":
		return PackagingJar
	default:
		return p.Packaging
	}
}

// ExtensionFor returns the extension of p's artifact when reached through
// dependency d. Bundle and jar typed dependencies always use jars.
func (p *Project) ExtensionFor(d Dependency) string {
	if d.Type == "bundle" || d.Type == PackagingJar {
		return PackagingJar
	}
	return p.Extension()
}

// Interpolate replaces ${...} references with project values and properties.
// Unknown references are left as they are.
func (p *Project) Interpolate(s string) string {
	// Properties may reference each other; a few passes settle chains.
	for range 4 {
		if !strings.Contains(s, "${") {
			return s
		}
		next := propertyRef.ReplaceAllStringFunc(s, func(ref string) string {
			if v, ok := p.lookup(ref[2 : len(ref)-1]); ok {
				return v
			}
			return ref
		})
		if next == s {
			return s
		}
		s = next
	}
	return s
}

func (p *Project) lookup(name string) (string, bool) {
	switch name {
	case "project.groupId", "pom.groupId", "groupId":
		return p.GroupID, p.GroupID != ""
	case "project.artifactId", "pom.artifactId", "artifactId":
		return p.ArtifactID, true
	case "project.version", "pom.version", "version":
		return p.Version, p.Version != ""
	case "project.parent.groupId", "parent.groupId":
		return p.Parent.GroupID, p.Parent.GroupID != ""
	case "project.parent.version", "parent.version":
		return p.Parent.Version, p.Parent.Version != ""
	}
	v, ok := p.Properties[name]
	return v, ok
}

// RuntimeDependencies returns the dependencies needed on the runtime class
// path: compile and runtime scope, not optional, with versions filled from
// dependencyManagement and interpolated. Entries whose version stays
// unresolved are returned separately so callers can report them.
func (p *Project) RuntimeDependencies() (deps []Dependency, unresolved []Dependency) {
	for _, d := range p.Dependencies {
		d = p.expand(d)
		if !d.IsRuntime() {
			continue
		}
		if d.Version == "" {
			d.Version = p.managedVersion(d)
		}
		if d.Version == "" || strings.Contains(d.Version, "${") || d.GroupID == "" || strings.Contains(d.GroupID, "${") {
			unresolved = append(unresolved, d)
			continue
		}
		deps = append(deps, d)
	}
	return deps, unresolved
}

// IsRuntime reports whether d belongs on the runtime class path.
func (d Dependency) IsRuntime() bool {
	if strings.EqualFold(d.Optional, "true") {
		return false
	}
	switch d.Scope {
	case "", "compile", "runtime":
	default:
		return false
	}
	return d.Type == "" || d.Type == PackagingJar || d.Type == "bundle"
}

// Coordinate returns the dependency's coordinate.
func (d Dependency) Coordinate() requirement.Coordinate {
	return requirement.Coordinate{Group: d.GroupID, Artifact: d.ArtifactID, Version: d.Version}
}

// String returns "group:artifact:version".
func (d Dependency) String() string {
	return d.Coordinate().String()
}

func (p *Project) expand(d Dependency) Dependency {
	d.GroupID = p.Interpolate(strings.TrimSpace(d.GroupID))
	d.ArtifactID = p.Interpolate(strings.TrimSpace(d.ArtifactID))
	d.Version = p.Interpolate(strings.TrimSpace(d.Version))
	d.Scope = strings.TrimSpace(d.Scope)
	d.Type = strings.TrimSpace(d.Type)
	d.Optional = strings.TrimSpace(d.Optional)
	return d
}

func (p *Project) managedVersion(d Dependency) string {
	for _, m := range p.Managed {
		m = p.expand(m)
		if m.GroupID == d.GroupID && m.ArtifactID == d.ArtifactID && m.Scope != "import" {
			return m.Version
		}
	}
	return ""
}
