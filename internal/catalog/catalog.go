package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crowagent/crowagent/internal/physics"
)

// Catalog is an immutable set of segments sharing one scenario library.
// Accessors return copies, so callers may pass the registries around freely.
type Catalog struct {
	library  Scenarios
	segments map[string]Segment
	order    []string
}

// Default builds the catalogue shipped with the binary.
func Default() (*Catalog, error) {
	return newFromFactories(DefaultScenarios(), SegmentIDs)
}

func newFromFactories(library Scenarios, ids []string) (*Catalog, error) {
	c := &Catalog{library: library, segments: make(map[string]Segment, len(ids))}
	for _, id := range ids {
		factory, err := LookupSegmentFactory(id)
		if err != nil {
			return nil, err
		}
		seg, err := factory(library)
		if err != nil {
			return nil, err
		}
		c.add(seg)
	}
	return c, nil
}

func (c *Catalog) add(seg Segment) {
	if _, exists := c.segments[seg.ID]; !exists {
		c.order = append(c.order, seg.ID)
	}
	c.segments[seg.ID] = seg
}

// Segment returns a copy of the named segment.
func (c *Catalog) Segment(id string) (Segment, error) {
	seg, ok := c.segments[id]
	if !ok {
		return Segment{}, &UnknownEntityError{Registry: RegistrySegments, Key: id, Available: c.SegmentIDs()}
	}
	return seg.clone(), nil
}

// SegmentIDs returns segment ids in registration order.
func (c *Catalog) SegmentIDs() []string {
	return append([]string(nil), c.order...)
}

// Library returns a copy of the full scenario library.
func (c *Catalog) Library() Scenarios { return c.library.Clone() }

// ---- YAML catalogue files --------------------------------------------------

type fileSegment struct {
	ID        string    `yaml:"id"`
	Label     string    `yaml:"label"`
	Buildings Buildings `yaml:"buildings"`
	Scenarios []string  `yaml:"scenarios"`
	Defaults  []string  `yaml:"defaults"`
}

type fileCatalog struct {
	Scenarios Scenarios     `yaml:"scenarios"`
	Segments  []fileSegment `yaml:"segments"`
}

// Load reads a YAML catalogue. An omitted scenarios section falls back to
// DefaultScenarios; an omitted segments section builds the built-in segments
// against the file's scenarios. Every record is validated.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Catalog, error) {
	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	library := fc.Scenarios
	if len(library) == 0 {
		library = DefaultScenarios()
	}
	for name, s := range library {
		if err := physics.ValidateScenario(s); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", name, err)
		}
	}

	if len(fc.Segments) == 0 {
		return newFromFactories(library, SegmentIDs)
	}

	c := &Catalog{library: library, segments: make(map[string]Segment, len(fc.Segments))}
	for i, fs := range fc.Segments {
		if fs.ID == "" {
			return nil, fmt.Errorf("segment #%d: missing id", i+1)
		}
		if _, dup := c.segments[fs.ID]; dup {
			return nil, fmt.Errorf("segment %s: declared twice", fs.ID)
		}
		if len(fs.Buildings) == 0 {
			return nil, fmt.Errorf("segment %s: no buildings", fs.ID)
		}
		whitelist := fs.Scenarios
		if len(whitelist) == 0 {
			whitelist = library.Names()
		}
		label := fs.Label
		if label == "" {
			label = fs.ID
		}
		seg, err := buildSegment(fs.ID, label, fs.Buildings, whitelist, fs.Defaults, library)
		if err != nil {
			return nil, err
		}
		c.add(seg)
	}
	return c, nil
}

// LoadOrDefault loads path when it is set and falls back to Default.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}
