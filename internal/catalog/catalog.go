// Package catalog holds the immutable lookup tables used to normalize profiler
// reports: the ncu metric catalog and byte-unit table, and the likwid lane table.
// A catalog is loaded once at startup, from the embedded default or from an
// override file, and is read-only afterwards.
package catalog

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"embed"
	"fmt"
	"os"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

//go:embed resources
var resources embed.FS

const defaultCatalogPath = "resources/catalog.yaml"

// TeraScale converts operation counts to tera-operations.
const TeraScale = 1e12

// GbyteLabel is the byte unit that all byte metrics are converted to.
const GbyteLabel = "Gbyte"

// Kind selects how a raw ncu metric is normalized.
type Kind string

const (
	KindFMA   Kind = "fma"   // fused multiply-add count, two operations each
	KindBytes Kind = "bytes" // byte count, unit label in the column's first value
	KindOps   Kind = "ops"   // plain operation count
)

// InferKind returns the normalization kind implied by a raw metric name.
// Patterns are checked in order and the first match wins.
func InferKind(rawName string) Kind {
	switch {
	case strings.Contains(rawName, "fma"):
		return KindFMA
	case strings.Contains(rawName, "bytes"):
		return KindBytes
	default:
		return KindOps
	}
}

// MetricPair maps a raw ncu metric name to its output column name.
type MetricPair struct {
	Raw  string `yaml:"raw"`
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind,omitempty"`
}

// ByteUnit is a byte unit label and its size in bytes.
type ByteUnit struct {
	Label      string  `yaml:"label"`
	Multiplier float64 `yaml:"multiplier"`
}

// LaneEntry is a likwid width/precision tag and its SIMD lane count.
type LaneEntry struct {
	Tag   string `yaml:"tag"`
	Lanes int    `yaml:"lanes"`
}

// DerivedDefinition describes a metric computed from other columns of a row.
type DerivedDefinition struct {
	Name        string `yaml:"name"`
	Expression  string `yaml:"expression"`
	ZeroMissing bool   `yaml:"zero-missing,omitempty"`
}

type ncuSection struct {
	Metrics   []MetricPair        `yaml:"metrics"`
	ByteUnits []ByteUnit          `yaml:"byte-units"`
	Derived   []DerivedDefinition `yaml:"derived,omitempty"`
}

type likwidSection struct {
	FPEventPrefix     string              `yaml:"fp-event-prefix"`
	StatMarker        string              `yaml:"stat-marker"`
	MemoryVolumeLabel string              `yaml:"memory-volume-label"`
	Lanes             []LaneEntry         `yaml:"lanes"`
	Derived           []DerivedDefinition `yaml:"derived,omitempty"`
}

type catalogFile struct {
	Ncu    ncuSection    `yaml:"ncu"`
	Likwid likwidSection `yaml:"likwid"`
}

// Catalog is the full set of normalization tables.
type Catalog struct {
	source catalogFile
	ncu    Ncu
	likwid Likwid
}

// Ncu is the GPU report catalog.
type Ncu struct {
	metrics   []MetricPair
	byteUnits map[string]float64
	derived   []DerivedDefinition
}

// Likwid is the CPU report catalog.
type Likwid struct {
	fpEventPrefix     string
	statMarker        string
	memoryVolumeLabel string
	lanes             map[string]int
	derived           []DerivedDefinition
}

// Load reads the catalog at path, or the embedded default catalog when path is empty.
func Load(path string) (*Catalog, error) {
	var bytes []byte
	var err error
	if path != "" {
		if bytes, err = os.ReadFile(path); err != nil { // #nosec G304
			return nil, errors.Wrap(err, "failed to read catalog file")
		}
	} else {
		if bytes, err = resources.ReadFile(defaultCatalogPath); err != nil {
			return nil, errors.Wrap(err, "failed to read embedded catalog")
		}
	}
	c, err := Parse(bytes)
	if err != nil {
		if path == "" {
			path = defaultCatalogPath
		}
		return nil, errors.Wrapf(err, "invalid catalog %s", path)
	}
	return c, nil
}

// Parse builds a catalog from its YAML representation.
func Parse(bytes []byte) (*Catalog, error) {
	var cf catalogFile
	if err := yaml.UnmarshalStrict(bytes, &cf); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog")
	}
	for i := range cf.Ncu.Metrics {
		if cf.Ncu.Metrics[i].Kind == "" {
			cf.Ncu.Metrics[i].Kind = InferKind(cf.Ncu.Metrics[i].Raw)
		}
	}
	if err := cf.validate(); err != nil {
		return nil, err
	}
	c := &Catalog{source: cf}
	c.ncu = Ncu{
		metrics:   slices.Clone(cf.Ncu.Metrics),
		byteUnits: make(map[string]float64, len(cf.Ncu.ByteUnits)),
		derived:   slices.Clone(cf.Ncu.Derived),
	}
	for _, unit := range cf.Ncu.ByteUnits {
		c.ncu.byteUnits[unit.Label] = unit.Multiplier
	}
	c.likwid = Likwid{
		fpEventPrefix:     cf.Likwid.FPEventPrefix,
		statMarker:        cf.Likwid.StatMarker,
		memoryVolumeLabel: cf.Likwid.MemoryVolumeLabel,
		lanes:             make(map[string]int, len(cf.Likwid.Lanes)),
		derived:           slices.Clone(cf.Likwid.Derived),
	}
	for _, entry := range cf.Likwid.Lanes {
		c.likwid.lanes[entry.Tag] = entry.Lanes
	}
	return c, nil
}

func (cf *catalogFile) validate() error {
	if len(cf.Ncu.Metrics) == 0 {
		return errors.New("ncu: no metrics defined")
	}
	rawNames := mapset.NewThreadUnsafeSet[string]()
	outNames := mapset.NewThreadUnsafeSet[string]()
	for i, m := range cf.Ncu.Metrics {
		if m.Raw == "" || m.Name == "" {
			return errors.Errorf("ncu: metric %d: raw and name are required", i)
		}
		if !rawNames.Add(m.Raw) {
			return errors.Errorf("ncu: duplicate raw metric %s", m.Raw)
		}
		if !outNames.Add(m.Name) {
			return errors.Errorf("ncu: duplicate metric name %s", m.Name)
		}
		switch m.Kind {
		case KindFMA, KindBytes, KindOps:
		default:
			return errors.Errorf("ncu: metric %s: unknown kind %q", m.Raw, m.Kind)
		}
	}
	units := mapset.NewThreadUnsafeSet[string]()
	for _, u := range cf.Ncu.ByteUnits {
		if u.Multiplier <= 0 {
			return errors.Errorf("ncu: byte unit %s: multiplier must be greater than 0", u.Label)
		}
		if !units.Add(u.Label) {
			return errors.Errorf("ncu: duplicate byte unit %s", u.Label)
		}
	}
	if !units.Contains(GbyteLabel) {
		return errors.Errorf("ncu: byte unit %s is required", GbyteLabel)
	}
	if err := validateDerived("ncu", cf.Ncu.Derived, outNames); err != nil {
		return err
	}
	if cf.Likwid.FPEventPrefix == "" || cf.Likwid.StatMarker == "" || cf.Likwid.MemoryVolumeLabel == "" {
		return errors.New("likwid: fp-event-prefix, stat-marker and memory-volume-label are required")
	}
	if len(cf.Likwid.Lanes) == 0 {
		return errors.New("likwid: no lanes defined")
	}
	tags := mapset.NewThreadUnsafeSet[string]()
	for _, l := range cf.Likwid.Lanes {
		if l.Lanes <= 0 {
			return errors.Errorf("likwid: tag %s: lanes must be greater than 0", l.Tag)
		}
		if !tags.Add(l.Tag) {
			return errors.Errorf("likwid: duplicate tag %s", l.Tag)
		}
	}
	return validateDerived("likwid", cf.Likwid.Derived, mapset.NewThreadUnsafeSet[string]())
}

func validateDerived(section string, defs []DerivedDefinition, reserved mapset.Set[string]) error {
	names := mapset.NewThreadUnsafeSet[string]()
	for _, d := range defs {
		if d.Name == "" || d.Expression == "" {
			return errors.Errorf("%s: derived metrics require a name and an expression", section)
		}
		if reserved.Contains(d.Name) {
			return errors.Errorf("%s: derived metric %s collides with a catalog metric", section, d.Name)
		}
		if !names.Add(d.Name) {
			return errors.Errorf("%s: duplicate derived metric %s", section, d.Name)
		}
	}
	return nil
}

// Ncu returns the GPU report catalog.
func (c *Catalog) Ncu() Ncu { return c.ncu }

// Likwid returns the CPU report catalog.
func (c *Catalog) Likwid() Likwid { return c.likwid }

// YAML returns the catalog in the same form it is loaded from, with inferred
// metric kinds filled in.
func (c *Catalog) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c.source)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return out, nil
}

// Metrics returns the metric pairs in catalog order.
func (n Ncu) Metrics() []MetricPair { return slices.Clone(n.metrics) }

// Names returns the output column names in catalog order.
func (n Ncu) Names() []string {
	names := make([]string, 0, len(n.metrics))
	for _, m := range n.metrics {
		names = append(names, m.Name)
	}
	return names
}

// ByteMultiplier returns the size in bytes of the given unit label.
func (n Ncu) ByteMultiplier(label string) (float64, bool) {
	m, ok := n.byteUnits[label]
	return m, ok
}

// GbyteMultiplier returns the size in bytes of one Gbyte.
func (n Ncu) GbyteMultiplier() float64 { return n.byteUnits[GbyteLabel] }

// Derived returns the derived metric definitions for ncu tables.
func (n Ncu) Derived() []DerivedDefinition { return slices.Clone(n.derived) }

// FPEventPrefix is the prefix of floating point retirement events.
func (l Likwid) FPEventPrefix() string { return l.fpEventPrefix }

// StatMarker marks the aggregated statistics lines.
func (l Likwid) StatMarker() string { return l.statMarker }

// MemoryVolumeLabel starts the memory data volume statistics line.
func (l Likwid) MemoryVolumeLabel() string { return l.memoryVolumeLabel }

// Lanes returns the SIMD lane count for a width/precision tag.
func (l Likwid) Lanes(tag string) (int, bool) {
	lanes, ok := l.lanes[tag]
	return lanes, ok
}

// Tags returns the known width/precision tags, sorted.
func (l Likwid) Tags() []string {
	tags := make([]string, 0, len(l.lanes))
	for tag := range l.lanes {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// Derived returns the derived metric definitions for likwid tables.
func (l Likwid) Derived() []DerivedDefinition { return slices.Clone(l.derived) }
