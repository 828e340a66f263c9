package combo

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/vec"
)

// Manifest is the load-time description of a layout: the clusters, each with
// its ordered membership. Member entities are implied by the names listed.
//
// The on-disk key is "combos" in every format:
//
//	{"combos": [{"name": "Jazz Night", "color": "#e4572e", "members": ["Ann", "Bob"]}]}
type Manifest struct {
	Combos []ClusterSpec `json:"combos" toml:"combos" yaml:"combos" validate:"required,min=1,dive"`
}

// ClusterSpec describes one cluster of a [Manifest].
type ClusterSpec struct {
	Name    string   `json:"name" toml:"name" yaml:"name" validate:"required"`
	Color   string   `json:"color" toml:"color" yaml:"color" validate:"required"`
	Members []string `json:"members" toml:"members" yaml:"members" validate:"min=1,dive,required"`
}

// Format identifies a manifest encoding.
type Format string

// Supported manifest formats.
const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the manifest format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errs.New(errs.ErrCodeInvalidFormat, "unsupported manifest extension %q (want .json, .toml, .yaml)", filepath.Ext(path))
	}
}

// Validate checks the manifest schema eagerly so that Load never builds a
// partially valid store. Every problem is reported as ErrCodeInvalidManifest.
func (m Manifest) Validate() error {
	if err := errs.Struct(errs.ErrCodeInvalidManifest, m); err != nil {
		return err
	}

	seen := make(map[string]bool, len(m.Combos))
	for i, c := range m.Combos {
		if err := errs.ValidateName("cluster", c.Name); err != nil {
			return err
		}
		if seen[c.Name] {
			return errs.New(errs.ErrCodeInvalidManifest, "duplicate cluster name %q (combos[%d])", c.Name, i)
		}
		seen[c.Name] = true

		if err := errs.ValidateColor(c.Color); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidManifest, err, "cluster %q", c.Name)
		}

		inCluster := make(map[string]bool, len(c.Members))
		for _, name := range c.Members {
			if err := errs.ValidateName("member", name); err != nil {
				return errs.Wrap(errs.ErrCodeInvalidManifest, err, "cluster %q", c.Name)
			}
			if inCluster[name] {
				return errs.New(errs.ErrCodeInvalidManifest, "cluster %q lists member %q twice", c.Name, name)
			}
			inCluster[name] = true
		}
	}
	return nil
}

// Load builds a Store from a manifest.
//
// The first occurrence of a member name creates the member at a random point
// of area; later occurrences reuse it. For every cluster, each member gains
// one [Fellow] entry per other member of that cluster.
//
// Load validates eagerly and fails without returning a store when the
// manifest is malformed. A nil rng draws a randomly seeded generator.
func Load(m Manifest, area vec.Rect, rng *rand.Rand) (*Store, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s := NewStore()
	for _, spec := range m.Combos {
		s.addCluster(&Cluster{
			Name:    spec.Name,
			Color:   spec.Color,
			Members: append([]string(nil), spec.Members...),
		})

		for _, name := range spec.Members {
			pos := area.Random(rng)
			member := s.memberOrCreate(name, pos)
			for _, other := range spec.Members {
				if other == name {
					continue
				}
				member.Fellows = append(member.Fellows, Fellow{Peer: other, Cluster: spec.Name})
			}
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadManifestFile reads and validates a manifest, choosing the decoder from
// the file extension.
func ReadManifestFile(path string) (Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Manifest{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "manifest %s", path)
		}
		return Manifest{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := ReadManifest(f, format)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ReadManifest decodes and validates a manifest in the given format.
func ReadManifest(r io.Reader, format Format) (Manifest, error) {
	var m Manifest
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&m); err != nil {
			return Manifest{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode json")
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&m); err != nil {
			return Manifest{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode toml")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&m); err != nil {
			return Manifest{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode yaml")
		}
	default:
		return Manifest{}, errs.New(errs.ErrCodeInvalidFormat, "unsupported manifest format %q", format)
	}

	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// WriteManifest encodes m as indented JSON.
func WriteManifest(m Manifest, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
