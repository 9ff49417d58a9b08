package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Decode parses a YAML catalog from r. Unknown keys are rejected.
func Decode(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cat Catalog
	if err := dec.Decode(&cat); err != nil {
		if err == io.EOF {
			return &cat, nil
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &cat, nil
}

// LoadFile reads a catalog from path. Files ending in ".xz" are
// decompressed first. An empty path loads the built-in catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Decode(bytes.NewReader(defaultCatalog))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xzReader, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating xz reader: %w", err)
		}
		r = xzReader
	}
	return Decode(r)
}

// Encode writes cat as YAML to w.
func Encode(w io.Writer, cat *Catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cat); err != nil {
		return err
	}
	return enc.Close()
}

// WriteFile writes cat to path, compressing it when path ends in ".xz".
func WriteFile(path string, cat *Catalog) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".xz") {
		return Encode(f, cat)
	}
	xzWriter, err := xz.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating xz writer: %w", err)
	}
	if err := Encode(xzWriter, cat); err != nil {
		xzWriter.Close()
		return err
	}
	return xzWriter.Close()
}
