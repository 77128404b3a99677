package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// options are the resolved settings of one casgen run.
type options struct {
	Schema  string `yaml:"schema"`
	Target  string `yaml:"target"`
	Package string `yaml:"package"`
	Header  string `yaml:"header"`
	Docs    string `yaml:"docs"`
	Install string `yaml:"install"`
	Format  bool   `yaml:"format"`
}

// readConfig reads a YAML config file. Unknown keys are rejected. Relative
// paths are resolved against the directory of the file.
func readConfig(path string) (*options, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	o := &options{}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(o); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for _, p := range []*string{&o.Schema, &o.Target, &o.Docs} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return o, nil
}
