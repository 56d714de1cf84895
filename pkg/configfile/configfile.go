// Package configfile decodes the YAML/JSON registry files read by the
// harvester and expands ${NAME} references in their values.
package configfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type decoder struct {
	format string
	fn     func([]byte, any) error
}

var decoders = map[string]decoder{
	".yaml": {format: "yaml", fn: yaml.Unmarshal},
	".yml":  {format: "yaml", fn: yaml.Unmarshal},
	".json": {format: "json", fn: json.Unmarshal},
}

// Decode reads path and decodes it into out. The extension picks the format;
// files without one are tried as YAML, then JSON. kind names the file in
// error messages ("searches", "publishers").
func Decode(path, kind string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%s file path is empty", kind)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s file: %w", kind, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if d, ok := decoders[ext]; ok {
		if err := d.fn(raw, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", d.format, kind, err)
		}
		return nil
	}
	if ext != "" {
		return fmt.Errorf("%s file %q: unsupported extension %q (expected .yaml, .yml or .json)", kind, path, ext)
	}

	var errs []error
	for _, d := range []decoder{decoders[".yaml"], decoders[".json"]} {
		err := d.fn(raw, out)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("decode %s %s: %w", d.format, kind, err))
	}
	return errors.Join(errs...)
}

// Expand trims s and replaces ${NAME} and $NAME with environment values.
func Expand(s string) string {
	return strings.TrimSpace(os.ExpandEnv(strings.TrimSpace(s)))
}

// ExpandMap applies Expand to keys and values and drops entries left empty.
func ExpandMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		k, v = Expand(k), Expand(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
