/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml"
	"github.com/spf13/afero"
	yaml "gopkg.in/yaml.v3"
)

// writeConfigTemplate writes the defaults of every configurable flag to
// path. The extension selects the format.
func writeConfigTemplate(fs afero.Fs, path string, force bool) error {
	if !force {
		if ok, err := afero.Exists(fs, path); err != nil {
			return err
		} else if ok {
			return errors.New("destination exists; use --force to overwrite")
		}
	}

	data, err := marshalConfig(configTemplate(), configFormat(path))
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o644)
}

func configFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

// configTemplate returns the flag defaults as a tree following the
// embed prefixes.
func configTemplate() map[string]any {
	return buildMapFromStruct(reflect.TypeOf(CLI{}))
}

// The YAML and TOML loaders walk nested tables split at dashes, while the
// JSON loader looks up flat snake case names.
func marshalConfig(root map[string]any, format string) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(flattenConfig(root, ""), "", "  ")
	case "yaml":
		return yaml.Marshal(root)
	case "toml":
		tree, err := toml.TreeFromMap(root)
		if err != nil {
			return nil, err
		}
		return tree.Marshal()
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func flattenConfig(root map[string]any, prefix string) map[string]any {
	out := map[string]any{}
	for k, v := range root {
		key := prefix + strings.ReplaceAll(k, "-", "_")
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range flattenConfig(sub, key+"_") {
				out[sk] = sv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// flagName converts a field name the way kong names flags.
func flagName(f reflect.StructField) string {
	if name := f.Tag.Get("name"); name != "" {
		return name
	}

	var sb strings.Builder
	runes := []rune(f.Name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			endOfRun := i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1])
			if prevLower || endOfRun {
				sb.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func buildMapFromStruct(t reflect.Type) map[string]any {
	out := map[string]any{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("kong") == "-" || f.Tag.Get("config") == "-" {
			continue
		}

		if _, ok := f.Tag.Lookup("embed"); ok {
			sub := buildMapFromStruct(f.Type)
			if name := strings.TrimSuffix(f.Tag.Get("prefix"), "-"); name != "" {
				out[name] = sub
			} else {
				for k, v := range sub {
					out[k] = v
				}
			}
			continue
		}

		def := f.Tag.Get("default")
		if f.Tag.Get("type") == "path" && def == "" {
			// An empty path would resolve to the working directory.
			continue
		}
		if v := defaultValueForField(f.Type, def); v != nil {
			out[flagName(f)] = v
		}
	}
	return out
}

func defaultValueForField(t reflect.Type, def string) any {
	if t.PkgPath() == "time" && t.Name() == "Duration" {
		if def != "" {
			return def
		}
		return "0s"
	}

	switch t.Kind() {
	case reflect.String:
		return def
	case reflect.Bool:
		b, _ := strconv.ParseBool(def)
		return b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := strconv.ParseInt(def, 10, 64)
		return n
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _ := strconv.ParseUint(def, 10, 64)
		return n
	default:
		return nil
	}
}
