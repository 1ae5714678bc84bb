// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Files use kebab-case keys. Structs use camelCase JSON tags. Values are
// converted by round-tripping through JSON with the keys remapped.

func decoderFor(file string) (func([]byte, any) error, error) {
	switch s := filepath.Ext(file); s {
	case ".toml", ".tml", ".ini":
		return toml.Unmarshal, nil
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	case ".json":
		return jsonUnmarshal, nil
	default:
		return nil, errors.BadRequest.WithFormat("unknown file type %s", s)
	}
}

func encoderFor(file string) (func(any) ([]byte, error), error) {
	switch s := filepath.Ext(file); s {
	case ".toml", ".tml", ".ini":
		return MarshalTOML, nil
	case ".yaml", ".yml":
		return yaml.Marshal, nil
	case ".json":
		return func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }, nil
	default:
		return nil, errors.BadRequest.WithFormat("unknown file type %s", s)
	}
}

func jsonMarshal(v any) ([]byte, error) { return json.Marshal(v) }

// jsonUnmarshal decodes numbers as [json.Number] so large integers survive
// the round trip.
func jsonUnmarshal(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}

// MarshalTOML encodes a as TOML. TOML integers are signed 64-bit, so values
// above [math.MaxInt64] are rejected rather than written in a form that cannot
// be read back.
func MarshalTOML(a any) ([]byte, error) {
	err := checkTOMLRange(a, "")
	if err != nil {
		return nil, err
	}

	b := new(bytes.Buffer)
	e := toml.NewEncoder(b)
	err = e.Encode(a)
	return b.Bytes(), err
}

func checkTOMLRange(v any, path string) error {
	switch v := v.(type) {
	case map[string]any:
		for k, u := range v {
			p := k
			if path != "" {
				p = path + "." + k
			}
			err := checkTOMLRange(u, p)
			if err != nil {
				return err
			}
		}
	case []any:
		for i, u := range v {
			err := checkTOMLRange(u, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return err
			}
		}
	case uint64:
		if v > math.MaxInt64 {
			return errors.BadRequest.WithFormat("%s: %d is out of range for a TOML integer, use YAML or JSON", path, v)
		}
	}
	return nil
}

func readFile(fsys fs.FS, file string, v any) error {
	format, err := decoderFor(file)
	if err != nil {
		return err
	}

	f, err := fsys.Open(file)
	if err != nil {
		return errors.UnknownError.WithFormat("open %s: %w", file, err)
	}
	defer func() { _ = f.Close() }()

	b, err := io.ReadAll(f)
	if err != nil {
		return errors.UnknownError.WithFormat("read %s: %w", file, err)
	}

	err = unmarshal(b, format, v)
	if err != nil {
		return errors.BadRequest.WithFormat("decode %s: %w", file, err)
	}
	return nil
}

func writeFile(file string, v any) error {
	format, err := encoderFor(file)
	if err != nil {
		return err
	}

	b, err := marshal(v, format)
	if err != nil {
		if code := errors.Code(err); code.IsKnownError() {
			return code.WithFormat("encode %s: %w", file, err)
		}
		return errors.EncodingError.WithFormat("encode %s: %w", file, err)
	}

	err = os.WriteFile(file, b, 0600)
	if err != nil {
		return errors.UnknownError.WithFormat("write %s: %w", file, err)
	}
	return nil
}

func unmarshal(b []byte, format func([]byte, any) error, v any) error {
	var u any
	err := format(b, &u)
	if err != nil {
		return err
	}

	u = remap(u, kebab2camel, nil)
	b, err = json.Marshal(u)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, v)
}

func marshal(v any, format func(any) ([]byte, error)) ([]byte, error) {
	u, err := toKebabMap(v)
	if err != nil {
		return nil, err
	}
	return format(u)
}

func toKebabMap(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	// Use numbers so large integers survive
	var u any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	err = dec.Decode(&u)
	if err != nil {
		return nil, err
	}

	return remap(u, camel2kebab, number2int), nil
}

func remap(v any, mapKey func(string) string, mapValue func(reflect.Value) any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		u := make([]any, rv.Len())
		for i := range u {
			u[i] = remap(rv.Index(i).Interface(), mapKey, mapValue)
		}
		return u

	case reflect.Map:
		u := make(map[string]any, rv.Len())
		for it := rv.MapRange(); it.Next(); {
			u[mapKey(it.Key().String())] = remap(it.Value().Interface(), mapKey, mapValue)
		}
		return u

	default:
		if mapValue != nil && rv.IsValid() {
			return mapValue(rv)
		}
		return v
	}
}

var reKebab = regexp.MustCompile(`-[a-z]`)
var reCamel = regexp.MustCompile(`[a-z][A-Z]+`)

func kebab2camel(s string) string {
	return reKebab.ReplaceAllStringFunc(s, func(s string) string {
		return strings.ToUpper(s[1:])
	})
}

func camel2kebab(s string) string {
	return strings.ToLower(reCamel.ReplaceAllStringFunc(s, func(s string) string {
		return s[:1] + "-" + s[1:]
	}))
}

func number2int(v reflect.Value) any {
	n, ok := v.Interface().(json.Number)
	if !ok {
		return v.Interface()
	}
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return u
	}
	f, _ := n.Float64()
	return f
}

func expandEnv(v reflect.Value, expand func(string) string) {
	switch v.Kind() {
	case reflect.String:
		s := v.String()
		s = os.Expand(s, expand)
		v.SetString(s)

	case reflect.Pointer, reflect.Interface:
		expandEnv(v.Elem(), expand)

	case reflect.Slice, reflect.Array:
		for i, n := 0, v.Len(); i < n; i++ {
			expandEnv(v.Index(i), expand)
		}

	case reflect.Struct:
		typ := v.Type()
		for i, n := 0, typ.NumField(); i < n; i++ {
			if typ.Field(i).IsExported() {
				expandEnv(v.Field(i), expand)
			}
		}
	}
}
