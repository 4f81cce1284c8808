// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ParseStructured parses structured-data bytes according to the file
// extension and returns the decoded value. JSON numbers decode as
// json.Number so large integers survive. Unknown extensions are
// parsed as JSONC.
func ParseStructured(extension string, data []byte) (any, error) {
	switch extension {
	case "yaml", "yml":
		return parseYAML(data)
	default:
		return parseJSONC(data)
	}
}

func parseJSONC(data []byte) (any, error) {
	stripped := jsonc.ToJSON(data)

	decoder := json.NewDecoder(bytes.NewReader(stripped))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	var trailing any
	if err := decoder.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing JSON: unexpected content after the top-level value")
	}
	return value, nil
}

func parseYAML(data []byte) (any, error) {
	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return value, nil
}
