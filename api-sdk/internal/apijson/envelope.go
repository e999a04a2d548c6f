// Package apijson unwraps the {status, data} envelope every endpoint
// answers with.
package apijson

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var ErrMissingData = errors.New("apijson: response has no data field")

// UnmarshalData decodes data.<path> of raw into dst. An empty path decodes
// the whole data object. Bodies without an envelope are decoded from the
// root so older endpoints keep working.
func UnmarshalData(raw []byte, path string, dst any) error {
	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("apijson: invalid json body")
	}

	node := Data(raw, path)
	if !node.Exists() {
		if path == "" {
			return ErrMissingData
		}
		return fmt.Errorf("apijson: missing %q in response", "data."+path)
	}

	if node.Type == gjson.Null {
		return nil
	}

	if err := json.Unmarshal([]byte(node.Raw), dst); err != nil {
		return fmt.Errorf("apijson: decode %q: %w", path, err)
	}
	return nil
}

// Data returns the node at data.<path>, falling back to <path> at the root
// when the body was not wrapped.
func Data(raw []byte, path string) gjson.Result {
	full := "data"
	if path != "" {
		full += "." + path
	}

	if node := gjson.GetBytes(raw, full); node.Exists() {
		return node
	}
	if path == "" || gjson.GetBytes(raw, "data").Exists() {
		return gjson.Result{}
	}
	return gjson.GetBytes(raw, path)
}

// Status reports the envelope status ("success", "error", ...).
func Status(raw []byte) string {
	return gjson.GetBytes(raw, "status").String()
}
