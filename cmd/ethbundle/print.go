package main

import (
	"encoding/json"
	"strings"
)

// prettyJSON prints an object in "prettified" JSON format
func prettyJSON(toJSON any) (string, error) {
	b, err := json.MarshalIndent(toJSON, "", "  ")
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(b), "\n"), nil
}
