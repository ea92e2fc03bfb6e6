package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// readListings loads a listings dump from a file or stdin ("-"). Both a JSON
// array and newline-delimited JSON objects are accepted.
func readListings(path string) ([]domain.Listing, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path) //nolint:gosec // path from trusted CLI arg
		if err != nil {
			return nil, fmt.Errorf("opening listings file: %w", err)
		}
		defer f.Close() //nolint:errcheck // read-only
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading listings: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var listings []domain.Listing
		if err := json.Unmarshal(data, &listings); err != nil {
			return nil, fmt.Errorf("parsing listings array: %w", err)
		}
		return listings, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var listings []domain.Listing
	for dec.More() {
		var l domain.Listing
		if err := dec.Decode(&l); err != nil {
			return nil, fmt.Errorf("parsing listing %d: %w", len(listings)+1, err)
		}
		listings = append(listings, l)
	}
	return listings, nil
}
