package marketstats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// The table serializes to a single JSON object with mixed value shapes:
// category keys map to Condition→Node objects, while the secondary segment
// keys (BROKEN, ACCESSORY, UNCERTAIN) map to flat Stat objects at the top
// level. The shape is shared with the historical corpus tooling, so both
// directions are implemented here.

var flatSegments = map[string]domain.Segment{
	string(domain.SegmentBroken):    domain.SegmentBroken,
	string(domain.SegmentAccessory): domain.SegmentAccessory,
	string(domain.SegmentUncertain): domain.SegmentUncertain,
}

// MarshalJSON implements the mixed-shape table encoding.
func (t *Table) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.prime)+len(t.secondary))
	for cat, conds := range t.prime {
		byCond := make(map[string]*Node, len(conds))
		for cond, node := range conds {
			byCond[string(cond)] = node
		}
		out[string(cat)] = byCond
	}
	for seg, stat := range t.secondary {
		out[string(seg)] = stat
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements the mixed-shape table decoding. Top-level keys
// that name a secondary segment decode as flat stats; everything else is a
// category node tree.
func (t *Table) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.prime = make(map[domain.Category]map[domain.Condition]*Node)
	t.secondary = make(map[domain.Segment]Stat)

	for key, msg := range raw {
		if seg, ok := flatSegments[key]; ok {
			var s Stat
			if err := json.Unmarshal(msg, &s); err != nil {
				return fmt.Errorf("segment %q: %w", key, err)
			}
			t.secondary[seg] = s
			continue
		}

		var byCond map[string]*Node
		if err := json.Unmarshal(msg, &byCond); err != nil {
			return fmt.Errorf("category %q: %w", key, err)
		}
		conds := make(map[domain.Condition]*Node, len(byCond))
		for cond, node := range byCond {
			conds[domain.Condition(cond)] = node
		}
		t.prime[domain.Category(key)] = conds
	}
	return nil
}

// Load reads a table from disk. A missing file surfaces as an fs.ErrNotExist
// wrapped error so callers can treat it as a cold start.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stats table: %w", err)
	}
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing stats table %s: %w", path, err)
	}
	return &t, nil
}

// Save writes the table atomically: temp file in the same directory, then
// rename. Readers never see a half-written table.
func (t *Table) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding stats table: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp stats file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing stats table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing stats table: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing stats table: %w", err)
	}
	return nil
}
