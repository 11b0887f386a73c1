package windowing

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/carbocation/pfx"
)

// ErrMalformedStore marks a window-point file whose content does not parse
// as the expected channel-to-point mapping. Fatal to the operation that
// depends on the store.
var ErrMalformedStore = errors.New("windowing: malformed window point store")

// Store maps a channel key (see ChannelKey) to its calibrated window point.
// After the calibration stage commits it, the store is read-only.
type Store map[string]Point

// ChannelKey is the store key for a zero-based channel index.
func ChannelKey(channel int) string {
	return fmt.Sprintf("Channel_%d", channel)
}

// Lookup returns the window for a channel, falling back to FullRange when
// the channel is missing or its stored point is invalid.
func (s Store) Lookup(channel int) Point {
	p, ok := s[ChannelKey(channel)]
	if !ok || !p.Valid() {
		return FullRange
	}
	return p
}

// LoadStore reads a window-point store from a JSON file.
func LoadStore(path string) (Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	var s Store
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedStore, path, err)
	}

	return s, nil
}

// SaveStore writes the store as indented JSON, creating parent directories
// as needed. Write failures are fatal: a silently partial store would
// corrupt every later conversion.
func SaveStore(s Store, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return pfx.Err(err)
		}
	}

	bts, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(os.WriteFile(path, bts, 0644))
}
