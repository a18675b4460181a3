package pipeline

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/schemalayout/pkg/errors"
)

// LoadConfig reads options from a TOML file. Unknown keys are rejected so
// typos do not silently fall back to defaults.
//
//	grid_unit = 24
//	margin_units = 4
//	max_expansions = 10000
//	aligned = true
//	placer = "eades"
//	seed = 42
//	cache_ttl = "24h"
//	redis_url = "redis://localhost:6379/0"
func LoadConfig(path string) (Options, error) {
	if err := errors.ValidatePath(path); err != nil {
		return Options{}, err
	}
	var opts Options
	md, err := toml.DecodeFile(path, &opts)
	if err != nil {
		if os.IsNotExist(err) {
			return Options{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return Options{}, errors.Wrap(errors.ErrCodeInvalidOption, err, "decode config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Options{}, errors.New(errors.ErrCodeInvalidOption, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return opts, nil
}
