package config

import "fmt"

// Merge combines two configs where overlay takes precedence over base.
//   - version: must agree if both declare it (non-zero); fatal error on mismatch
//   - scalars and optional booleans: overlay wins when set
//   - include, exclude: concatenate (base first, then overlay), duplicates dropped
func Merge(base, overlay *Config) (*Config, error) {
	if base == nil {
		return overlay, nil
	}
	if overlay == nil {
		return base, nil
	}

	result := &Config{}

	if err := mergeVersion(base.Version, overlay.Version, &result.Version); err != nil {
		return nil, err
	}

	result.Source = pick(base.Source, overlay.Source)
	result.Dest = pick(base.Dest, overlay.Dest)
	result.BlockSize = pick(base.BlockSize, overlay.BlockSize)
	result.OnError = pick(base.OnError, overlay.OnError)
	result.TrashDir = pick(base.TrashDir, overlay.TrashDir)
	result.Manifest = pick(base.Manifest, overlay.Manifest)

	result.Strict = pickBool(base.Strict, overlay.Strict)
	result.Lock = pickBool(base.Lock, overlay.Lock)

	result.Include = mergePatterns(base.Include, overlay.Include)
	result.Exclude = mergePatterns(base.Exclude, overlay.Exclude)

	return result, nil
}

// MergeAll merges multiple configs in order (lowest precedence first).
// Returns an error if any version mismatch is found.
func MergeAll(configs []*Config) (*Config, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("no configs to merge")
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		var err error
		result, err = Merge(result, configs[i])
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func mergeVersion(base, overlay int, out *int) error {
	switch {
	case base == 0 && overlay == 0:
		*out = 0 // neither declares; validation will catch this
	case base == 0:
		*out = overlay
	case overlay == 0:
		*out = base
	case base == overlay:
		*out = base
	default:
		return fmt.Errorf("config version mismatch: one layer declares version %d, another declares version %d — all config layers must agree on version", base, overlay)
	}
	return nil
}

func pick[T comparable](base, overlay T) T {
	var zero T
	if overlay != zero {
		return overlay
	}
	return base
}

func pickBool(base, overlay *bool) *bool {
	if overlay != nil {
		return overlay
	}
	return base
}

func mergePatterns(base, overlay []string) []string {
	if len(base) == 0 {
		return overlay
	}
	if len(overlay) == 0 {
		return base
	}

	seen := make(map[string]bool, len(base)+len(overlay))
	var result []string
	for _, list := range [][]string{base, overlay} {
		for _, p := range list {
			if !seen[p] {
				seen[p] = true
				result = append(result, p)
			}
		}
	}
	return result
}
