// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stix

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/pdiddy/atrm-graph/pkg/types"
)

// contentHashLen is the number of hex digits of the content hash used in
// versioned artifact names.
const contentHashLen = 12

const stagingSuffix = ".tmp"

// ArtifactNames returns the latest and versioned file names for data.
func ArtifactNames(mode types.Mode, data []byte) (latest, versioned string) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])[:contentHashLen]
	latest = fmt.Sprintf("atrm_%s.json", mode.FileStem())
	versioned = fmt.Sprintf("atrm_%s_%s.json", mode.FileStem(), hash)
	return latest, versioned
}

// WriteArtifacts writes data to dir twice: under the mode's latest name
// and under a name carrying the content hash. It returns both paths,
// latest first. Both files are staged before either is renamed into place,
// and the versioned copy lands before latest, so a failure never leaves a
// new latest file without its versioned copy.
func WriteArtifacts(fs afero.Fs, dir string, mode types.Mode, data []byte) ([]string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating build directory %s: %w", dir, err)
	}

	latest, versioned := ArtifactNames(mode, data)
	paths := []string{filepath.Join(dir, latest), filepath.Join(dir, versioned)}

	var staged []string
	cleanup := func() {
		for _, tmp := range staged {
			fs.Remove(tmp)
		}
	}

	for _, path := range paths {
		tmp := path + stagingSuffix
		staged = append(staged, tmp)
		if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
			cleanup()
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
	}

	for _, i := range []int{1, 0} {
		if err := fs.Rename(staged[i], paths[i]); err != nil {
			cleanup()
			return nil, fmt.Errorf("renaming %s: %w", paths[i], err)
		}
	}
	return paths, nil
}
