package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

// manifest describes the embedded migration set: the highest version and
// a content checksum. Both are written into the schema state row so a
// migrated database carries proof of which set produced it.
type manifest struct {
	Latest   uint
	Checksum string
}

func loadManifest() (manifest, error) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	if err != nil {
		return manifest{}, fmt.Errorf("list migrations: %w", err)
	}

	var names []string
	var latest uint
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		version, err := migrationVersion(name)
		if err != nil {
			return manifest{}, err
		}
		if version > latest {
			latest = version
		}
		names = append(names, name)
	}
	if latest == 0 {
		return manifest{}, errors.New("no embedded migrations found")
	}

	sort.Strings(names)
	hasher := sha256.New()
	for _, name := range names {
		content, err := embeddedMigrations.ReadFile(migrationsDir + "/" + name)
		if err != nil {
			return manifest{}, fmt.Errorf("read migration %s: %w", name, err)
		}
		hasher.Write([]byte(name))
		hasher.Write([]byte{0})
		hasher.Write(content)
		hasher.Write([]byte{0})
	}

	return manifest{
		Latest:   latest,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func migrationVersion(name string) (uint, error) {
	prefix, _, found := strings.Cut(name, "_")
	if !found {
		return 0, fmt.Errorf("migration %s has no version prefix", name)
	}
	version, err := strconv.ParseUint(prefix, 10, 32)
	if err != nil || version == 0 {
		return 0, fmt.Errorf("migration %s has no version prefix", name)
	}
	return uint(version), nil
}
