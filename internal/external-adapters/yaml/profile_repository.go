package yaml

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/domain/interfaces/repositories"
)

//go:embed profiles/*.yml
var builtinProfiles embed.FS

// ProfileRepository implements repositories.ProfileRepository over the
// built-in profiles plus optional user-supplied profile files
type ProfileRepository struct {
	profiles map[string]*entities.Profile
	parser   *ProfileParser
}

var _ repositories.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository loads the built-in profiles, then the profiles in
// overridePath (a YAML file or a directory of .yml files). A profile from
// overridePath replaces a built-in one with the same name.
func NewProfileRepository(overridePath string) (*ProfileRepository, error) {
	r := &ProfileRepository{
		profiles: make(map[string]*entities.Profile),
		parser:   NewProfileParser(),
	}

	if err := r.loadFS(builtinProfiles, "profiles"); err != nil {
		return nil, fmt.Errorf("failed to load built-in profiles: %w", err)
	}

	if overridePath == "" {
		return r, nil
	}

	info, err := os.Stat(overridePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	if info.IsDir() {
		if err := r.loadFS(os.DirFS(overridePath), "."); err != nil {
			return nil, fmt.Errorf("failed to load profiles from %s: %w", overridePath, err)
		}
		return r, nil
	}

	profiles, err := r.parser.ParseFile(overridePath)
	if err != nil {
		return nil, err
	}
	r.add(profiles)
	return r, nil
}

func (r *ProfileRepository) loadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		// Skip non-YAML files
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		profiles, err := r.parser.ParseAll(data)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
		r.add(profiles)
	}
	return nil
}

func (r *ProfileRepository) add(profiles []*entities.Profile) {
	for _, p := range profiles {
		r.profiles[p.Name] = p
	}
}

// GetProfile retrieves a profile by name
func (r *ProfileRepository) GetProfile(_ context.Context, name string) (*entities.Profile, error) {
	profile, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile not found: %s", name)
	}
	return profile, nil
}

// ListProfiles returns all profiles sorted by name
func (r *ProfileRepository) ListProfiles(_ context.Context) ([]*entities.Profile, error) {
	profiles := make([]*entities.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Name < profiles[j].Name
	})
	return profiles, nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")
}
