package config

import "slices"

// Profile is a named set of sheet settings, typically one per institution.
// Pointer fields distinguish "not set" from false.
type Profile struct {
	// OrganizationName is printed on the sheet.
	OrganizationName string `yaml:"organizationName,omitempty"`

	// Format is the output format.
	Format string `yaml:"format,omitempty"`

	// OutputDir is the directory for generated files.
	OutputDir string `yaml:"outputDir,omitempty"`

	// Title overrides the PDF document title.
	Title string `yaml:"title,omitempty"`

	Compress      *bool `yaml:"compress,omitempty"`
	FillPasswords *bool `yaml:"fillPasswords,omitempty"`
	Strict        *bool `yaml:"strict,omitempty"`
	HidePasswords *bool `yaml:"hidePasswords,omitempty"`
}

// File represents the structure of the .credsheet configuration file.
type File struct {
	// Defaults apply to every run.
	Defaults Profile `yaml:"defaults,omitempty"`

	// Profiles maps a profile name to settings layered over Defaults.
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// GetProfile returns Defaults merged with the named profile.
// An empty name returns Defaults alone. An unknown name returns
// ErrProfileNotFound.
func (cf *File) GetProfile(name string) (Profile, error) {
	result := cf.Defaults
	if name == "" {
		return result, nil
	}

	p, ok := cf.Profiles[name]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}

	if p.OrganizationName != "" {
		result.OrganizationName = p.OrganizationName
	}
	if p.Format != "" {
		result.Format = p.Format
	}
	if p.OutputDir != "" {
		result.OutputDir = p.OutputDir
	}
	if p.Title != "" {
		result.Title = p.Title
	}
	if p.Compress != nil {
		result.Compress = p.Compress
	}
	if p.FillPasswords != nil {
		result.FillPasswords = p.FillPasswords
	}
	if p.Strict != nil {
		result.Strict = p.Strict
	}
	if p.HidePasswords != nil {
		result.HidePasswords = p.HidePasswords
	}
	return result, nil
}

// ProfileNames returns the sorted profile names defined in the file.
func (cf *File) ProfileNames() []string {
	names := make([]string, 0, len(cf.Profiles))
	for name := range cf.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
