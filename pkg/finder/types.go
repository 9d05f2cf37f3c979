package finder

// Query describes one discovery call. It is not modified by the Finder.
type Query struct {
	Root             string   `yaml:"root" json:"root"`                                             // Directory to search; required.
	Include          []string `yaml:"include,omitempty" json:"include,omitempty"`                   // Globs relative to Root; empty means every file.
	Exclude          []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`                   // Globs removed from the include set; also prune directories.
	MaxDepth         int      `yaml:"max_depth,omitempty" json:"maxDepth,omitempty"`                // Path segments below Root; 0 is unlimited.
	FollowSymlinks   bool     `yaml:"follow_symlinks,omitempty" json:"followSymlinks,omitempty"`    // Report and descend through symbolic links.
	IncludeHidden    bool     `yaml:"include_hidden,omitempty" json:"includeHidden,omitempty"`      // Report dot-files and descend into dot-directories.
	HonorIgnoreFiles *bool    `yaml:"honor_ignore_files,omitempty" json:"honorIgnoreFiles,omitempty"` // Overrides Config.HonorIgnoreFiles when set.
	LogicalRoot      string   `yaml:"logical_root,omitempty" json:"logicalRoot,omitempty"`          // Prefix for Result.LogicalPath.
}

// Result is one discovered file.
type Result struct {
	RelativePath string         `json:"relativePath"`          // Posix path relative to the query root.
	SourcePath   string         `json:"sourcePath"`            // Absolute path as reached by the traversal.
	LogicalPath  string         `json:"logicalPath,omitempty"` // LogicalRoot joined with RelativePath.
	Loader       string         `json:"loader"`                // Classification tag from Config.Loader.
	Metadata     map[string]any `json:"metadata,omitempty"`    // Filled by collaborators, never by the Finder.
}

// Progress counts the work done so far in one call.
type Progress struct {
	Visited int    // Files considered.
	Matched int    // Results produced.
	Skipped int    // Items dropped after a recoverable error.
	Current string // Relative path of the latest result.
}

// Diagnostic is one finding from a QueryValidator.
type Diagnostic struct {
	Pointer string `json:"pointer"` // JSON pointer to the offending field, e.g. "/maxDepth".
	Message string `json:"message"`
}

// QueryValidator checks a Query's shape before traversal starts.
type QueryValidator interface {
	ValidateQuery(q Query) []Diagnostic
}

// BoolPtr is a helper for Query.HonorIgnoreFiles.
func BoolPtr(v bool) *bool {
	return &v
}
