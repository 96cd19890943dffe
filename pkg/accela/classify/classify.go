// Package classify decides whether a file name looks like a temporary or
// partial download artifact. The classifier is deliberately permissive,
// biased toward "is partial", because it is used to clean up after cancelled
// downloads. It must never gate the deletion of an installed game's real
// asset files; those are removed wholesale by directory.
package classify

import (
	"strings"

	"github.com/gobwas/glob"
)

// tempExtensions are suffixes that always mark a file as partial, including
// the compound forms the download tool produces.
var tempExtensions = []string{
	".tmp", ".partial", ".downloading", ".temp", ".incomplete",
	".chunk", ".manifest.tmp", ".chunk.tmp", ".depot.tmp",
}

// tempSubstrings are name fragments that mark a file as partial wherever
// they appear.
var tempSubstrings = []string{
	"manifest_", "chunk_", "temp_", "tmp_", "partial_",
	".download", ".incomplete", ".lock", "~$",
}

// artifactNames are download-tool bookkeeping files, always safe to remove
// during cleanup.
var artifactNames = map[string]struct{}{
	"keys.vdf":    {},
	"appinfo.vdf": {},
	"package.vdf": {},
}

// artifactPatterns are glob shapes of generated artifact files.
var artifactPatterns = []string{
	"manifest_*.depot", "manifest_*.cache", "*.chunk.tmp", "*.manifest.tmp", "~$*",
}

// Classifier matches file names against the partial/temporary patterns.
// Build one with New and reuse it; compilation of the glob patterns happens
// once.
type Classifier struct {
	globs []glob.Glob
}

// New returns a Classifier with all patterns compiled.
func New() *Classifier {
	c := &Classifier{}
	for _, pattern := range artifactPatterns {
		// Patterns are static; they always compile.
		c.globs = append(c.globs, glob.MustCompile(pattern))
	}
	return c
}

// IsPartial reports whether filename is a temporary/partial download
// artifact. A non-empty sessionID additionally matches any file whose name
// contains it.
func (c *Classifier) IsPartial(filename, sessionID string) bool {
	lower := strings.ToLower(filename)

	for _, ext := range tempExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	for _, sub := range tempSubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}

	if sessionID != "" && strings.Contains(lower, strings.ToLower(sessionID)) {
		return true
	}

	return c.isArtifact(lower)
}

// isArtifact reports whether the lowercased filename is a known
// download-tool bookkeeping file.
func (c *Classifier) isArtifact(lower string) bool {
	if _, ok := artifactNames[lower]; ok {
		return true
	}
	if strings.HasPrefix(lower, "manifest_") || strings.HasPrefix(lower, "chunk_") {
		return true
	}
	for _, g := range c.globs {
		if g.Match(lower) {
			return true
		}
	}
	return false
}
