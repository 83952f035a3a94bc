package sniff

import (
	"os"
	"path/filepath"
	"strings"
)

// Known alias spellings per detected format, tried in order when the
// canonical extension is not in the configured sets.
var formatVariants = map[string][]string{
	"JPEG": {".jpg", ".jpeg"},
	"TIFF": {".tiff", ".tif"},
	"MP3":  {".mp3"},
	"OGG":  {".ogg", ".oga", ".ogv"},
}

// CorrectExtension maps the sniffed format of the file at path onto the
// caller-configured extension sets. It never invents an extension
// outside those sets; ok is false when detection fails or no configured
// spelling fits.
func CorrectExtension(path string, imageExts, videoExts, audioExts []string) (string, bool) {
	res, ok := Detect(path)
	if !ok {
		return "", false
	}

	all := make([]string, 0, len(imageExts)+len(videoExts)+len(audioExts))
	all = append(all, imageExts...)
	all = append(all, videoExts...)
	all = append(all, audioExts...)

	for _, ext := range all {
		if ext == res.Ext {
			return res.Ext, true
		}
	}

	for _, variant := range formatVariants[res.Format] {
		for _, ext := range all {
			if ext == variant {
				return variant, true
			}
		}
	}

	return "", false
}

// ValidateAndCorrect renames the file at path to its detected extension
// when they disagree. It is a no-op when detection fails, the current
// extension already matches, applyRename is false, or the target name
// is taken; the returned path is only different from the input on an
// actual rename, and then callers must re-key any tracking by it.
func ValidateAndCorrect(path string, imageExts, videoExts, audioExts []string, applyRename bool) (string, bool) {
	res, ok := Detect(path)
	if !ok {
		return path, false
	}

	currentExt := strings.ToLower(filepath.Ext(path))
	if currentExt == res.Ext {
		return path, false
	}

	correctExt, ok := CorrectExtension(path, imageExts, videoExts, audioExts)
	if !ok || currentExt == correctExt {
		return path, false
	}

	if !applyRename {
		return path, false
	}

	newPath := strings.TrimSuffix(path, filepath.Ext(path)) + correctExt
	if newPath == path {
		return path, false
	}
	if _, err := os.Stat(newPath); err == nil {
		// Never clobber an existing file.
		return path, false
	}
	if err := os.Rename(path, newPath); err != nil {
		return path, false
	}
	return newPath, true
}
