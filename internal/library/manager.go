// Package library owns the on-disk output tree
// {output}/{creator}/{Images|Videos|Other} and the bookkeeping around
// it: ignore lists, existing-file filtering and metadata exports.
package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/civitai"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/config"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/logger"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
)

// IgnoreFileName sits in a creator's folder and lists filenames the
// update flow must never download again.
const IgnoreFileName = "ignore.txt"

// Manager handles creator folder layout and existence scans. Folder
// scans are cached per folder; the downloader invalidates entries as it
// writes.
type Manager struct {
	outputDir string
	imageExts []string
	videoExts []string

	mu    sync.Mutex
	scans map[string]map[string]struct{}
}

func NewManager(outputDir string, imageExts, videoExts []string) *Manager {
	return &Manager{
		outputDir: outputDir,
		imageExts: imageExts,
		videoExts: videoExts,
		scans:     make(map[string]map[string]struct{}),
	}
}

func (m *Manager) OutputDir() string { return m.outputDir }

// CreatorPath returns the base folder for a creator's content.
func (m *Manager) CreatorPath(creator string) string {
	return filepath.Join(m.outputDir, creator)
}

// EnsureCreatorDirs creates the creator's base folder and returns the
// per-type folder map the downloader writes into. Subfolders are made
// lazily at write time, so an image-only creator never grows an empty
// Videos folder.
func (m *Manager) EnsureCreatorDirs(creator string) (map[model.MediaType]string, error) {
	base := m.CreatorPath(creator)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("creating folder for %s: %w", creator, err)
	}
	return map[model.MediaType]string{
		model.MediaTypeImages: filepath.Join(base, model.MediaTypeImages.String()),
		model.MediaTypeVideos: filepath.Join(base, model.MediaTypeVideos.String()),
		model.MediaTypeOther:  filepath.Join(base, model.MediaTypeOther.String()),
	}, nil
}

// LoadIgnoreList reads the creator's ignore.txt. One filename per
// line; blank lines and #-comments are skipped. A missing or unreadable
// file is an empty list.
func (m *Manager) LoadIgnoreList(creator string) map[string]struct{} {
	ignored := make(map[string]struct{})
	path := filepath.Join(m.CreatorPath(creator), IgnoreFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf(context.Background(), "could not read %s: %v", path, err)
		}
		return ignored
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ignored[line] = struct{}{}
	}
	return ignored
}

// CountItemsByType tallies items into the folder each would land in.
func (m *Manager) CountItemsByType(items []model.MediaItem) map[model.MediaType]int {
	counts := map[model.MediaType]int{
		model.MediaTypeImages: 0,
		model.MediaTypeVideos: 0,
		model.MediaTypeOther:  0,
	}
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		ext := civitai.ExtensionFromURL(item.URL)
		counts[civitai.MediaTypeForExtension(ext, m.imageExts, m.videoExts)]++
	}
	return counts
}

// ExportCreatorData writes the creator's full API payload to
// {creator}_all_data.json with video URLs canonicalised to original
// quality, preserving every field the API sent.
func (m *Manager) ExportCreatorData(creator string, items []model.MediaItem) error {
	entries := make([]any, 0, len(items))
	for _, item := range items {
		entries = append(entries, exportEntry(item, m.videoExts))
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export for %s: %w", creator, err)
	}
	path := filepath.Join(m.CreatorPath(creator), creator+"_all_data.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing export for %s: %w", creator, err)
	}
	return nil
}

func exportEntry(item model.MediaItem, videoExts []string) any {
	if len(item.Raw) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(item.Raw, &obj); err == nil {
			if u, ok := obj["url"].(string); ok {
				obj["url"] = civitai.CanonicalVideoURL(u, videoExts)
			}
			return obj
		}
	}
	item.URL = civitai.CanonicalVideoURL(item.URL, videoExts)
	item.Raw = nil
	return item
}

// FilterExisting drops items that are already on disk or ignored.
// Matching is extension-agnostic on the lowercased stem, so a file
// whose extension was corrected after download still counts as
// present. One cached directory scan per media folder.
func (m *Manager) FilterExisting(items []model.MediaItem, creator string, useIgnore bool) []model.MediaItem {
	var ignored map[string]struct{}
	if useIgnore {
		ignored = m.LoadIgnoreList(creator)
	}

	type entry struct {
		filename string
		item     model.MediaItem
	}
	byFolder := make(map[string][]entry)
	base := m.CreatorPath(creator)

	for _, item := range items {
		if item.URL == "" {
			continue
		}
		filename := civitai.SafeFilenameFromURL(item.URL)
		if useIgnore {
			if _, skip := ignored[filename]; skip {
				continue
			}
		}
		ext := civitai.ExtensionFromURL(item.URL)
		folder := filepath.Join(base, civitai.MediaTypeForExtension(ext, m.imageExts, m.videoExts).String())
		byFolder[folder] = append(byFolder[folder], entry{filename: filename, item: item})
	}

	var needed []model.MediaItem
	for folder, entries := range byFolder {
		existing := m.existingBases(folder)
		for _, e := range entries {
			if _, ok := existing[baseName(e.filename)]; ok {
				continue
			}
			needed = append(needed, e.item)
		}
	}
	return needed
}

// existingBases scans a folder for files with configured media
// extensions and returns their lowercased stems, caching the result.
func (m *Manager) existingBases(folder string) map[string]struct{} {
	m.mu.Lock()
	if cached, ok := m.scans[folder]; ok {
		m.mu.Unlock()
		return cached
	}
	m.mu.Unlock()

	bases := make(map[string]struct{})
	dirents, err := os.ReadDir(folder)
	if err == nil {
		for _, de := range dirents {
			if de.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(de.Name()))
			if m.knownExtension(ext) {
				bases[baseName(de.Name())] = struct{}{}
			}
		}
	} else if !os.IsNotExist(err) {
		logger.Warnf(context.Background(), "could not scan %s: %v", folder, err)
	}

	m.mu.Lock()
	m.scans[folder] = bases
	m.mu.Unlock()
	return bases
}

func (m *Manager) knownExtension(ext string) bool {
	for _, e := range m.imageExts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	for _, e := range m.videoExts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// InvalidateFolder drops the cached scan for a folder so the next
// existence check sees fresh contents.
func (m *Manager) InvalidateFolder(folder string) {
	m.mu.Lock()
	delete(m.scans, folder)
	m.mu.Unlock()
}

// FilterByMediaType keeps only items the creator's switchboard enables.
func (m *Manager) FilterByMediaType(items []model.MediaItem, types config.MediaTypes) []model.MediaItem {
	var out []model.MediaItem
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		ext := civitai.ExtensionFromURL(item.URL)
		switch civitai.MediaTypeForExtension(ext, m.imageExts, m.videoExts) {
		case model.MediaTypeImages:
			if types.Images {
				out = append(out, item)
			}
		case model.MediaTypeVideos:
			if types.Videos {
				out = append(out, item)
			}
		default:
			if types.Other {
				out = append(out, item)
			}
		}
	}
	return out
}

// AllCreatorFolders lists every creator directory under the output
// root.
func (m *Manager) AllCreatorFolders() []string {
	var names []string
	dirents, err := os.ReadDir(m.outputDir)
	if err != nil {
		return names
	}
	for _, de := range dirents {
		if de.IsDir() {
			names = append(names, de.Name())
		}
	}
	return names
}

// FindCreatorDir locates a creator folder by name, ignoring case.
func (m *Manager) FindCreatorDir(name string) (string, bool) {
	dirents, err := os.ReadDir(m.outputDir)
	if err != nil {
		return "", false
	}
	lower := strings.ToLower(name)
	for _, de := range dirents {
		if de.IsDir() && strings.ToLower(de.Name()) == lower {
			return filepath.Join(m.outputDir, de.Name()), true
		}
	}
	return "", false
}

// RemoveCreatorTree deletes a creator's whole folder, matching the
// name case-insensitively. Removing an absent creator is a no-op.
func (m *Manager) RemoveCreatorTree(name string) error {
	dir, ok := m.FindCreatorDir(name)
	if !ok {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing %s: %w", dir, err)
	}
	m.mu.Lock()
	for folder := range m.scans {
		if strings.HasPrefix(folder, dir+string(filepath.Separator)) {
			delete(m.scans, folder)
		}
	}
	m.mu.Unlock()
	return nil
}

// baseName lowercases a filename and strips its extension, the key
// used for extension-agnostic matching.
func baseName(filename string) string {
	ext := filepath.Ext(filename)
	return strings.ToLower(strings.TrimSuffix(filename, ext))
}
