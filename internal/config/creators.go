package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
)

// MediaTypes is the per-creator download switchboard.
type MediaTypes struct {
	Images bool `json:"images"`
	Videos bool `json:"videos"`
	Other  bool `json:"other"`
}

// MediaTypeOverrides carries tri-state CLI flags: nil means "not set".
type MediaTypeOverrides struct {
	Images *bool
	Videos *bool
	Other  *bool
}

func (o MediaTypeOverrides) HasAny() bool {
	return o.Images != nil || o.Videos != nil || o.Other != nil
}

func (o MediaTypeOverrides) ApplyTo(base MediaTypes) MediaTypes {
	out := base
	if o.Images != nil {
		out.Images = *o.Images
	}
	if o.Videos != nil {
		out.Videos = *o.Videos
	}
	if o.Other != nil {
		out.Other = *o.Other
	}
	return out
}

// Creator is one entry of the creators list. MediaTypes nil means the
// creator follows the global default_media_types.
type Creator struct {
	Username   string
	MediaTypes *MediaTypes
}

// The list file accepts both a bare username string and an object with
// overrides, so hand-edited files stay terse.
func (c *Creator) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		name = strings.TrimSpace(name)
		if name == "" {
			return errors.New("creator username cannot be empty")
		}
		*c = Creator{Username: name}
		return nil
	}

	var obj struct {
		Username   string      `json:"username"`
		MediaTypes *MediaTypes `json:"media_types"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("creator entry must be a string or an object: %w", err)
	}
	obj.Username = strings.TrimSpace(obj.Username)
	if obj.Username == "" {
		return errors.New("creator entry missing 'username' field or username is empty")
	}
	*c = Creator{Username: obj.Username, MediaTypes: obj.MediaTypes}
	return nil
}

func (c Creator) MarshalJSON() ([]byte, error) {
	if c.MediaTypes == nil {
		return json.Marshal(c.Username)
	}
	return json.Marshal(struct {
		Username   string      `json:"username"`
		MediaTypes *MediaTypes `json:"media_types"`
	}{c.Username, c.MediaTypes})
}

// MediaTypesFor resolves a creator's effective switchboard.
func MediaTypesFor(c Creator, defaults MediaTypes) MediaTypes {
	if c.MediaTypes != nil {
		return *c.MediaTypes
	}
	return defaults
}

// CreatorsFile manages the CreatorsList.json sidecar.
type CreatorsFile struct {
	Path string
}

func NewCreatorsFile(path string) *CreatorsFile {
	if path == "" {
		path = DefaultCreatorsFile
	}
	return &CreatorsFile{Path: path}
}

// Load returns the creator list; a missing file is an empty list.
// Invalid entries are skipped with a warning, matching how the tool
// treats hand-edited files.
func (f *CreatorsFile) Load() ([]Creator, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", f.Path, err)
	}

	var doc struct {
		Creators []json.RawMessage `json:"creators"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.Path, err)
	}

	creators := make([]Creator, 0, len(doc.Creators))
	for idx, raw := range doc.Creators {
		var c Creator
		if err := json.Unmarshal(raw, &c); err != nil {
			log.Printf("Warning: skipped invalid creator entry #%d in %s: %v", idx+1, f.Path, err)
			continue
		}
		creators = append(creators, c)
	}
	return creators, nil
}

func (f *CreatorsFile) Save(creators []Creator) error {
	doc := struct {
		Creators []Creator `json:"creators"`
	}{Creators: creators}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", f.Path, err)
	}
	if err := os.WriteFile(f.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", f.Path, err)
	}
	return nil
}

// AddResult reports what AddCreators did, name by name.
type AddResult struct {
	Added     []string
	Updated   []string
	Unchanged []string
	Skipped   []string
}

// AddCreators inserts or updates creators. Existing creators are only
// touched when overrides are supplied and actually change their
// effective settings; without overrides an existing name is skipped.
func (f *CreatorsFile) AddCreators(names []string, overrides MediaTypeOverrides, defaults MediaTypes) (AddResult, error) {
	var res AddResult

	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return res, errors.New("creator username cannot be empty")
		}
		cleaned = append(cleaned, name)
	}
	if len(cleaned) == 0 {
		return res, errors.New("no creator usernames provided")
	}

	creators, err := f.Load()
	if err != nil {
		return res, err
	}

	index := make(map[string]int, len(creators))
	for i := range creators {
		index[strings.ToLower(creators[i].Username)] = i
	}

	seen := make(map[string]bool, len(cleaned))
	for _, name := range cleaned {
		key := strings.ToLower(name)
		if seen[key] {
			res.Skipped = append(res.Skipped, name)
			continue
		}
		seen[key] = true

		i, ok := index[key]
		if !ok {
			c := Creator{Username: name}
			if overrides.HasAny() {
				merged := overrides.ApplyTo(defaults)
				c.MediaTypes = &merged
			}
			creators = append(creators, c)
			index[key] = len(creators) - 1
			res.Added = append(res.Added, name)
			continue
		}

		if !overrides.HasAny() {
			res.Skipped = append(res.Skipped, name)
			continue
		}

		current := &creators[i]
		base := MediaTypesFor(*current, defaults)
		merged := overrides.ApplyTo(base)
		if merged == base {
			res.Unchanged = append(res.Unchanged, current.Username)
			continue
		}
		current.MediaTypes = &merged
		res.Updated = append(res.Updated, current.Username)
	}

	if len(res.Added) == 0 && len(res.Updated) == 0 {
		return res, errors.New("no creators to add or update")
	}

	if err := f.Save(creators); err != nil {
		return res, err
	}
	return res, nil
}

// RemoveCreator removes a creator by name, case-insensitively.
func (f *CreatorsFile) RemoveCreator(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, errors.New("no creator specified for removal")
	}

	creators, err := f.Load()
	if err != nil {
		return false, err
	}

	key := strings.ToLower(name)
	kept := creators[:0]
	removed := false
	for _, c := range creators {
		if strings.ToLower(c.Username) == key {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	if !removed {
		return false, nil
	}

	if err := f.Save(kept); err != nil {
		return false, err
	}
	return true, nil
}
