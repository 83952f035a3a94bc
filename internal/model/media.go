package model

import (
	"encoding/json"
)

// MediaItem is one unit of remote content as returned by the images API.
// Only URL drives the pipeline; the full payload is kept verbatim in Raw
// so metadata exports lose nothing the API sent.
type MediaItem struct {
	ID     int64  `json:"id"`
	URL    string `json:"url"`
	Hash   string `json:"hash"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	Raw json.RawMessage `json:"-"`
}

func (m *MediaItem) UnmarshalJSON(data []byte) error {
	type alias MediaItem
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*m = MediaItem(a)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (m MediaItem) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	type alias MediaItem
	return json.Marshal(alias(m))
}
