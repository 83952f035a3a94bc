package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/config"
)

// splitCreators flattens positional creator arguments. Each argument
// may itself be a comma-separated list, so "a,b c" yields three names.
func splitCreators(args []string) []string {
	var names []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				names = append(names, part)
			}
		}
	}
	return names
}

// parseToggle maps an on|off flag value to a tri-state bool. Empty
// means the flag was not given and the setting stays untouched.
func parseToggle(name, value string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return nil, nil
	case "on":
		v := true
		return &v, nil
	case "off":
		v := false
		return &v, nil
	}
	return nil, fmt.Errorf("--%s must be on or off, got %q", name, value)
}

func mediaOverrides(images, videos, other string) (config.MediaTypeOverrides, error) {
	var o config.MediaTypeOverrides
	var err error
	if o.Images, err = parseToggle("images", images); err != nil {
		return o, err
	}
	if o.Videos, err = parseToggle("videos", videos); err != nil {
		return o, err
	}
	if o.Other, err = parseToggle("other", other); err != nil {
		return o, err
	}
	return o, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
