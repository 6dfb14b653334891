package progress

import (
	"errors"
	"fmt"
	"strings"
)

// Path parameter names a document pattern must declare.
const (
	ParamUserID   = "userId"
	ParamItemName = "itemName"
)

// DefaultPattern is the document layout progress records live under.
const DefaultPattern = "users/{userId}/mountingProgress/{itemName}"

// Pattern matches document paths such as users/{userId}/mountingProgress/{itemName}.
type Pattern struct {
	raw      string
	segments []string
}

// ParsePattern validates a document pattern.
func ParsePattern(raw string) (Pattern, error) {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return Pattern{}, errors.New("document pattern must not be empty")
	}

	segments := strings.Split(trimmed, "/")
	if len(segments)%2 != 0 {
		return Pattern{}, fmt.Errorf("document pattern %q must end with a document segment", raw)
	}

	seen := make(map[string]bool)
	for i, segment := range segments {
		if segment == "" {
			return Pattern{}, fmt.Errorf("document pattern %q has an empty segment", raw)
		}
		name, isParam := paramName(segment)
		if !isParam {
			if strings.ContainsAny(segment, "{}") {
				return Pattern{}, fmt.Errorf("document pattern %q: malformed segment %q", raw, segment)
			}
			continue
		}
		if i%2 == 0 {
			return Pattern{}, fmt.Errorf("document pattern %q: collection segment %q cannot be a parameter", raw, segment)
		}
		if seen[name] {
			return Pattern{}, fmt.Errorf("document pattern %q: duplicate parameter %q", raw, name)
		}
		seen[name] = true
	}

	if !seen[ParamUserID] || !seen[ParamItemName] {
		return Pattern{}, fmt.Errorf("document pattern %q must declare {%s} and {%s}", raw, ParamUserID, ParamItemName)
	}

	return Pattern{raw: trimmed, segments: segments}, nil
}

// MustParsePattern is ParsePattern for constant patterns.
func MustParsePattern(raw string) Pattern {
	p, err := ParsePattern(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the normalized pattern.
func (p Pattern) String() string {
	return p.raw
}

// CollectionID returns the collection holding matched documents.
func (p Pattern) CollectionID() string {
	if len(p.segments) < 2 {
		return ""
	}
	return p.segments[len(p.segments)-2]
}

// Match extracts the document key from a relative document path.
func (p Pattern) Match(path string) (Key, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(p.segments) == 0 || len(parts) != len(p.segments) {
		return Key{}, false
	}

	var key Key
	for i, segment := range p.segments {
		part := parts[i]
		if part == "" {
			return Key{}, false
		}
		name, isParam := paramName(segment)
		if !isParam {
			if part != segment {
				return Key{}, false
			}
			continue
		}
		switch name {
		case ParamUserID:
			key.UserID = part
		case ParamItemName:
			key.ItemName = part
		}
	}
	return key, true
}

func paramName(segment string) (string, bool) {
	if len(segment) < 3 || !strings.HasPrefix(segment, "{") || !strings.HasSuffix(segment, "}") {
		return "", false
	}
	return segment[1 : len(segment)-1], true
}
