package annotations

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shepherrrd/efmigrate/internal/models"
)

var ErrInvalidFormat = errors.New("invalid annotation format")

// FormatError reports a string the index serializer could not parse. Value
// is the input exactly as it was passed in.
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("The string '%s' cannot be deserialized by the IndexAnnotationSerializer because it is not in the expected format. The expected format is '{ Name: 'MyIndex', Order: 1 }'.", e.Value)
}

func (e *FormatError) Is(target error) bool { return target == ErrInvalidFormat }

// Serializer converts annotation values to and from their persisted text.
type Serializer interface {
	Serialize(name string, value any) (string, error)
	Deserialize(name, value string) (any, error)
}

// IndexSerializer handles *IndexAnnotation values. The format is one
// "{ Name: x, Order: n, IsClustered: b, IsUnique: b }" group per index,
// concatenated without separators.
type IndexSerializer struct{}

var _ Serializer = IndexSerializer{}

func (IndexSerializer) Serialize(name string, value any) (string, error) {
	if err := models.CheckNotEmpty(name, "name"); err != nil {
		return "", err
	}
	var annotation *IndexAnnotation
	switch v := value.(type) {
	case nil:
		return "", &models.ArgumentError{Param: "value", Reason: "value is nil"}
	case *IndexAnnotation:
		if v == nil {
			return "", &models.ArgumentError{Param: "value", Reason: "value is nil"}
		}
		annotation = v
	case IndexAnnotation:
		annotation = &v
	default:
		return "", &models.ArgumentError{
			Param:  "value",
			Reason: fmt.Sprintf("a value of type %T cannot be serialized by the IndexAnnotationSerializer, only IndexAnnotation values are supported", value),
		}
	}
	return SerializeIndexAnnotation(annotation)
}

func (IndexSerializer) Deserialize(name, value string) (any, error) {
	if err := models.CheckNotEmpty(name, "name"); err != nil {
		return nil, err
	}
	if err := models.CheckNotEmpty(value, "value"); err != nil {
		return nil, err
	}
	return ParseIndexAnnotation(value)
}

// SerializeIndexAnnotation renders annotation in the index annotation format.
func SerializeIndexAnnotation(annotation *IndexAnnotation) (string, error) {
	var b strings.Builder
	for _, index := range annotation.Indexes {
		if err := index.validate(); err != nil {
			return "", err
		}
		var fields []string
		if index.Name != "" {
			fields = append(fields, "Name: "+escapeName(index.Name))
		}
		if index.Order != UnspecifiedOrder {
			fields = append(fields, "Order: "+strconv.Itoa(index.Order))
		}
		if index.IsClustered != nil {
			fields = append(fields, "IsClustered: "+formatBool(*index.IsClustered))
		}
		if index.IsUnique != nil {
			fields = append(fields, "IsUnique: "+formatBool(*index.IsUnique))
		}
		if len(fields) == 0 {
			b.WriteString("{ }")
			continue
		}
		b.WriteString("{ ")
		b.WriteString(strings.Join(fields, ", "))
		b.WriteString(" }")
	}
	return b.String(), nil
}

// ParseIndexAnnotation parses the output of SerializeIndexAnnotation. It
// tolerates extra whitespace between tokens and rejects everything else.
func ParseIndexAnnotation(value string) (*IndexAnnotation, error) {
	entries, ok := splitEntries(strings.TrimSpace(value))
	if !ok {
		return nil, &FormatError{Value: value}
	}
	annotation := &IndexAnnotation{}
	for _, entry := range entries {
		index, ok := parseEntry(entry)
		if !ok {
			return nil, &FormatError{Value: value}
		}
		annotation.Indexes = append(annotation.Indexes, index)
	}
	return annotation, nil
}

// MustParseIndexAnnotation is like ParseIndexAnnotation but panics on a
// malformed value. Generated migrations use it to rebuild index annotations.
func MustParseIndexAnnotation(value string) *IndexAnnotation {
	annotation, err := ParseIndexAnnotation(value)
	if err != nil {
		panic(err)
	}
	return annotation
}

func parseEntry(entry string) (IndexAttribute, bool) {
	index := NewIndexAttribute("")
	if strings.TrimSpace(entry) == "" {
		return index, true
	}
	var seenName, seenOrder bool
	for _, part := range splitUnescaped(entry, ',') {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "Name:"):
			name := strings.TrimSpace(part[len("Name:"):])
			if seenName || name == "" {
				return index, false
			}
			index.Name = unescapeName(name)
			seenName = true
		case strings.HasPrefix(part, "Order:"):
			order, err := strconv.ParseInt(strings.TrimSpace(part[len("Order:"):]), 10, 32)
			if seenOrder || err != nil || order < 0 {
				return index, false
			}
			index.Order = int(order)
			seenOrder = true
		case strings.HasPrefix(part, "IsClustered:"):
			clustered, ok := parseBool(part[len("IsClustered:"):])
			if index.IsClustered != nil || !ok {
				return index, false
			}
			index.IsClustered = &clustered
		case strings.HasPrefix(part, "IsUnique:"):
			unique, ok := parseBool(part[len("IsUnique:"):])
			if index.IsUnique != nil || !ok {
				return index, false
			}
			index.IsUnique = &unique
		default:
			return index, false
		}
	}
	return index, true
}

// splitEntries returns the bodies of the brace groups in s. Groups may be
// separated by whitespace only; escaped braces never open or close a group.
func splitEntries(s string) ([]string, bool) {
	var entries []string
	runes := []rune(s)
	if len(runes) == 0 {
		return nil, false
	}
	for i := 0; i < len(runes); {
		switch {
		case isSpace(runes[i]):
			i++
			continue
		case runes[i] != '{':
			return nil, false
		}
		i++
		start := i
		closed := false
		for i < len(runes) {
			r := runes[i]
			if r == '\\' {
				if i+1 >= len(runes) {
					return nil, false
				}
				i += 2
				continue
			}
			if r == '{' {
				return nil, false
			}
			if r == '}' {
				closed = true
				break
			}
			i++
		}
		if !closed {
			return nil, false
		}
		entries = append(entries, string(runes[start:i]))
		i++
	}
	return entries, true
}

func splitUnescaped(s string, sep rune) []string {
	var parts []string
	var current strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			current.WriteRune(r)
			escaped = true
		case r == sep:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(parts, current.String())
}

func escapeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '\\', ',', '{', '}':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unescapeName(name string) string {
	var b strings.Builder
	escaped := false
	for _, r := range name {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
