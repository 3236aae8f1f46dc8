// Package prompt renders prompt templates against named variables.
package prompt

import (
	"fmt"
	"strings"
)

// Template turns a set of variables into a prompt. Anything that can do that
// can be used as a chain step's template, StringTemplate is just the common case.
type Template interface {
	Format(vars map[string]string) (string, error)
}

// TemplateFunc adapts a plain function to Template.
type TemplateFunc func(vars map[string]string) (string, error)

func (f TemplateFunc) Format(vars map[string]string) (string, error) {
	return f(vars)
}

// MissingVariableError is returned when a template references a variable that is not set.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing variable %q", e.Name)
}

// FormatError means the template itself is malformed, e.g. "Hello {name".
type FormatError struct {
	Template string
	Offset   int
	Reason   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed template at offset %d: %s", e.Offset, e.Reason)
}

// StringTemplate substitutes {name} placeholders. Literal braces are written as {{ and }}.
type StringTemplate string

func (t StringTemplate) Format(vars map[string]string) (string, error) {
	var sb strings.Builder
	err := t.walk(func(literal string) {
		sb.WriteString(literal)
	}, func(name string) error {
		value, ok := vars[name]
		if !ok {
			return &MissingVariableError{Name: name}
		}
		sb.WriteString(value)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Variables lists placeholder names in order of appearance, duplicates included.
func (t StringTemplate) Variables() ([]string, error) {
	var names []string
	err := t.walk(func(string) {}, func(name string) error {
		names = append(names, name)
		return nil
	})
	return names, err
}

func (t StringTemplate) walk(onLiteral func(string), onPlaceholder func(string) error) error {
	s := string(t)
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				onLiteral(s[start : i+1])
				i++
				start = i + 1
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return &FormatError{Template: s, Offset: i, Reason: "unclosed placeholder"}
			}
			name := s[i+1 : i+1+end]
			if name == "" {
				return &FormatError{Template: s, Offset: i, Reason: "empty placeholder"}
			}
			if strings.ContainsRune(name, '{') {
				return &FormatError{Template: s, Offset: i, Reason: "nested placeholder"}
			}
			onLiteral(s[start:i])
			if err := onPlaceholder(name); err != nil {
				return err
			}
			i += end + 1
			start = i + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				onLiteral(s[start : i+1])
				i++
				start = i + 1
				continue
			}
			return &FormatError{Template: s, Offset: i, Reason: "single '}' encountered"}
		}
	}
	onLiteral(s[start:])
	return nil
}
