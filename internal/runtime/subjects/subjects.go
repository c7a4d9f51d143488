// Package subjects implements the hierarchical subject grammar used to address
// broadcasts, tenant groups and single runtime instances on the broker.
package subjects

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	Separator      = "."
	SingleWildcard = "*"
	TailWildcard   = ">"
)

// Literal protocol tokens. Identifiers must never collide with these.
const (
	TokenHandshake = "handshake"
	TokenRuntime   = "runtime"
	TokenCallTool  = "call-tool"
	TokenCallSkill = "call-skill"
)

var reserved = map[string]struct{}{
	TokenHandshake: {},
	TokenRuntime:   {},
	TokenCallTool:  {},
	TokenCallSkill: {},
}

var (
	errEmptyToken    = errors.New("token is empty")
	errEmptySubject  = errors.New("subject is empty")
	errTailNotLast   = errors.New("'>' wildcard must be the last token")
	errWildcardInUse = errors.New("wildcards are not allowed in a concrete subject")
)

// Join concatenates tokens with the separator.
func Join(tokens ...string) string {
	return strings.Join(tokens, Separator)
}

// Tokens splits a subject into its tokens.
func Tokens(subject string) []string {
	if subject == "" {
		return nil
	}
	return strings.Split(subject, Separator)
}

// ValidToken reports why tok cannot be used as one subject token.
func ValidToken(tok string) error {
	if tok == "" {
		return errEmptyToken
	}
	for _, r := range tok {
		switch {
		case r == '.':
			return fmt.Errorf("token %q contains the separator", tok)
		case r == '*' || r == '>':
			return fmt.Errorf("token %q contains a wildcard", tok)
		case unicode.IsSpace(r) || unicode.IsControl(r):
			return fmt.Errorf("token %q contains whitespace", tok)
		}
	}
	return nil
}

// ValidID is ValidToken plus a check that id is not a protocol token.
func ValidID(id string) error {
	if err := ValidToken(id); err != nil {
		return err
	}
	if IsReserved(id) {
		return fmt.Errorf("id %q is a reserved protocol token", id)
	}
	return nil
}

// IsReserved reports whether tok is a literal protocol token.
func IsReserved(tok string) bool {
	_, ok := reserved[tok]
	return ok
}

// ValidSubject checks a concrete, publishable subject.
func ValidSubject(subject string) error {
	if subject == "" {
		return errEmptySubject
	}
	for _, tok := range Tokens(subject) {
		if tok == SingleWildcard || tok == TailWildcard {
			return errWildcardInUse
		}
		if err := ValidToken(tok); err != nil {
			return err
		}
	}
	return nil
}

// ValidPattern checks a subscription pattern.
func ValidPattern(pattern string) error {
	if pattern == "" {
		return errEmptySubject
	}
	toks := Tokens(pattern)
	for i, tok := range toks {
		switch tok {
		case SingleWildcard:
			continue
		case TailWildcard:
			if i != len(toks)-1 {
				return errTailNotLast
			}
			continue
		}
		if err := ValidToken(tok); err != nil {
			return err
		}
	}
	return nil
}

// IsPattern reports whether subject contains a wildcard token.
func IsPattern(subject string) bool {
	for _, tok := range Tokens(subject) {
		if tok == SingleWildcard || tok == TailWildcard {
			return true
		}
	}
	return false
}

// Match reports whether subject is selected by pattern. '*' matches exactly
// one token and '>' matches one or more trailing tokens.
func Match(pattern, subject string) bool {
	if pattern == "" || subject == "" {
		return false
	}
	pt := Tokens(pattern)
	st := Tokens(subject)
	for i, p := range pt {
		if p == TailWildcard {
			return i == len(pt)-1 && len(st) > i
		}
		if i >= len(st) || st[i] == "" {
			return false
		}
		if p != SingleWildcard && p != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}
