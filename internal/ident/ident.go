// Package ident generates collision-resistant PostgreSQL database names and
// enforces the identifier rules they must satisfy.
package ident

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxNameLength is the maximum length of a database name in PostgreSQL.
	MaxNameLength = 63

	// MaxPrefixLength caps the caller-supplied prefix so that a generated
	// name always retains at least 8 characters of random entropy after
	// truncation to MaxNameLength.
	MaxPrefixLength = 40
)

// Unquoted PostgreSQL identifiers fold to lower case, so only the folded
// alphabet is accepted: a leading letter or underscore followed by letters,
// digits, underscores, or dollar signs.
var nameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_$]*$`)

// Valid reports whether name is usable as a PostgreSQL database name.
func Valid(name string) bool {
	return len(name) > 0 && len(name) <= MaxNameLength && nameRegex.MatchString(name)
}

// CheckPrefix validates a name prefix. The prefix is case-folded before
// checking, matching what Generate does with it.
func CheckPrefix(prefix string) error {
	prefix = strings.ToLower(prefix)
	if prefix == "" {
		return fmt.Errorf("name prefix is empty")
	}
	if len(prefix) > MaxPrefixLength {
		return fmt.Errorf("name prefix %q exceeds %d characters", prefix, MaxPrefixLength)
	}
	if !nameRegex.MatchString(prefix) {
		return fmt.Errorf("name prefix %q must start with a letter or underscore and contain only letters, digits, underscores, or dollar signs", prefix)
	}
	return nil
}

// Generate produces a database name of the form
//
//	<prefix>_<unix nanos, base 36>_<uuid hex>
//
// truncated to MaxNameLength. Uniqueness rests on the embedded entropy, not
// on any coordination, so Generate is safe to call concurrently from
// independent processes. It fails only on a malformed prefix.
func Generate(prefix string) (string, error) {
	prefix = strings.ToLower(prefix)
	if err := CheckPrefix(prefix); err != nil {
		return "", err
	}
	ts := strconv.FormatInt(time.Now().UnixNano(), 36)
	entropy := strings.ReplaceAll(uuid.NewString(), "-", "")
	name := prefix + "_" + ts + "_" + entropy
	if len(name) > MaxNameLength {
		name = name[:MaxNameLength]
	}
	return name, nil
}
