package settings

import (
	"slices"
	"strings"
)

// Mode describes how an override was merged into the persisted list.
type Mode int

const (
	// ModeDelta adds and removes entries relative to the persisted list.
	ModeDelta Mode = iota
	// ModeReset replaces the persisted list wholesale.
	ModeReset
)

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeDelta:
		return "delta"
	case ModeReset:
		return "reset"
	}

	return "unknown"
}

// Result is the outcome of merging an override into the persisted list.
type Result struct {
	// Enabled holds the deduplicated channel names, sorted.
	Enabled []string
	Mode    Mode
}

// Contains reports whether name is in the enabled set.
func (r Result) Contains(name string) bool {
	_, found := slices.BinarySearch(r.Enabled, name)

	return found
}

// String returns the enabled set in its persisted form.
func (r Result) String() string {
	return Join(r.Enabled)
}

// Resolve merges override into persisted. Both are comma-delimited lists.
//
// Override tokens prefixed with '-' remove the remainder from persisted;
// tokens prefixed with '+' or without a recognised prefix are added. If any
// token is prefixed with '=' the result is built from the added tokens alone
// and persisted is discarded, including any removals already applied to it.
func Resolve(persisted, override string) Result {
	current := Split(persisted)
	onlyDeltas := true

	var added []string

	for _, tok := range Split(override) {
		switch tok[0] {
		case '=':
			added = append(added, tok[1:])
			onlyDeltas = false

		case '-':
			name := tok[1:]
			current = slices.DeleteFunc(current, func(s string) bool { return s == name })

		case '+':
			added = append(added, tok[1:])

		default:
			added = append(added, tok)
		}
	}

	res := Result{Mode: ModeDelta}
	if onlyDeltas {
		res.Enabled = dedup(append(current, added...))
	} else {
		res.Mode = ModeReset
		res.Enabled = dedup(added)
	}

	return res
}

// Split breaks a comma-delimited list into its tokens. Surrounding
// whitespace is trimmed and empty tokens are dropped.
func Split(s string) []string {
	var out []string

	for tok := range strings.SplitSeq(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		out = append(out, tok)
	}

	return out
}

// Join renders names in the persisted comma-delimited form.
func Join(names []string) string {
	return strings.Join(names, ",")
}

func dedup(names []string) []string {
	out := slices.DeleteFunc(slices.Clone(names), func(s string) bool { return s == "" })
	slices.Sort(out)

	out = slices.Compact(out)
	if len(out) == 0 {
		return []string{}
	}

	return out
}
