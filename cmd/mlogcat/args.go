package main

import (
	"strconv"
	"strings"
)

// multiValueFlag describes a flag whose values are given as several bare
// (space-separated) tokens after the flag itself, e.g. "--order 100 200"
// or "--category 3 5": order/date take up to 2, category/pid/thread take
// as many as follow. pflag has no native notion of a flag consuming more
// than one adjacent token, so splitMultiValueArgs rewrites the raw argv
// into the comma-joined form pflag.*SliceVar already understands before
// cobra ever sees it.
type multiValueFlag struct {
	long, short string
	max         int  // 0 means unlimited
	numeric     bool // stop consuming at the first non-numeric token
}

var multiValueFlags = []multiValueFlag{
	{long: "order", short: "s", max: 2, numeric: true},
	{long: "date", short: "d", max: 2, numeric: false},
	{long: "category", short: "c", max: 0, numeric: true},
	{long: "pid", short: "p", max: 0, numeric: true},
	{long: "thread", short: "t", max: 0, numeric: true},
}

func isUint(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

// splitMultiValueArgs scans argv left to right. Whenever it finds a bare
// occurrence of one of multiValueFlags (not already in "--flag=value"
// form), it greedily consumes the following tokens as that flag's values:
// up to its max count if one is set, stopping early at the next token
// that looks like a flag ("-..." ) or, for the numeric flags, at the
// first token that doesn't parse as an unsigned integer. The consumed
// tokens are joined with commas into a single "--flag=v1,v2,..." token.
// Every other token (including the positional log name, wherever it
// falls) passes through unchanged.
func splitMultiValueArgs(argv []string) []string {
	out := make([]string, 0, len(argv))

	for i := 0; i < len(argv); i++ {
		tok := argv[i]

		f := matchingFlag(tok)
		if f == nil {
			out = append(out, tok)
			continue
		}

		var vals []string
		j := i + 1
		for j < len(argv) {
			if f.max > 0 && len(vals) >= f.max {
				break
			}
			next := argv[j]
			if strings.HasPrefix(next, "-") {
				break
			}
			if f.numeric && !isUint(next) {
				break
			}
			vals = append(vals, next)
			j++
		}

		if len(vals) == 0 {
			out = append(out, tok)
			continue
		}
		out = append(out, "--"+f.long+"="+strings.Join(vals, ","))
		i = j - 1
	}
	return out
}

func matchingFlag(tok string) *multiValueFlag {
	for i := range multiValueFlags {
		f := &multiValueFlags[i]
		if tok == "--"+f.long || tok == "-"+f.short {
			return f
		}
	}
	return nil
}
