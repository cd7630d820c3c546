package scenario

import (
	"strconv"
	"strings"
)

// Parse implements parseScenario(text) → {scenario, errors[]} (spec §6).
// The format is line-oriented: "===" on its own line starts a new
// section; a section's first non-blank lines may set "t=<int>" (the
// section's tick timestamp, in milliseconds) and a bare "title:" /
// "description:" line; everything after is one action per line. A
// leading "#" makes a line a comment. Unknown actions are recorded as
// ParseErrors and do not abort the scan — spec §6 only requires that a
// scenario containing any error must not execute, not that parsing stop
// at the first one.
func Parse(text string) ParseResult {
	var result ParseResult
	sections := splitSections(text)

	for secIdx, raw := range sections {
		section := Section{}
		lines := strings.Split(raw, "\n")
		for lineIdx, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			if ts, ok := strings.CutPrefix(trimmed, "t="); ok {
				v, err := strconv.ParseInt(strings.TrimSpace(ts), 10, 64)
				if err != nil {
					result.Errors = append(result.Errors, ParseError{Section: secIdx, Line: lineIdx, Message: "invalid t= timestamp: " + err.Error()})
					continue
				}
				section.TimestampMs = v
				continue
			}
			if title, ok := strings.CutPrefix(trimmed, "title:"); ok {
				section.Title = strings.TrimSpace(title)
				continue
			}
			if desc, ok := strings.CutPrefix(trimmed, "description:"); ok {
				section.Description = strings.TrimSpace(desc)
				continue
			}

			action, err := parseAction(trimmed)
			if err != nil {
				result.Errors = append(result.Errors, ParseError{Section: secIdx, Line: lineIdx, Message: err.Error()})
				continue
			}
			section.Actions = append(section.Actions, action)
		}
		result.Scenario.Sections = append(result.Scenario.Sections, section)
	}

	return result
}

func splitSections(text string) []string {
	raw := strings.Split(text, "===")
	sections := make([]string, 0, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			continue
		}
		sections = append(sections, s)
	}
	if len(sections) == 0 {
		sections = append(sections, text)
	}
	return sections
}

func parseAction(line string) (Action, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Action{}, errUnknown(line)
	}

	switch fields[0] {
	case "grid":
		return parseGrid(fields[1:])
	case "import":
		return parseImport(fields[1:])
	case "payRandom":
		return parsePayRandom(fields[1:])
	default:
		// <from> openAccount <to>
		if len(fields) == 3 && fields[1] == "openAccount" {
			from, err1 := strconv.Atoi(fields[0])
			to, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil {
				return Action{}, errUnknown(line)
			}
			return Action{Kind: ActionOpenAccount, From: from, To: to}, nil
		}
		return Action{}, errUnknown(line)
	}
}

func parseGrid(args []string) (Action, error) {
	a := Action{Kind: ActionGrid, GridX: 1, GridY: 1, GridZ: 1, GridType: KindNumbered}
	dims := make([]int, 0, 3)
	for _, arg := range args {
		if kv, ok := splitKV(arg); ok {
			if kv.key != "type" {
				return Action{}, errUnknown("grid " + arg)
			}
			switch kv.value {
			case "lazy":
				a.GridType = KindLazy
			case "numbered":
				a.GridType = KindNumbered
			default:
				return Action{}, errUnknown("grid type=" + kv.value)
			}
			continue
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return Action{}, errUnknown("grid " + arg)
		}
		dims = append(dims, n)
	}
	if len(dims) == 0 {
		return Action{}, errUnknown("grid requires at least one dimension")
	}
	a.GridX = dims[0]
	if len(dims) > 1 {
		a.GridY = dims[1]
	}
	if len(dims) > 2 {
		a.GridZ = dims[2]
	}
	return a, nil
}

func parseImport(args []string) (Action, error) {
	if len(args) != 1 {
		return Action{}, errUnknown("import requires exactly one range argument")
	}
	from, to, err := parseRange(args[0])
	if err != nil {
		return Action{}, err
	}
	return Action{Kind: ActionImport, ImportFrom: from, ImportTo: to}, nil
}

func parseRange(s string) (int, int, error) {
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		from, err1 := strconv.Atoi(lo)
		to, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil || from > to {
			return 0, 0, errUnknown("invalid range " + s)
		}
		return from, to, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, errUnknown("invalid range " + s)
	}
	return n, n, nil
}

func parsePayRandom(args []string) (Action, error) {
	a := Action{Kind: ActionPayRandom, MinHops: 1, MaxHops: 1}
	for _, arg := range args {
		kv, ok := splitKV(arg)
		if !ok {
			return Action{}, errUnknown("payRandom " + arg)
		}
		var err error
		switch kv.key {
		case "count":
			a.Count, err = strconv.Atoi(kv.value)
		case "amount":
			a.Amount, err = strconv.ParseInt(kv.value, 10, 64)
		case "minHops":
			a.MinHops, err = strconv.Atoi(kv.value)
		case "maxHops":
			a.MaxHops, err = strconv.Atoi(kv.value)
		default:
			return Action{}, errUnknown("payRandom " + arg)
		}
		if err != nil {
			return Action{}, errUnknown("payRandom " + arg + ": " + err.Error())
		}
	}
	if a.Count <= 0 || a.MinHops <= 0 || a.MaxHops < a.MinHops {
		return Action{}, errUnknown("payRandom requires count>0 and minHops<=maxHops")
	}
	return a, nil
}

type kvPair struct{ key, value string }

func splitKV(s string) (kvPair, bool) {
	k, v, ok := strings.Cut(s, "=")
	if !ok {
		return kvPair{}, false
	}
	return kvPair{key: k, value: v}, true
}

func errUnknown(line string) error {
	return &unknownActionError{line: line}
}

type unknownActionError struct{ line string }

func (e *unknownActionError) Error() string {
	return "unrecognized action: " + e.line
}
