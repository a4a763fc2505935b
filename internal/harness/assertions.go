package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/edc/internal/session"
)

// AssertionError is returned when an assertion fails. It carries the full
// notice list so a failure can be read without rerunning.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Notices  []session.Notice
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "\nNotices:\n")
	for _, n := range e.Notices {
		fmt.Fprintf(&buf, "  [%d] %s\n", n.Seq, n.Text)
	}
	return buf.String()
}

func evaluate(res *Result, a Assertion) error {
	switch a.Type {
	case AssertNoticeContains:
		return assertNoticeContains(res.Notices, a)
	case AssertNoticeAbsent:
		return assertNoticeAbsent(res.Notices, a)
	case AssertNoticeOrder:
		return assertNoticeOrder(res.Notices, a)
	case AssertNoticeCount:
		return assertNoticeCount(res.Notices, a)
	case AssertFinalState:
		return assertFinalState(res, a)
	case AssertFaults:
		if res.Faults != int64(a.Count) {
			return &AssertionError{
				Type:     AssertFaults,
				Expected: fmt.Sprintf("%d handler fault(s)", a.Count),
				Actual:   fmt.Sprintf("%d", res.Faults),
				Notices:  res.Notices,
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func countMatches(notices []session.Notice, text string) int {
	n := 0
	for _, notice := range notices {
		if strings.Contains(notice.Text, text) {
			n++
		}
	}
	return n
}

func assertNoticeContains(notices []session.Notice, a Assertion) error {
	if countMatches(notices, a.Text) > 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoticeContains,
		Expected: fmt.Sprintf("a notice containing %q", a.Text),
		Actual:   "not found",
		Notices:  notices,
	}
}

func assertNoticeAbsent(notices []session.Notice, a Assertion) error {
	if n := countMatches(notices, a.Text); n > 0 {
		return &AssertionError{
			Type:     AssertNoticeAbsent,
			Expected: fmt.Sprintf("no notice containing %q", a.Text),
			Actual:   fmt.Sprintf("%d found", n),
			Notices:  notices,
		}
	}
	return nil
}

// assertNoticeOrder matches each text against the first notice after the
// previous match. Intervening notices are allowed.
func assertNoticeOrder(notices []session.Notice, a Assertion) error {
	pos := 0
	for _, text := range a.Texts {
		found := false
		for pos < len(notices) {
			pos++
			if strings.Contains(notices[pos-1].Text, text) {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertNoticeOrder,
				Expected: fmt.Sprintf("notices in order: %q", a.Texts),
				Actual:   fmt.Sprintf("no %q after the previous match", text),
				Notices:  notices,
			}
		}
	}
	return nil
}

func assertNoticeCount(notices []session.Notice, a Assertion) error {
	if n := countMatches(notices, a.Text); n != a.Count {
		return &AssertionError{
			Type:     AssertNoticeCount,
			Expected: fmt.Sprintf("%d notice(s) containing %q", a.Count, a.Text),
			Actual:   fmt.Sprintf("%d", n),
			Notices:  notices,
		}
	}
	return nil
}

// assertFinalState compares dotted paths into the JSON form of the final
// state. Values are compared by their JSON encoding, so YAML 12 matches a
// state field holding 12.0.
func assertFinalState(res *Result, a Assertion) error {
	raw, err := json.Marshal(res.State)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	paths := make([]string, 0, len(a.Expect))
	for p := range a.Expect {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var mismatches []string
	for _, p := range paths {
		want, err := json.Marshal(a.Expect[p])
		if err != nil {
			return fmt.Errorf("encode expected %s: %w", p, err)
		}
		v, ok := lookupPath(doc, p)
		if !ok {
			if string(want) != "null" {
				mismatches = append(mismatches, fmt.Sprintf("%s: missing (want %s)", p, want))
			}
			continue
		}
		got, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", p, err)
		}
		if !bytes.Equal(got, want) {
			mismatches = append(mismatches, fmt.Sprintf("%s: got %s, want %s", p, got, want))
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: fmt.Sprintf("%v", a.Expect),
		Actual:   strings.Join(mismatches, "; "),
		Notices:  res.Notices,
	}
}

func lookupPath(doc any, path string) (any, bool) {
	cur := doc
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}
