package intent

import (
	"strconv"
	"strings"
)

// Params holds the named parameters the model extracted. Values are JSON primitives.
type Params map[string]any

// Has reports whether key is present, even with an empty or null value.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the value at key rendered as a string. Numbers and booleans are formatted;
// null, objects and arrays report false.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

// Text is String with surrounding space trimmed; absent keys yield "".
func (p Params) Text(key string) string {
	s, _ := p.String(key)
	return strings.TrimSpace(s)
}

// TaskID returns task_id when it holds a positive integer, as a number or a digit string.
func (p Params) TaskID() (int64, bool) {
	s := p.Text("task_id")
	if s == "" {
		return 0, false
	}
	s = strings.TrimPrefix(s, "#")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, false
		}
		id = int64(f)
	}
	if id <= 0 {
		return 0, false
	}
	return id, true
}

// RawTaskID returns task_id as given, for messages that echo what the user asked for.
func (p Params) RawTaskID() string {
	return p.Text("task_id")
}

// TaskTitle returns the title fragment naming an existing task. For intents other than
// task_update a bare "title" is accepted too, since models often use it for the reference.
func (p Params) TaskTitle(k Kind) string {
	if t := p.Text("task_title"); t != "" {
		return t
	}
	if k != TaskUpdate && k != TaskCreate {
		return p.Text("title")
	}
	return ""
}

// NewTitle returns the rename target for task_update: new_title, else title.
func (p Params) NewTitle() (string, bool) {
	if t := p.Text("new_title"); t != "" {
		return t, true
	}
	if t := p.Text("title"); t != "" {
		return t, true
	}
	return "", false
}
