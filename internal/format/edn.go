package format

import (
	"bytes"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteEDN writes an EDN rendering of v. Map keys become keywords; keys
// that cannot be keywords (metadata keys with spaces, empty keys) are
// written as strings.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	x, err := plain(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := ednEncoder{pretty: pretty, indent: 2}
	enc.value(&buf, x, 0)
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

type ednEncoder struct {
	pretty bool
	indent int
}

func (e ednEncoder) value(buf *bytes.Buffer, v any, level int) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("nil")
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case string:
		buf.WriteString(strconv.Quote(t))
	case float64:
		if t == float64(int64(t)) {
			buf.WriteString(strconv.FormatInt(int64(t), 10))
			return
		}
		buf.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
	case []any:
		e.seq(buf, '[', ']', len(t), level, func(i int) {
			e.value(buf, t[i], level+1)
		})
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e.seq(buf, '{', '}', len(keys), level, func(i int) {
			buf.WriteString(ednKey(keys[i]))
			buf.WriteByte(' ')
			e.value(buf, t[keys[i]], level+1)
		})
	}
}

func (e ednEncoder) seq(buf *bytes.Buffer, start, end byte, n, level int, elem func(i int)) {
	buf.WriteByte(start)
	if n == 0 {
		buf.WriteByte(end)
		return
	}
	for i := 0; i < n; i++ {
		switch {
		case e.pretty:
			buf.WriteByte('\n')
			buf.WriteString(strings.Repeat(" ", (level+1)*e.indent))
		case i > 0:
			buf.WriteByte(' ')
		}
		elem(i)
	}
	if e.pretty {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat(" ", level*e.indent))
	}
	buf.WriteByte(end)
}

// ednKey renders k as a keyword when it is one: "url" -> :url,
// "com.scenelinks.panel/metadata" -> :com.scenelinks.panel/metadata.
func ednKey(k string) string {
	if k == "" || strings.Count(k, "/") > 1 || strings.HasPrefix(k, "/") || strings.HasSuffix(k, "/") {
		return strconv.Quote(k)
	}
	for i, r := range k {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-', r == '.', r == '/', r == '*', r == '?', r == '!':
		case r >= '0' && r <= '9':
			if i == 0 {
				return strconv.Quote(k)
			}
		default:
			return strconv.Quote(k)
		}
	}
	return ":" + k
}
