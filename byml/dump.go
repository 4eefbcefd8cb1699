package byml

import (
	"strconv"
	"strings"
)

// Dump renders v on one line, e.g. {HashId: 0x5u, Translate: [1f, 2f, 3f]}.
// Integer suffixes mark the kind: u uint, l int64, ul uint64; floats get f
// (float) or d (double).
func Dump(v any) string {
	var buf strings.Builder
	dump(&buf, v)
	return buf.String()
}

func dump(buf *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case uint32:
		buf.WriteString("0x")
		buf.WriteString(strconv.FormatUint(uint64(v), 16))
		buf.WriteByte('u')
	case int64:
		buf.WriteString(strconv.FormatInt(v, 10))
		buf.WriteByte('l')
	case uint64:
		buf.WriteString("0x")
		buf.WriteString(strconv.FormatUint(v, 16))
		buf.WriteString("ul")
	case float32:
		buf.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
		buf.WriteByte('f')
	case float64:
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		buf.WriteByte('d')
	case string:
		buf.WriteString(strconv.Quote(v))
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteString(", ")
			}
			dump(buf, item)
		}
		buf.WriteByte(']')
	case *Map:
		buf.WriteByte('{')
		i := 0
		for k, item := range v.All() {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(k)
			buf.WriteString(": ")
			dump(buf, item)
			i++
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("<invalid ")
		buf.WriteString(typeName(v))
		buf.WriteByte('>')
	}
}
