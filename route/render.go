package route

import (
	"fmt"
	"strings"
)

// Render renders a source pattern back into the surface syntax it was
// parsed from, used by the parser round-trip property and by
// "weave -explain" to show the table it resolved to.
func Render(src SrcPattern) string {
	var b strings.Builder
	if src.Kind == Exact {
		b.WriteByte('=')
	}
	if src.Protocol == TCP {
		b.WriteString("tcp://")
	}
	b.WriteString(src.Listener)
	for _, seg := range src.Segments {
		b.WriteByte('/')
		switch v := seg.(type) {
		case Literal:
			b.WriteString(string(v))
		case Var:
			b.WriteByte('(')
			b.WriteString(v.Name)
			b.WriteByte(')')
		case VarRest:
			b.WriteByte('(')
			b.WriteString(v.Name)
			b.WriteString("..)")
		}
	}
	return b.String()
}

// RenderDstTemplate renders a destination template back into the
// surface syntax it was parsed from.
func RenderDstTemplate(d Dst) string {
	switch v := d.(type) {
	case Nothing:
		return "nothing"
	case StatusCode:
		return fmt.Sprintf("statuscode://%d", v.Code)
	case File:
		return renderTemplate(v.RootTemplate)
	case HTTPUpstream:
		path := renderTemplate(v.Path)
		return fmt.Sprintf("%s://%s:%s%s", v.Scheme, v.Host, v.Port, path)
	case TCPUpstream:
		return fmt.Sprintf("tcp://%s:%s", v.Host, v.Port)
	default:
		return ""
	}
}
