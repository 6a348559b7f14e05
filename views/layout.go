package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

func navbar(site Site) g.Node {
	return Nav(Class("nav"),
		A(Class("brand"), Href("/"), g.Text(site.Name)),
		Div(Class("nav-links"),
			A(Href("/ai/"), g.Text("AI Consulting")),
			A(Href("/dj/"), g.Text("DJ")),
			A(Href("/travel/"), g.Text("Travel")),
			A(Href("/blog/"), g.Text("Blog")),
		),
	)
}

func footer(site Site) g.Node {
	return Footer(Class("footer"),
		P(Small(g.Textf("© %s", site.Name))),
		P(Small(A(Href("/feed.xml"), g.Text("RSS")))),
	)
}

// Layout renders the shared HTML document shell around content.
func Layout(site Site, meta PageMeta, content ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		writeHead(&buf, site, meta)
		buf.WriteString(`<body><div class="container">`)
		if err := Component(navbar(site)).Render(ctx, &buf); err != nil {
			return err
		}
		buf.WriteString("<main>")
		for _, c := range content {
			if err := c.Render(ctx, &buf); err != nil {
				return err
			}
		}
		buf.WriteString("</main></div>")
		if err := Component(footer(site)).Render(ctx, &buf); err != nil {
			return err
		}
		buf.WriteString("</body></html>")
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func writeHead(buf *bytes.Buffer, site Site, meta PageMeta) {
	title := site.Name
	if meta.Title != "" {
		title = meta.Title + " | " + site.Name
	}
	desc := meta.Description
	if desc == "" {
		desc = site.Description
	}
	ogType := meta.OGType
	if ogType == "" {
		ogType = "website"
	}

	buf.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
	buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	buf.WriteString("<title>" + templ.EscapeString(title) + "</title>")
	writeMeta(buf, "name", "description", desc)
	if meta.URL != "" {
		buf.WriteString(`<link rel="canonical" href="` + templ.EscapeString(meta.URL) + `">`)
	}
	writeMeta(buf, "property", "og:title", title)
	writeMeta(buf, "property", "og:description", desc)
	writeMeta(buf, "property", "og:type", ogType)
	if meta.URL != "" {
		writeMeta(buf, "property", "og:url", meta.URL)
	}
	buf.WriteString(`<link rel="alternate" type="application/rss+xml" href="/feed.xml">`)
	buf.WriteString(`<link rel="stylesheet" href="/public/site.css">`)
	if meta.JSONLD != "" {
		// json.Marshal escapes <, > and &, so the block cannot close the script early.
		buf.WriteString(`<script type="application/ld+json">` + meta.JSONLD + `</script>`)
	}
	buf.WriteString("</head>")
}

func writeMeta(buf *bytes.Buffer, attr, key, content string) {
	buf.WriteString(`<meta ` + attr + `="` + key + `" content="` + templ.EscapeString(content) + `">`)
}

// page wraps gomponents children in Layout.
func page(site Site, meta PageMeta, children ...g.Node) templ.Component {
	return Layout(site, meta, Component(children...))
}

// field renders a labelled input with its validation message.
func field(f FormState, name, label, inputType string, attrs ...g.Node) g.Node {
	nodes := []g.Node{
		Name(name), ID(name), Type(inputType), Value(f.Value(name)),
	}
	nodes = append(nodes, attrs...)
	return Div(Class("field"),
		g.El("label", g.Attr("for", name), g.Text(label)),
		Input(nodes...),
		fieldError(f, name),
	)
}

func textarea(f FormState, name, label string) g.Node {
	return Div(Class("field"),
		g.El("label", g.Attr("for", name), g.Text(label)),
		Textarea(Name(name), ID(name), g.Attr("rows", "6"), g.Text(f.Value(name))),
		fieldError(f, name),
	)
}

func selectField(f FormState, name, label string, options [][2]string) g.Node {
	opts := []g.Node{Name(name), ID(name)}
	for _, o := range options {
		opts = append(opts, Option(Value(o[0]), g.If(f.Value(name) == o[0], Selected()), g.Text(o[1])))
	}
	return Div(Class("field"),
		g.El("label", g.Attr("for", name), g.Text(label)),
		Select(opts...),
		fieldError(f, name),
	)
}

func fieldError(f FormState, name string) g.Node {
	msg := f.Error(name)
	return g.If(msg != "", P(Class("field-error"), g.Text(msg)))
}

func hidden(name, value string) g.Node {
	return Input(Type("hidden"), Name(name), Value(value))
}

func csrfField(token string) g.Node {
	return hidden("_csrf", token)
}

func formStatus(f FormState, sent string) g.Node {
	switch {
	case f.Sent:
		return Div(Class("notice success"), g.Attr("role", "status"), g.Text(sent))
	case f.Failure != "":
		return Div(Class("notice error"), g.Attr("role", "alert"), g.Text(f.Failure))
	default:
		return nil
	}
}
