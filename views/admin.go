package views

import (
	"fmt"

	"github.com/a-h/templ"
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"

	"github.com/kabuchi/folio/objectstore"
	"github.com/kabuchi/folio/post"
)

func adminNav() g.Node {
	return Nav(Class("admin-nav"),
		A(Href("/admin/"), g.Text("Posts")),
		A(Href("/admin/images/"), g.Text("Images")),
	)
}

func logoutForm(csrf string) g.Node {
	return g.El("form", Method("post"), Action("/admin/logout/"),
		csrfField(csrf),
		Button(Type("submit"), g.Text("Log out")),
	)
}

func notice(msg string) g.Node {
	return g.If(msg != "", Div(Class("notice"), g.Attr("role", "status"), g.Text(msg)))
}

// AdminLoginPage is the password prompt.
func AdminLoginPage(site Site, showError bool, csrf string) templ.Component {
	return page(site, PageMeta{Title: "Admin"},
		H1(g.Text("Admin")),
		g.If(showError, P(Class("field-error"), g.Text("Invalid password."))),
		g.El("form", Method("post"), Action("/admin/login/"),
			csrfField(csrf),
			Div(Class("field"),
				g.El("label", g.Attr("for", "password"), g.Text("Password")),
				Input(Type("password"), Name("password"), ID("password"), Required(), g.Attr("autocomplete", "current-password")),
			),
			Button(Type("submit"), g.Text("Log in")),
		),
	)
}

var categoryOptions = func() [][2]string {
	opts := [][2]string{{"", "Select a category"}}
	for _, c := range post.Categories {
		opts = append(opts, [2]string{string(c), string(c)})
	}
	return opts
}()

// AdminDashboardPage lists every post with delete buttons and the new post form.
func AdminDashboardPage(site Site, posts []post.Post, f FormState, msg, csrf string) templ.Component {
	rows := make([]g.Node, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, Tr(
			Td(A(Href(p.URL()+"/"), g.Text(p.Title))),
			Td(g.Text(string(p.Category))),
			Td(g.Text(FormatDate(p.Date))),
			Td(
				g.El("form", Method("post"), Action(fmt.Sprintf("/admin/posts/%s/delete/", p.ID)),
					csrfField(csrf),
					Button(Type("submit"), Class("danger"), g.Text("Delete")),
				),
			),
		))
	}
	return page(site, PageMeta{Title: "Dashboard"},
		adminNav(),
		logoutForm(csrf),
		H1(g.Text("Posts")),
		notice(msg),
		g.If(len(posts) == 0, P(Class("empty"), g.Text("No posts yet."))),
		g.If(len(posts) > 0, Table(
			THead(Tr(Th(g.Text("Title")), Th(g.Text("Category")), Th(g.Text("Date")), Th())),
			TBody(g.Group(rows)),
		)),
		H2(g.Text("New post")),
		g.El("form", Method("post"), Action("/admin/posts/"),
			csrfField(csrf),
			field(f, "title", "Title", "text", Required()),
			field(f, "slug", "Slug", "text", Placeholder("generated from the title when empty")),
			selectField(f, "category", "Category", categoryOptions),
			field(f, "date", "Date", "date"),
			field(f, "location", "Location", "text"),
			field(f, "coverImage", "Cover image URL", "text"),
			field(f, "tags", "Tags", "text", Placeholder("comma separated")),
			textarea(f, "excerpt", "Excerpt"),
			textarea(f, "content", "Content"),
			Div(Class("field"),
				g.El("label",
					Input(Type("checkbox"), Name("markdown"), Value("1"), g.If(f.Value("markdown") != "", Checked())),
					g.Text(" Content is Markdown"),
				),
			),
			Button(Type("submit"), g.Text("Publish")),
		),
	)
}

// AdminImagesPage is the image library.
func AdminImagesPage(site Site, images []objectstore.Object, msg, csrf string) templ.Component {
	items := make([]g.Node, 0, len(images))
	for _, img := range images {
		items = append(items, Li(Class("image-item"),
			Img(Src(img.URL), Alt(img.Key), g.Attr("loading", "lazy")),
			Input(Type("text"), g.Attr("readonly"), Value(img.URL)),
			Small(g.Textf("%d KB", (img.Size+1023)/1024)),
			g.El("form", Method("post"), Action("/admin/images/delete/"),
				csrfField(csrf),
				hidden("key", img.Key),
				Button(Type("submit"), Class("danger"), g.Text("Delete")),
			),
		))
	}
	return page(site, PageMeta{Title: "Images"},
		adminNav(),
		H1(g.Text("Images")),
		notice(msg),
		g.El("form", Method("post"), Action("/admin/images/upload/"), g.Attr("enctype", "multipart/form-data"),
			csrfField(csrf),
			Input(Type("file"), Name("image"), g.Attr("accept", "image/*"), Required()),
			Button(Type("submit"), g.Text("Upload")),
		),
		g.If(len(items) == 0, P(Class("empty"), g.Text("No images uploaded yet."))),
		g.If(len(items) > 0, Ul(Class("image-grid"), g.Group(items))),
	)
}
