package views

import (
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"

	"github.com/kabuchi/folio/post"
	"github.com/kabuchi/folio/wizard"
)

// Messages shown after a form is handled.
const (
	SentMessage   = "Thanks! Your message has been sent. I'll get back to you soon."
	FailedMessage = "Something went wrong. Please email me directly."
)

func postCard(p post.Post) g.Node {
	return Article(Class("post-card"),
		g.If(p.CoverImage != "", A(Href(p.URL()+"/"), Img(Src(p.CoverImage), Alt(p.Title), g.Attr("loading", "lazy")))),
		H3(A(Href(p.URL()+"/"), g.Text(p.Title))),
		P(Class("post-meta"),
			g.Text(FormatDate(p.Date)),
			g.If(p.Location != "", g.Textf(" · %s", p.Location)),
		),
		P(g.Text(p.Excerpt)),
	)
}

func postList(posts []post.Post, empty string) g.Node {
	if len(posts) == 0 {
		return P(Class("empty"), g.Text(empty))
	}
	cards := make([]g.Node, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, postCard(p))
	}
	return Div(Class("post-grid"), g.Group(cards))
}

// HomePage is the landing page linking the three sub-brands.
func HomePage(site Site, recent []post.Post) templ.Component {
	return page(site, PageMeta{URL: buildURL(site.URL), JSONLD: WebsiteJsonLD(site)},
		Section(Class("hero"),
			H1(g.Text(site.Name)),
			P(g.Text(site.Description)),
		),
		Section(Class("brands"),
			A(Class("brand-card"), Href("/ai/"), H2(g.Text("AI Consulting")), P(g.Text("Strategy, automation and hands-on builds."))),
			A(Class("brand-card"), Href("/dj/"), H2(g.Text("DJ")), P(g.Text("Weddings, private events and club nights."))),
			A(Class("brand-card"), Href("/travel/"), H2(g.Text("Travel")), P(g.Text("Stories from the road and custom trip plans."))),
		),
		Section(Class("recent"),
			H2(g.Text("Latest writing")),
			postList(recent, "Nothing published yet."),
		),
	)
}

var interestOptions = [][2]string{
	{"", "Select an area"},
	{"strategy", "AI strategy"},
	{"automation", "Workflow automation"},
	{"training", "Team training"},
	{"development", "Custom development"},
	{"other", "Something else"},
}

// AIPage is the consulting page: case studies plus the contact form.
func AIPage(site Site, posts []post.Post, f FormState, csrf string) templ.Component {
	return page(site, PageMeta{Title: "AI Consulting", URL: buildURL(site.URL, "ai")},
		Section(Class("hero"),
			H1(g.Text("AI Consulting")),
			P(g.Text("Practical AI for small teams: from first experiments to production workflows.")),
		),
		Section(Class("work"),
			H2(g.Text("Recent work")),
			postList(posts, "Case studies are on their way."),
		),
		Section(ID("contact"), Class("contact"),
			H2(g.Text("Get in touch")),
			formStatus(f, SentMessage),
			g.El("form", Method("post"), Action("/ai/contact/#contact"),
				csrfField(csrf),
				field(f, "name", "Name", "text", Required()),
				field(f, "email", "Email", "email", Required()),
				field(f, "company", "Company", "text"),
				field(f, "role", "Role", "text"),
				selectField(f, "interest", "What are you interested in?", interestOptions),
				textarea(f, "message", "Message"),
				Button(Type("submit"), g.Text("Send message")),
			),
		),
	)
}

// DJPage is the DJ page with the booking form.
func DJPage(site Site, f FormState, csrf string) templ.Component {
	return page(site, PageMeta{Title: "DJ Bookings", URL: buildURL(site.URL, "dj")},
		Section(Class("hero"),
			H1(g.Text("DJ Bookings")),
			P(g.Text("Open format sets for weddings, private parties and club nights.")),
		),
		Section(ID("book"), Class("booking"),
			H2(g.Text("Check availability")),
			formStatus(f, SentMessage),
			g.El("form", Method("post"), Action("/dj/book/#book"),
				csrfField(csrf),
				field(f, "name", "Name", "text", Required()),
				field(f, "email", "Email", "email", Required()),
				field(f, "phone", "Phone", "tel", Required()),
				field(f, "eventType", "Event type", "text", Placeholder("Wedding, birthday, corporate..."), Required()),
				field(f, "date", "Event date", "date", Required()),
				textarea(f, "details", "Details"),
				Button(Type("submit"), g.Text("Request booking")),
			),
		),
	)
}

var budgetOptions = [][2]string{
	{"", "Select a budget"},
	{"budget", "Budget"},
	{"mid", "Mid-range"},
	{"luxury", "Luxury"},
}

var wizardFields = map[wizard.Step][]string{
	wizard.StepDestination: {"destination", "travelDates"},
	wizard.StepLogistics:   {"budget", "travelers"},
	wizard.StepInterests:   {"interests"},
	wizard.StepContact:     {"name", "email"},
}

func wizardStep(step wizard.Step, f FormState) g.Node {
	switch step {
	case wizard.StepLogistics:
		return Div(
			selectField(f, "budget", "Budget", budgetOptions),
			field(f, "travelers", "Travelers", "number", g.Attr("min", "1")),
		)
	case wizard.StepInterests:
		return textarea(f, "interests", "What do you want to do there?")
	case wizard.StepContact:
		return Div(
			field(f, "name", "Name", "text"),
			field(f, "email", "Email", "email"),
		)
	default:
		return Div(
			field(f, "destination", "Where to?", "text"),
			field(f, "travelDates", "When?", "text", Placeholder("e.g. March 2025, 10 days")),
		)
	}
}

// travelWizard renders the current step. Values from the other steps ride
// along as hidden inputs so the page alone carries the wizard state.
func travelWizard(step wizard.Step, f FormState, csrf string) g.Node {
	if f.Sent {
		return formStatus(f, "Thanks! I'll put together some ideas and email you soon.")
	}
	nodes := []g.Node{
		Method("post"), Action("/travel/plan/#plan"),
		csrfField(csrf),
		hidden("step", strconv.Itoa(int(step))),
	}
	for _, s := range wizard.Steps {
		if s == step {
			continue
		}
		for _, name := range wizardFields[s] {
			nodes = append(nodes, hidden(name, f.Value(name)))
		}
	}
	nodes = append(nodes,
		P(Class("wizard-progress"), g.Textf("Step %d of %d", int(step), len(wizard.Steps))),
		wizardStep(step, f),
	)
	buttons := []g.Node{Class("wizard-actions")}
	if step > wizard.StepDestination {
		buttons = append(buttons, Button(Type("submit"), Name("action"), Value("back"), g.Attr("formnovalidate"), g.Text("Back")))
	}
	if step == wizard.StepContact {
		buttons = append(buttons, Button(Type("submit"), Name("action"), Value("submit"), g.Text("Send request")))
	} else {
		buttons = append(buttons, Button(Type("submit"), Name("action"), Value("next"), g.Text("Next")))
	}
	nodes = append(nodes, Div(buttons...))
	return Div(
		formStatus(FormState{Failure: f.Failure}, ""),
		g.El("form", nodes...),
	)
}

// TravelPage lists travel stories and hosts the trip planning wizard.
func TravelPage(site Site, posts []post.Post, step wizard.Step, f FormState, csrf string) templ.Component {
	return page(site, PageMeta{Title: "Travel", URL: buildURL(site.URL, "travel")},
		Section(Class("hero"),
			H1(g.Text("Travel")),
			P(g.Text("Notes from the road, and help planning your next trip.")),
		),
		Section(Class("stories"),
			H2(g.Text("Stories")),
			postList(posts, "No stories yet."),
		),
		Section(ID("plan"), Class("planner"),
			H2(g.Text("Plan a trip")),
			travelWizard(step, f, csrf),
		),
	)
}

// BlogPage lists personal posts.
func BlogPage(site Site, posts []post.Post) templ.Component {
	return page(site, PageMeta{Title: "Blog", URL: buildURL(site.URL, "blog")},
		H1(g.Text("Blog")),
		postList(posts, "No posts yet."),
	)
}

// PostPage renders a single post. Content is stored as HTML.
func PostPage(site Site, p post.Post) templ.Component {
	tags := make([]g.Node, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, Li(Class("tag"), g.Text(t)))
	}
	header := Component(
		Header(
			P(A(Href(post.SectionPath(p.Category)), g.Text("← Back"))),
			H1(g.Text(p.Title)),
			P(Class("post-meta"),
				g.Text(FormatDate(p.Date)),
				g.If(p.Location != "", g.Textf(" · %s", p.Location)),
			),
		),
		g.If(p.CoverImage != "", Img(Class("cover"), Src(p.CoverImage), Alt(p.Title))),
	)
	tagList := Component(g.If(len(tags) > 0, Ul(Class("tags"), g.Group(tags))))

	article := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		buf.WriteString(`<article class="post">`)
		for _, c := range []templ.Component{header, PostBody(p.Content), tagList} {
			if err := c.Render(ctx, &buf); err != nil {
				return err
			}
		}
		buf.WriteString("</article>")
		_, err := w.Write(buf.Bytes())
		return err
	})

	meta := PageMeta{
		Title:       p.Title,
		Description: p.Excerpt,
		URL:         PostURL(site, p),
		OGType:      "article",
		JSONLD:      BlogPostingJsonLD(site, p),
	}
	return Layout(site, meta, article)
}

// NotFoundPage is rendered for unknown routes and missing posts.
func NotFoundPage(site Site) templ.Component {
	return page(site, PageMeta{Title: "Not found"},
		H1(g.Text("Page not found")),
		P(A(Href("/"), g.Text("Go home"))),
	)
}

// ServerErrorPage is rendered for unexpected failures.
func ServerErrorPage(site Site) templ.Component {
	return page(site, PageMeta{Title: "Error"},
		H1(g.Text("Something went wrong")),
		P(g.Text(FailedMessage)),
	)
}
