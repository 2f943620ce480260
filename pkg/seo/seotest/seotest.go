// Package seotest provides documents and a scripted correction capability
// for tests of the optimization packages.
package seotest

import (
	"context"
	"strings"
	"sync"

	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/corrector"
)

// CompliantMeta is a 135 character meta description containing the
// keyword "espresso".
const CompliantMeta = "Learn espresso basics at home: choose fresh beans, dial in your grind, and build simple daily habits that make every shot taste better."

// CompliantBody has two h2 headings, three paragraphs, one image with
// the keyword in its alt text, no passive sentences and 6 of 10 sentences
// with transition words.
const CompliantBody = `<h2>Choosing Beans</h2>
<p>Fresh beans matter more than any machine. However, good water also shapes the flavor in every cup. First, buy whole beans from a local roaster. Then grind them right before brewing.</p>
<h2>Dialing In the Shot</h2>
<p>A good shot takes about thirty seconds. Therefore, adjust the grind until the timing feels right. Taste each shot and write down what changed. Finally, keep your portafilter clean and warm.</p>
<img src="shot.jpg" alt="espresso shot in a glass">
<p>Practice makes the whole routine feel natural. Moreover, small daily habits build real skill over time.</p>`

// Compliant returns a document that passes every check of
// seo.DefaultConfig with a score of 100.
func Compliant() seo.Document {
	return seo.Document{
		Title:           "Espresso Basics for Beginners",
		Body:            CompliantBody,
		MetaDescription: CompliantMeta,
		FocusKeyword:    "espresso",
	}
}

// ShortMeta returns the compliant document with a 14 character meta
// description, which fails only the meta length check.
func ShortMeta() seo.Document {
	d := Compliant()
	d.MetaDescription = "Short espresso"
	return d
}

// Call is one recorded capability invocation.
type Call struct {
	Request corrector.Request
	Prompt  string
}

// Capability is a scripted corrector.Capability. Fn decides the result
// of every call; calls are recorded.
type Capability struct {
	CapName string
	Fn      func(ctx context.Context, doc seo.Document, req corrector.Request) (seo.Document, error)

	mu    sync.Mutex
	calls []Call
}

func (c *Capability) Name() string {
	return c.CapName
}

func (c *Capability) Correct(ctx context.Context, doc seo.Document, promptText string, req corrector.Request) (seo.Document, error) {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Request: req, Prompt: promptText})
	c.mu.Unlock()
	return c.Fn(ctx, doc.Clone(), req)
}

// Calls returns the recorded calls in order.
func (c *Capability) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Fixer returns a capability that repairs the fields of the compliant
// document: meta length and keyword issues get CompliantMeta, title
// issues get the compliant title.
func Fixer(name string) *Capability {
	return &Capability{
		CapName: name,
		Fn: func(_ context.Context, doc seo.Document, req corrector.Request) (seo.Document, error) {
			switch {
			case strings.HasPrefix(string(req.IssueType), "meta_description"):
				doc.MetaDescription = CompliantMeta
			case strings.HasPrefix(string(req.IssueType), "title"):
				doc.Title = Compliant().Title
			}
			return doc, nil
		},
	}
}

// Failing returns a capability whose every call fails with err.
func Failing(name string, err error) *Capability {
	return &Capability{
		CapName: name,
		Fn: func(_ context.Context, doc seo.Document, _ corrector.Request) (seo.Document, error) {
			return doc, err
		},
	}
}
