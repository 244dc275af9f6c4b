package pages

import (
	"context"
	"fmt"

	"github.com/dgallion1/rssmd/internal/feeds"
	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/outline"
	"github.com/dgallion1/rssmd/internal/render"
)

type ToolsView struct {
	Loading       bool           `json:"isLoading"`
	Sources       []feeds.Source `json:"rssList"`
	SelectedName  string         `json:"selectedRssName"`
	SelectedIndex int            `json:"selectedRssIndex"`
	Content       *render.Result `json:"article"`
	Markdown      string         `json:"rawMarkdown"`
	OutlineView
}

// Tools is the RSS reader: pick a source, read its digest, share it to the
// image converter.
type Tools struct {
	base
	reader
	view ToolsView
}

func NewTools(env *Env) *Tools {
	return &Tools{base: newBase(env, "tools")}
}

func (p *Tools) View() ToolsView {
	v := p.view
	v.OutlineView = p.outline
	return v
}

// Load lists the sources and opens the first one.
func (p *Tools) Load(ctx context.Context, s host.Surface) error {
	if p.env.Feeds == nil {
		return invalid("Feeds are not configured")
	}
	p.view.Loading = true
	var sources []feeds.Source
	err := load(ctx, &p.base, s, MsgLoadFailed, p.env.Feeds.Sources,
		func(list []feeds.Source) { sources = list })
	if err != nil || !p.Attached() {
		if p.Attached() {
			p.view.Loading = false
		}
		return err
	}
	p.view.Sources = sources
	if len(sources) == 0 {
		p.view.Loading = false
		p.view.SelectedName = ""
		return nil
	}
	p.view.SelectedIndex = 0
	p.view.SelectedName = sources[0].Name
	return p.loadFeed(ctx, s)
}

// Select switches to the source at index.
func (p *Tools) Select(ctx context.Context, s host.Surface, index int) error {
	if index < 0 || index >= len(p.view.Sources) {
		return invalid(fmt.Sprintf("no feed at index %d", index))
	}
	p.view.SelectedIndex = index
	p.view.SelectedName = p.view.Sources[index].Name
	return p.loadFeed(ctx, s)
}

func (p *Tools) Refresh(ctx context.Context, s host.Surface) error {
	if p.view.SelectedName == "" {
		return p.Load(ctx, s)
	}
	return p.loadFeed(ctx, s)
}

func (p *Tools) loadFeed(ctx context.Context, s host.Surface) error {
	p.view.Loading = true
	name := p.view.SelectedName
	err := load(ctx, &p.base, s, MsgLoadFailed,
		func(ctx context.Context) (string, error) {
			return p.env.Feeds.Markdown(ctx, name)
		},
		func(md string) {
			headings := outline.Extract(md)
			res := render.MarkdownContent(md, headings)
			if !res.Fallback && p.env.API != nil {
				render.ResolveMermaid(ctx, res.Tree, p.env.API, p.log)
			}
			p.view.Markdown = md
			p.view.Content = &res
			p.setHeadings(headings, p.env.threshold())
		})
	if p.Attached() {
		p.view.Loading = false
	}
	return err
}

// Share opens the converter prefilled with the current digest. It needs
// loaded content and a session.
func (p *Tools) Share(ctx context.Context, s host.Surface) error {
	if p.view.Markdown == "" {
		return p.reject(ctx, s, "Please load content first", host.IconNone)
	}
	loggedIn, err := p.env.State.LoggedIn(ctx)
	if err != nil {
		return err
	}
	if !loggedIn {
		_, err := host.ToLogin(ctx, s, p.env.loginRoute())
		return err
	}
	return s.NavigateTo(ctx, withQuery(RouteConvert, "markdown", p.view.Markdown))
}
