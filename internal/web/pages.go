// Package web serves the server-rendered pages. Page routes are guarded by
// middleware.RouteGuard; all mutations go through the JSON API.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"quillpost-backend-go/internal/middleware"
	"quillpost-backend-go/internal/models"
	"quillpost-backend-go/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "login", "register", "create", "profile"}

// pageData is what every page template receives.
type pageData struct {
	Title          string
	User           *models.User
	Offline        bool
	Error          string
	Posts          []*models.Post
	Membership     models.MembershipPlan
	Plans          []models.MembershipPlan
	PostsRemaining int
	Unlimited      bool
	CanPost        bool
	Redirect       string
}

// Pages renders the HTML pages.
type Pages struct {
	templates map[string]*template.Template
	logger    *zap.Logger
}

// NewPages parses the embedded templates.
func NewPages(logger *zap.Logger) (*Pages, error) {
	policy := bluemonday.UGCPolicy()
	funcs := template.FuncMap{
		// Post content is author-supplied HTML; only the allow-listed subset is rendered.
		"sanitizeHTML": func(s string) template.HTML { return template.HTML(policy.Sanitize(s)) },
	}
	templates := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		templates[name] = tmpl
	}
	return &Pages{templates: templates, logger: logger}, nil
}

// RegisterRoutes mounts the pages with their access flags.
func (p *Pages) RegisterRoutes(router gin.IRouter) {
	router.GET("/", middleware.RouteGuard(middleware.Public), p.home)
	router.GET("/login", middleware.RouteGuard(middleware.GuestOnly), p.login)
	router.GET("/register", middleware.RouteGuard(middleware.GuestOnly), p.register)
	router.GET("/create", middleware.RouteGuard(middleware.RequiresAuth), p.create)
	router.GET("/profile", middleware.RouteGuard(middleware.RequiresAuth), p.profile)
}

func (p *Pages) home(c *gin.Context) {
	b := middleware.SessionFrom(c)
	data := p.base(b, "Home")
	posts, err := b.Posts.FetchPosts(c.Request.Context(), "")
	if err != nil {
		data.Error = b.Posts.LastError()
	}
	data.Posts = posts
	p.render(c, "home", data)
}

func (p *Pages) login(c *gin.Context) {
	data := p.base(middleware.SessionFrom(c), "Log in")
	data.Redirect = safeRedirect(c.Query("redirect"))
	p.render(c, "login", data)
}

func (p *Pages) register(c *gin.Context) {
	p.render(c, "register", p.base(middleware.SessionFrom(c), "Register"))
}

func (p *Pages) create(c *gin.Context) {
	b := middleware.SessionFrom(c)
	data := p.base(b, "Write")
	data.CanPost = data.Unlimited || data.PostsRemaining > 0
	p.render(c, "create", data)
}

func (p *Pages) profile(c *gin.Context) {
	b := middleware.SessionFrom(c)
	data := p.base(b, "Profile")
	if data.User != nil {
		posts, err := b.Posts.FetchPosts(c.Request.Context(), data.User.ID)
		if err != nil {
			data.Error = b.Posts.LastError()
		}
		data.Posts = posts
	}
	p.render(c, "profile", data)
}

func (p *Pages) base(b *session.Bundle, title string) pageData {
	membership := b.User.CurrentMembership()
	return pageData{
		Title:          title,
		User:           b.User.User(),
		Offline:        b.User.IsOffline(),
		Error:          b.User.LastError(),
		Membership:     membership,
		Plans:          b.User.Plans(),
		PostsRemaining: b.User.PostsRemaining(),
		Unlimited:      membership.Unlimited(),
	}
}

func (p *Pages) render(c *gin.Context, name string, data pageData) {
	var sb strings.Builder
	if err := p.templates[name].ExecuteTemplate(&sb, "layout", data); err != nil {
		p.logger.Error("Failed to render page", zap.String("page", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(sb.String()))
}

// safeRedirect keeps post-login redirects on this site.
// Browsers read a backslash as a slash, so any backslash is rejected.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return target
}
