package linkpress

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/linkpress/blog"
	"github.com/eringen/linkpress/preview"
	"github.com/eringen/linkpress/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, views.AdminLogin(a.site(), false, CsrfToken(c)))
	}
	d := views.Dashboard{}
	if c.QueryParam("msg") == "created" {
		d.Message = "Article created."
	}
	return a.renderAdminDashboard(c, http.StatusOK, d)
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c, a.Config.AdminUser); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	return RenderStatus(c, http.StatusUnauthorized, views.AdminLogin(a.site(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// handleAdminCreatePost creates a post from the dashboard form. On failure
// the form is shown again with what the admin typed.
func (a *App) handleAdminCreatePost(c echo.Context) error {
	var in blog.PostInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}
	_, err := a.Blog.CreatePost(c.Request().Context(), in)
	if err == nil {
		return c.Redirect(http.StatusSeeOther, "/admin/?msg=created")
	}

	in.Normalize()
	code, body := createErrorResponse(err)
	d := views.Dashboard{Form: in, Error: body.Message}
	var verr *blog.ValidationError
	if errors.As(err, &verr) {
		d.Errors = verr.Fields
	}
	return a.renderAdminDashboard(c, code, d)
}

// handleAdminPreview prefills the form from the article the url parameter
// points at.
func (a *App) handleAdminPreview(c echo.Context) error {
	rawURL := strings.TrimSpace(c.QueryParam("url"))
	d := views.Dashboard{Form: blog.PostInput{ArticleURL: rawURL}}
	if rawURL == "" {
		d.Error = "Enter an article link to fetch its details."
		return a.renderAdminDashboard(c, http.StatusBadRequest, d)
	}

	p, err := a.previews.Fetch(c.Request().Context(), rawURL)
	if err != nil {
		c.Logger().Warnf("preview %s: %v", rawURL, err)
		if errors.Is(err, preview.ErrBlockedURL) {
			d.Error = "Only public https links can be previewed."
			return a.renderAdminDashboard(c, http.StatusBadRequest, d)
		}
		d.Error = "Could not fetch article details. Fill in the form manually."
		return a.renderAdminDashboard(c, http.StatusBadGateway, d)
	}

	d.Form = blog.PostInput{
		Title:      p.Title,
		Slug:       blog.Slugify(p.Title),
		Excerpt:    p.Excerpt,
		ArticleURL: p.URL,
		ImageURL:   p.ImageURL,
	}
	d.Message = "Details fetched. Review them before creating the article."
	if p.SiteName != "" {
		d.Message = "Details fetched from " + p.SiteName + ". Review them before creating the article."
	}
	return a.renderAdminDashboard(c, http.StatusOK, d)
}

// renderAdminDashboard fills in the lists and the CSRF token and renders d.
// A failed list load shows as a notice instead of failing the page.
func (a *App) renderAdminDashboard(c echo.Context, code int, d views.Dashboard) error {
	ctx := c.Request().Context()
	posts, perr := a.Blog.ListPosts(ctx, blog.Filter{})
	categories, cerr := a.Blog.ListCategories(ctx)
	if (perr != nil || cerr != nil) && d.Error == "" {
		d.Error = "Failed to load blog data"
	}
	d.Posts = posts
	d.Categories = categories
	d.CSRF = CsrfToken(c)
	return RenderStatus(c, code, views.AdminDashboard(a.site(), d))
}
