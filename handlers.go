package linkpress

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/linkpress/blog"
	"github.com/eringen/linkpress/viewstate"
	"github.com/eringen/linkpress/views"
)

// homeState drives a controller to the view the query parameters ask for.
// A search term wins over the filters; a tag narrows the selected category.
func (a *App) homeState(ctx context.Context, category, tag, q string) viewstate.State {
	ctrl := viewstate.New(a.Blog)
	if category == "" && tag == "" && blog.IsBlank(q) {
		_ = ctrl.Mount(ctx)
		return ctrl.State()
	}

	_ = ctrl.LoadCategories(ctx)
	switch {
	case !blog.IsBlank(q):
		_ = ctrl.Search(ctx, q)
	case tag != "":
		if category != "" {
			ctrl.SetCategory(category)
		}
		_ = ctrl.SelectTag(ctx, tag)
	default:
		_ = ctrl.SelectCategory(ctx, category)
	}
	return ctrl.State()
}

func (a *App) handleHome(c echo.Context) error {
	st := a.homeState(c.Request().Context(),
		strings.TrimSpace(c.QueryParam("category")),
		strings.TrimSpace(c.QueryParam("tag")),
		c.QueryParam("q"))

	if c.Request().Header.Get("HX-Request") == "true" && c.QueryParam("partial") == "blog" {
		return Render(c, views.BlogSection(st))
	}
	return Render(c, views.Home(a.site(), st, viewer(c)))
}

func viewer(c echo.Context) views.Viewer {
	u, ok := CurrentUser(c)
	if !ok {
		return views.Viewer{}
	}
	return views.Viewer{Name: u.Name, Admin: u.Admin}
}

func (a *App) handleSitemap(c echo.Context) error {
	categories, err := a.Blog.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, categories)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Blog.ListPosts(c.Request().Context(), blog.Filter{})
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleRobots(c echo.Context) error {
	sitemap := strings.TrimRight(a.Config.URL, "/") + "/sitemap.xml"
	return c.String(http.StatusOK, "User-agent: *\nDisallow: /admin/\nDisallow: /api/\n\nSitemap: "+sitemap+"\n")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		code, msg := http.StatusInternalServerError, "An unknown error occurred"
		if ok {
			code = he.Code
			msg = http.StatusText(code)
		} else {
			c.Logger().Errorf("api error: %v", err)
		}
		_ = apiError(c, code, strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_")), msg)
		return
	}
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.site()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, views.ServerError(a.site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
