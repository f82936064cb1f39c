package linkpress

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/linkpress/blog"
	"github.com/eringen/linkpress/store"
	"github.com/eringen/linkpress/viewstate"
)

// APIError is the JSON body of a failed API request.
type APIError struct {
	ErrorCode string            `json:"error_code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}

func (e APIError) Error() string {
	return e.ErrorCode + ": " + e.Message
}

func apiError(c echo.Context, code int, errorCode, message string) error {
	return c.JSON(code, APIError{ErrorCode: errorCode, Message: message})
}

type postsResponse struct {
	Posts []blog.Post `json:"posts"`
	Error string      `json:"error,omitempty"`
}

type categoriesResponse struct {
	Categories []store.Category `json:"categories"`
	Error      string           `json:"error,omitempty"`
}

type tagsResponse struct {
	Tags  []store.Tag `json:"tags"`
	Error string      `json:"error,omitempty"`
}

// handleAPIPosts answers with the same list the home page would show for
// the category, tag and q parameters.
func (a *App) handleAPIPosts(c echo.Context) error {
	st := a.homeState(c.Request().Context(),
		strings.TrimSpace(c.QueryParam("category")),
		strings.TrimSpace(c.QueryParam("tag")),
		c.QueryParam("q"))
	if st.Status == viewstate.StatusError {
		return c.JSON(http.StatusBadGateway, postsResponse{Posts: st.Posts, Error: st.Err})
	}
	return c.JSON(http.StatusOK, postsResponse{Posts: st.Posts})
}

func (a *App) handleAPICategories(c echo.Context) error {
	categories, err := a.Blog.ListCategories(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadGateway, categoriesResponse{Categories: categories, Error: viewstate.MsgLoadFailed})
	}
	return c.JSON(http.StatusOK, categoriesResponse{Categories: categories})
}

func (a *App) handleAPITags(c echo.Context) error {
	tags, err := a.Blog.ListTags(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadGateway, tagsResponse{Tags: tags, Error: viewstate.MsgLoadFailed})
	}
	return c.JSON(http.StatusOK, tagsResponse{Tags: tags})
}

type tokenRequest struct {
	Password string `json:"password" form:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleAPIToken exchanges the admin password for a bearer token. It shares
// the login limiter with the admin form.
func (a *App) handleAPIToken(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return apiError(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many login attempts. Try again later.")
	}
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "BAD_REQUEST", "Malformed request body")
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.Config.AdminPassword)) != 1 {
		a.loginLimiter.Record(ip)
		return apiError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid password")
	}
	token, expires, err := a.issueToken(a.Config.AdminUser, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires.UTC()})
}

func (a *App) handleAPICreatePost(c echo.Context) error {
	var in blog.PostInput
	if err := c.Bind(&in); err != nil {
		return apiError(c, http.StatusBadRequest, "BAD_REQUEST", "Malformed request body")
	}
	post, err := a.Blog.CreatePost(c.Request().Context(), in)
	if err != nil {
		code, body := createErrorResponse(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusCreated, post)
}

// createErrorResponse maps a CreatePost failure to a status and body.
func createErrorResponse(err error) (int, APIError) {
	var verr *blog.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, APIError{ErrorCode: "VALIDATION_FAILED", Message: "Please fix the highlighted fields", Fields: verr.Fields}
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, APIError{ErrorCode: "CONFLICT", Message: "An article with this slug or a conflicting tag already exists"}
	default:
		return http.StatusBadGateway, APIError{ErrorCode: "CREATE_FAILED", Message: "Failed to create article"}
	}
}
