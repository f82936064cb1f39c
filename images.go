package linkpress

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/linkpress/blog"
	"github.com/eringen/linkpress/filestore"
	"github.com/eringen/linkpress/views"
)

// handleImageUpload stores a featured image and shows the dashboard again
// with its URL in the form. The form fields travel along as hidden inputs.
func (a *App) handleImageUpload(c echo.Context) error {
	var in blog.PostInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}
	d := views.Dashboard{Form: in}

	file, err := c.FormFile("image")
	if err != nil {
		d.Error = "No image file provided"
		return a.renderAdminDashboard(c, http.StatusBadRequest, d)
	}
	if file.Size > filestore.MaxUploadSize {
		d.Error = fmt.Sprintf("File too large (max %dMB)", filestore.MaxUploadSize>>20)
		return a.renderAdminDashboard(c, http.StatusBadRequest, d)
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, err := filestore.Upload(c.Request().Context(), a.images, src, file.Filename)
	if err != nil {
		c.Logger().Errorf("upload %s: %v", file.Filename, err)
		d.Error = "Could not upload image: " + err.Error()
		return a.renderAdminDashboard(c, http.StatusBadRequest, d)
	}

	c.Logger().Infof("uploaded %s (%dx%d, %d bytes)", img.Filename, img.Width, img.Height, img.Size)
	d.Form.ImageURL = absoluteURL(a.Config.URL, img.URL)
	d.Message = "Image uploaded."
	return a.renderAdminDashboard(c, http.StatusOK, d)
}
