package blog

import (
	"errors"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eringen/linkpress/store"
)

// PostInput is what the admin submits to create a post. Tags may hold
// individual names or comma-separated lists.
type PostInput struct {
	Title      string   `form:"title" json:"title" validate:"required,max=200"`
	Slug       string   `form:"slug" json:"slug" validate:"required,slug,max=200"`
	Excerpt    string   `form:"excerpt" json:"excerpt" validate:"required,max=2000"`
	ArticleURL string   `form:"article_url" json:"article_url" validate:"required,weblink"`
	ImageURL   string   `form:"image_url" json:"image_url" validate:"required,weblink"`
	CategoryID string   `form:"category_id" json:"category_id" validate:"omitempty,uuid"`
	Tags       []string `form:"tags" json:"tags" validate:"dive,tagname,max=50"`
}

// Normalize trims every field, derives the slug from the title when it is
// empty, and reduces Tags to distinct names. Names that differ only in case
// are the same tag; the first spelling wins.
func (in *PostInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.ArticleURL = strings.TrimSpace(in.ArticleURL)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	if in.Slug == "" {
		in.Slug = Slugify(in.Title)
	}
	in.Tags = uniqueTagNames(in.Tags)
}

func uniqueTagNames(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var names []string
	for _, entry := range raw {
		for _, name := range strings.Split(entry, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			key := store.Fold(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// ValidationError lists the invalid fields of a PostInput with a message
// for each, keyed by the field's form name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid post: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "" && Slugify(s) == s
	})
	v.RegisterValidation("weblink", func(fl validator.FieldLevel) bool {
		return IsWebURL(fl.Field().String())
	})
	v.RegisterValidation("tagname", func(fl validator.FieldLevel) bool {
		return Slugify(fl.Field().String()) != ""
	})
	return v
}

// IsWebURL reports whether s is an absolute http or https URL with a host.
func IsWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Validate checks the input after Normalize. It returns a *ValidationError
// describing every invalid field.
func (in PostInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field, _, _ := strings.Cut(fe.Field(), "[")
		if _, ok := fields[field]; ok {
			continue
		}
		fields[field] = fieldMessage(field, fe)
	}
	return &ValidationError{Fields: fields}
}

var fieldLabels = map[string]string{
	"title":       "Title",
	"slug":        "Slug",
	"excerpt":     "Excerpt",
	"article_url": "Article URL",
	"image_url":   "Image URL",
	"category_id": "Category",
	"tags":        "Tag",
}

func fieldMessage(field string, fe validator.FieldError) string {
	label := fieldLabels[field]
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "max":
		return label + " must be at most " + fe.Param() + " characters"
	case "weblink":
		return "Please enter a valid " + strings.ToLower(label[:1]) + label[1:] + " (http or https)"
	case "slug":
		return "Slug may only contain lowercase letters, digits and single dashes"
	case "uuid":
		return "Unknown category"
	case "tagname":
		return "Tag names must contain at least one letter or digit"
	default:
		return label + " is invalid"
	}
}
