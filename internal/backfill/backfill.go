// Package backfill imports already-published review pages back into the
// record store. It parses the page's structured markup (the data attributes
// on #game-house plus the review content containers) and recreates each page
// as a stored record.
package backfill

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mouseadmin/internal/errors"
	"git.home.luguber.info/inful/mouseadmin/internal/fields"
	"git.home.luguber.info/inful/mouseadmin/internal/logfields"
	"git.home.luguber.info/inful/mouseadmin/internal/schema"
	"git.home.luguber.info/inful/mouseadmin/internal/store"
)

// Review holds the values scraped from one published review page.
type Review struct {
	Title          string
	ArtURL         string
	Developer      string
	Rating         string
	Platform       string
	Completion     string
	Method         string
	Date           *time.Time
	Emulated       bool
	Review         string
	Recommendation string
	Extras         string
}

// Parse extracts a Review from a published page. The page must carry the
// #game-house element; the content containers are optional.
func Parse(pageHTML []byte) (*Review, error) {
	doc, err := html.Parse(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, errors.ValidationFailed("page", "not parseable as HTML")
	}

	house := findByID(doc, "game-house")
	if house == nil {
		return nil, errors.ValidationFailed("page", "no #game-house element")
	}

	data := map[string]string{}
	for _, attr := range house.Attr {
		if name, ok := strings.CutPrefix(attr.Key, "data-"); ok {
			data[name] = attr.Val
		}
	}

	r := &Review{
		Title:          data["title"],
		ArtURL:         data["art-url"],
		Developer:      data["developer"],
		Rating:         data["rating"],
		Platform:       data["platform"],
		Completion:     data["completion"],
		Method:         data["method"],
		Emulated:       data["emulated"] == "on",
		Review:         innerHTML(findByID(doc, "game-review-content")),
		Recommendation: innerHTML(findByID(doc, "game-rec-answer")),
		Extras:         innerHTML(findByID(doc, "extras")),
	}
	if raw := data["date"]; raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			r.Date = &t
		} else if t, ok := store.ParseShortDate(raw); ok {
			r.Date = &t
		}
	}
	return r, nil
}

// FieldValues serializes the review through the schema's field types. Only
// fields the schema actually declares are produced.
func (r *Review) FieldValues(reg *fields.Registry, sc *schema.Schema) ([]schema.FieldValue, error) {
	byName := map[string]any{
		"title":          r.Title,
		"art_url":        r.ArtURL,
		"developer":      r.Developer,
		"rating":         r.Rating,
		"platform":       r.Platform,
		"completion":     r.Completion,
		"method":         r.Method,
		"emulated":       r.Emulated,
		"review":         r.Review,
		"recommendation": r.Recommendation,
		"extras":         r.Extras,
	}
	if r.Date != nil {
		byName["date"] = *r.Date
	} else {
		byName["date"] = nil
	}

	var values []schema.FieldValue
	for _, def := range sc.Fields {
		v, ok := byName[def.Name]
		if !ok {
			continue
		}
		ft, err := reg.Lookup(def.Kind)
		if err != nil {
			return nil, err
		}
		raw, err := ft.Serialize(v)
		if err != nil {
			return nil, errors.ValidationFailed(def.Name, err.Error())
		}
		values = append(values, schema.FieldValue{FieldName: def.Name, ValueJSON: raw})
	}
	return values, nil
}

// Importer fetches published pages and stores them as records.
type Importer struct {
	Store    *store.Store
	Registry *fields.Registry
	Fetcher  fields.ContentFetcher
	Logger   *slog.Logger
}

// Import fetches, parses and stores the given page URLs under the schema.
// Pages are inserted sorted by review date, oldest first, so record order
// mirrors the site's history. Returns the number of records created.
func (imp *Importer) Import(ctx context.Context, schemaID int64, urls []string) (int, error) {
	logger := imp.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sc, err := imp.Store.GetSchema(ctx, schemaID)
	if err != nil {
		return 0, err
	}

	var reviews []*Review
	for _, u := range urls {
		page, err := imp.Fetcher.FetchURL(ctx, u)
		if err != nil {
			return 0, err
		}
		r, err := Parse(page)
		if err != nil {
			var adminErr *errors.AdminError
			if stderrors.As(err, &adminErr) {
				err = adminErr.WithContext("url", u)
			}
			return 0, err
		}
		logger.Debug("parsed review page", slog.String("url", u), slog.String("title", r.Title))
		reviews = append(reviews, r)
	}

	sort.SliceStable(reviews, func(i, j int) bool {
		switch {
		case reviews[i].Date == nil:
			return reviews[j].Date != nil
		case reviews[j].Date == nil:
			return false
		default:
			return reviews[i].Date.Before(*reviews[j].Date)
		}
	})

	for _, r := range reviews {
		values, err := r.FieldValues(imp.Registry, sc)
		if err != nil {
			return 0, err
		}
		rec, err := imp.Store.CreateRecord(ctx, sc.ID)
		if err != nil {
			return 0, err
		}
		if _, err := imp.Store.ReplaceFieldValues(ctx, rec.ID, values); err != nil {
			return 0, err
		}
		logger.Info("imported review",
			logfields.Schema(sc.Name),
			logfields.RecordID(rec.ID),
			slog.String("title", r.Title))
	}
	return len(reviews), nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// innerHTML renders the serialized children of n, like the DOM property.
func innerHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return strings.TrimSpace(buf.String())
}
