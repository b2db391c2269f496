package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const AllArticlesFile = "articles.json"

// Generator builds the static JSON files served in place of the live API.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Run assigns ids and returns file contents keyed by file name: one file with
// every article and one per category.
func (g *Generator) Run(articles []NewArticle) (map[string][]byte, error) {
	withIDs := g.assignIDs(articles)

	files := make(map[string][]byte, len(Categories)+1)

	data, err := marshalArticles(withIDs)
	if err != nil {
		return nil, err
	}
	files[AllArticlesFile] = data

	for _, category := range Categories {
		categoryArticles := lo.Filter(withIDs, func(a Article, _ int) bool {
			return a.Category == category
		})

		data, err := marshalArticles(categoryArticles)
		if err != nil {
			return nil, err
		}
		files[CategoryFileName(category)] = data
	}

	return files, nil
}

// Write generates the files and stores them in dir, creating it if needed.
func (g *Generator) Write(dir string, articles []NewArticle) ([]string, error) {
	files, err := g.Run(articles)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	written := make([]string, 0, len(files))
	for _, name := range lo.Keys(files) {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name], 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}

	return written, nil
}

func CategoryFileName(category Category) string {
	return fmt.Sprintf("articles-%s.json", category)
}

// assignIDs gives each article an id of the form <source-slug>-<unix-ms>-<index>,
// where index counts articles per source.
func (g *Generator) assignIDs(articles []NewArticle) []Article {
	stamp := g.now().UnixMilli()
	perSource := make(map[string]int)

	return lo.Map(articles, func(a NewArticle, _ int) Article {
		index := perSource[a.Source]
		perSource[a.Source]++

		return Article{
			ID:         fmt.Sprintf("%s-%d-%d", slugify(a.Source), stamp, index),
			NewArticle: a,
		}
	})
}

func slugify(s string) string {
	return strings.Join(strings.Fields(cases.Lower(language.Und).String(s)), "-")
}

func marshalArticles(articles []Article) ([]byte, error) {
	if articles == nil {
		articles = []Article{}
	}

	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode articles: %w", err)
	}
	return data, nil
}
