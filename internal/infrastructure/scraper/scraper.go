package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"NewsRecommender/internal/ports"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodyBytes     = 5 << 20
	minContentChars  = 50
	minFallbackChars = 20
	minTitleChars    = 10

	// Unavailable is returned when neither the page nor the fallbacks had text.
	Unavailable = "Article content unavailable."
)

// articleSelectors are tried in order; the first match holds the body.
var articleSelectors = []string{
	"article",
	`[role="article"]`,
	".article-body",
	".article-content",
	".post-content",
	".entry-content",
	".story-body",
	".article__body",
	"main article",
	".content-body",
	`[itemprop="articleBody"]`,
}

const unwantedTags = "script, style, nav, header, footer, aside, iframe, noscript, form, button, svg"

var unwantedPatterns = []string{
	"ad", "advertisement", "social", "share", "related", "sidebar",
	"comments", "newsletter", "subscribe", "promo", "widget",
	"navigation", "menu", "footer", "header", "cookie",
}

var (
	spaceExpr     = regexp.MustCompile(`\s+`)
	sponsorExpr   = regexp.MustCompile(`Advertisement|ADVERTISEMENT|Sponsored|SPONSORED`)
	ctaExpr       = regexp.MustCompile(`(?i)read more|continue reading|click here`)
	emailExpr     = regexp.MustCompile(`\S+@\S+`)
	linkExpr      = regexp.MustCompile(`http\S+`)
	truncatedExpr = regexp.MustCompile(`\s*\[\+\d+\s+chars\].*$`)

	errTooShort = errors.New("extracted content too short")
)

// Scraper extracts readable article text from web pages.
type Scraper struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

var _ ports.ContentExtractor = (*Scraper)(nil)

// Option configures a Scraper.
type Option func(*Scraper)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.httpClient.Timeout = d
		}
	}
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scraper) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a content scraper.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  defaultUserAgent,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract returns the page text, falling back to the provider content and
// then to the title.
func (s *Scraper) Extract(ctx context.Context, rawURL, fallback, title string) string {
	fallback = strings.TrimSpace(truncatedExpr.ReplaceAllString(fallback, ""))

	content, err := s.Scrape(ctx, rawURL)
	if err == nil {
		return content
	}
	s.logger.Debug("scrape failed", "url", rawURL, "error", err)

	if utf8.RuneCountInString(fallback) > minFallbackChars {
		return fallback
	}
	if utf8.RuneCountInString(title) > minTitleChars {
		return title
	}
	s.logger.Warn("no content available", "url", rawURL)
	return Unavailable
}

// Scrape downloads rawURL and extracts the cleaned article body.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid URL: %s", rawURL)
	}

	body, err := s.fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	text, err := extractWithSelectors(body)
	if err == nil {
		return text, nil
	}

	article, rErr := readability.FromReader(bytes.NewReader(body), parsedURL)
	if rErr != nil {
		return "", fmt.Errorf("parse content: %w", errors.Join(err, rErr))
	}
	text = cleanText(article.TextContent)
	if utf8.RuneCountInString(text) < minContentChars {
		return "", errTooShort
	}
	return text, nil
}

func (s *Scraper) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func extractWithSelectors(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	doc.Find(unwantedTags).Remove()
	doc.Find("body *").Each(func(_ int, sel *goquery.Selection) {
		if isUnwanted(sel) {
			sel.Remove()
		}
	})

	var root *goquery.Selection
	for _, selector := range articleSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			root = sel
			break
		}
	}
	if root == nil {
		if root = doc.Find("main").First(); root.Length() == 0 {
			root = doc.Find("body").First()
		}
	}
	if root.Length() == 0 {
		return "", errors.New("no content root")
	}

	var text string
	if paragraphs := root.Find("p"); paragraphs.Length() > 0 {
		parts := make([]string, 0, paragraphs.Length())
		paragraphs.Each(func(_ int, p *goquery.Selection) {
			parts = append(parts, strings.TrimSpace(p.Text()))
		})
		text = strings.Join(parts, " ")
	} else {
		text = root.Text()
	}

	text = cleanText(text)
	if utf8.RuneCountInString(text) < minContentChars {
		return "", errTooShort
	}
	return text, nil
}

// isUnwanted matches ad, share and navigation containers by class or id.
func isUnwanted(sel *goquery.Selection) bool {
	class, _ := sel.Attr("class")
	id, _ := sel.Attr("id")
	haystack := strings.ToLower(class + " " + id)
	if strings.TrimSpace(haystack) == "" {
		return false
	}
	for _, pattern := range unwantedPatterns {
		if strings.Contains(haystack, pattern) {
			return true
		}
	}
	return false
}

func cleanText(text string) string {
	text = spaceExpr.ReplaceAllString(text, " ")
	text = sponsorExpr.ReplaceAllString(text, "")
	text = ctaExpr.ReplaceAllString(text, "")
	text = emailExpr.ReplaceAllString(text, "")
	text = linkExpr.ReplaceAllString(text, "")
	return strings.TrimSpace(spaceExpr.ReplaceAllString(text, " "))
}
