package service

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"MemeArena/internal/repository"

	"github.com/sirupsen/logrus"
)

const sitemapEntryLimit = 100

// SitemapService 生成 sitemap.xml 与 robots.txt
type SitemapService struct {
	battles repository.BattleRepository
	memes   repository.MemeRepository
	siteURL string
	logger  *logrus.Logger
	now     func() time.Time
}

// NewSitemapService siteURL 不带结尾斜杠
func NewSitemapService(battles repository.BattleRepository, memes repository.MemeRepository, siteURL string, logger *logrus.Logger) *SitemapService {
	return &SitemapService{battles: battles, memes: memes, siteURL: siteURL, logger: logger, now: time.Now}
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap 固定页面 + 最近 100 个 active 对战 + 最近 100 个 Meme
func (s *SitemapService) Sitemap(ctx context.Context) ([]byte, error) {
	battles, err := s.battles.ListSitemapBattles(ctx, sitemapEntryLimit)
	if err != nil {
		return nil, internalError("Failed to generate sitemap", err)
	}
	memes, err := s.memes.ListSitemapMemes(ctx, sitemapEntryLimit)
	if err != nil {
		return nil, internalError("Failed to generate sitemap", err)
	}

	now := s.now().UTC().Format(time.RFC3339)
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: s.siteURL, LastMod: now, ChangeFreq: "daily", Priority: "1.0"},
			{Loc: s.siteURL + "/battles", LastMod: now, ChangeFreq: "hourly", Priority: "0.9"},
			{Loc: s.siteURL + "/memes", LastMod: now, ChangeFreq: "hourly", Priority: "0.8"},
			{Loc: s.siteURL + "/leaderboard", LastMod: now, ChangeFreq: "daily", Priority: "0.7"},
		},
	}
	for _, b := range battles {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        s.siteURL + "/battles/" + b.ID,
			LastMod:    b.UpdatedAt.UTC().Format(time.RFC3339),
			ChangeFreq: "hourly",
			Priority:   "0.6",
		})
	}
	for _, m := range memes {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        s.siteURL + "/memes/" + m.ID,
			LastMod:    m.UpdatedAt.UTC().Format(time.RFC3339),
			ChangeFreq: "weekly",
			Priority:   "0.5",
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, internalError("Failed to generate sitemap", err)
	}
	return buf.Bytes(), nil
}

// Robots robots.txt 内容
func (s *SitemapService) Robots() string {
	return fmt.Sprintf(`User-agent: *
Allow: /

# Sitemap
Sitemap: %s/sitemap.xml

# Disallow auth pages from indexing
Disallow: /auth/
Disallow: /api/

# Allow important pages
Allow: /
Allow: /battles
Allow: /memes
Allow: /leaderboard`, s.siteURL)
}
