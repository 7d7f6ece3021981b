package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsrag-api/internal/application/rag"
	"newsrag-api/internal/domain/entity"
	"newsrag-api/pkg/errors"
	"newsrag-api/pkg/logger"
	"newsrag-api/pkg/metrics"
)

const defaultFetchTimeout = 30 * time.Second

// Fetcher 拉取 RSS 源并解析为文档
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewFetcher 创建源抓取器
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if userAgent == "" {
		userAgent = "newsrag-api/1.0"
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// rssFeed RSS 2.0 信封；标题/描述等字段内嵌的 HTML 在解析后统一剥离
type rssFeed struct {
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// Fetch 抓取单个 RSS 源，返回解析出的文档列表。
// 缺标题或链接的条目只记录日志跳过，不中断整个源。
func (f *Fetcher) Fetch(ctx context.Context, feedURL, category string) ([]*entity.Document, error) {
	ctx = logger.WithContext(ctx, logger.FeedURLKey, feedURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFeedFetchError, "failed to create feed request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		metrics.IngestFeedFetchTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, errors.CodeFeedFetchError, "failed to fetch feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.IngestFeedFetchTotal.WithLabelValues("error").Inc()
		return nil, errors.New(errors.CodeFeedFetchError,
			fmt.Sprintf("feed returned status %d", resp.StatusCode))
	}

	var feed rssFeed
	decoder := xml.NewDecoder(resp.Body)
	// 容忍源里常见的非严格编码声明
	decoder.Strict = false
	if err := decoder.Decode(&feed); err != nil {
		metrics.IngestFeedFetchTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, errors.CodeFeedFetchError, "failed to parse feed")
	}

	source := sourceName(feed.Channel.Title, feedURL)

	var documents []*entity.Document
	for _, item := range feed.Channel.Items {
		d := f.parseItem(item, source, category)
		if d == nil {
			logger.Debug(ctx, "skipping feed item without title or link")
			continue
		}
		documents = append(documents, d)
	}

	metrics.IngestFeedFetchTotal.WithLabelValues("success").Inc()
	logger.Info(ctx, "feed fetched",
		"category", category,
		"source", source,
		"items", len(documents),
	)
	return documents, nil
}

func (f *Fetcher) parseItem(item rssItem, source, category string) *entity.Document {
	title := rag.Normalize(item.Title)
	link := strings.TrimSpace(item.Link)
	if link == "" {
		// 某些源把地址放在 guid 里
		link = strings.TrimSpace(item.GUID)
	}
	if title == "" || link == "" {
		return nil
	}

	description := rag.Normalize(item.Description)
	pubDate := parsePubDate(item.PubDate)

	return &entity.Document{
		// 以 URL 派生确定性 id，重复摄取同一条目为覆盖写
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String(),
		Title:       title,
		Description: description,
		Content:     description,
		URL:         link,
		Source:      source,
		Category:    category,
		PublishedAt: pubDate,
		CreatedAt:   time.Now(),
	}
}

// sourceName 优先取频道标题作为来源名，缺失时退回域名
func sourceName(channelTitle, feedURL string) string {
	if title := rag.Normalize(channelTitle); title != "" {
		return title
	}
	if u, err := url.Parse(feedURL); err == nil && u.Host != "" {
		return u.Host
	}
	return feedURL
}

// parsePubDate 归一化发布时间为 ISO 8601；解析失败时原样保留
func parsePubDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return raw
}
