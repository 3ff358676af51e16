package naver

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/paaavkata/stock-dashboard/pkg/models"
	"golang.org/x/net/html"
)

const fallbackSource = "뉴스"

var sourceNames = map[string]string{
	"news.naver.com":     "네이버뉴스",
	"n.news.naver.com":   "네이버뉴스",
	"www.chosun.com":     "조선일보",
	"www.donga.com":      "동아일보",
	"www.joongang.co.kr": "중앙일보",
	"www.hani.co.kr":     "한겨레",
	"www.khan.co.kr":     "경향신문",
	"www.mk.co.kr":       "매일경제",
	"www.hankyung.com":   "한국경제",
	"www.sedaily.com":    "서울경제",
	"www.edaily.co.kr":   "이데일리",
	"www.etnews.com":     "전자신문",
	"www.mt.co.kr":       "머니투데이",
	"www.newsis.com":     "뉴시스",
	"www.yna.co.kr":      "연합뉴스",
	"biz.chosun.com":     "조선비즈",
	"news.mt.co.kr":      "머니투데이",
}

// StripHTML drops markup, decodes entities and trims the result.
func StripHTML(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return strings.TrimSpace(s)
			}
			out := strings.ReplaceAll(b.String(), "\u00a0", " ")
			return strings.TrimSpace(out)
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// ExtractSource names the outlet of an article link.
func ExtractSource(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return fallbackSource
	}

	host := u.Hostname()
	if name, ok := sourceNames[host]; ok {
		return name
	}

	host = strings.Replace(host, "www.", "", 1)
	if i := strings.Index(host, "."); i >= 0 {
		return host[:i]
	}
	return host
}

// RelativeTime renders the age of pub as seen at now.
func RelativeTime(pub, now time.Time) string {
	diff := now.Sub(pub)
	if diff < 0 {
		diff = 0
	}

	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case minutes < 60:
		return fmt.Sprintf("%d분 전", minutes)
	case hours < 24:
		return fmt.Sprintf("%d시간 전", hours)
	case days < 7:
		return fmt.Sprintf("%d일 전", days)
	default:
		local := pub.In(now.Location())
		return fmt.Sprintf("%d월 %d일", int(local.Month()), local.Day())
	}
}

// ProcessItem cleans a raw search result for display.
func ProcessItem(item NewsItem, now time.Time) models.NewsItem {
	out := models.NewsItem{
		Title:        StripHTML(item.Title),
		Link:         item.Link,
		OriginalLink: item.OriginalLink,
		Description:  StripHTML(item.Description),
		Source:       ExtractSource(item.OriginalLink),
	}

	if pub, err := time.Parse(time.RFC1123Z, item.PubDate); err == nil {
		out.PubDate = pub
		out.RelativeTime = RelativeTime(pub, now)
	}

	return out
}
