package scraper

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightdeal/dealworker/config"
	apperrors "insightdeal/dealworker/pkg/errors"
)

const boardHTML = `
<html><body>
<table id="revolution_main_table"><tbody>
<tr class="baseList">
  <td><small class="baseList-small">[디지털]</small>
    <a class="baseList-title" href="view.php?id=ppomppu&no=101">[쿠팡] 무선 이어폰 (49,900원/무료)</a>
    <span class="baseList-ship">3000</span>
  </td>
</tr>
<tr class="baseList">
  <td><small class="baseList-small">[일반]</small>
    <a class="baseList-title" href="view.php?id=ppomppu&no=102">그냥 잡담 글</a>
  </td>
</tr>
<tr class="baseList">
  <td>
    <a class="baseList-title" href="view.php?id=ppomppu&no=103">[지마켓] 물티슈 (9,900원/무배)</a>
    <span class="baseList-ship">무료</span>
  </td>
</tr>
<tr class="baseList">
  <td>
    <a class="baseList-title" href="view.php?id=ppomppu&no=104">[11번가] 충전기 (15,000원)</a>
  </td>
</tr>
</tbody></table>
</body></html>`

const detailHTML = `
<html><body>
<table><tr><td class="board-contents">
  <p>쿠팡 와우회원 한정 특가입니다.</p>
  <a href="https://www.coupang.com/vp/products/123">구매 링크</a>
  <img src="https://cdn.example.com/item.jpg">
</td></tr></table>
</body></html>`

func newBoardScraper(serverURL string, cacheSvc *mockCache, limit int) *ListingScraper {
	return NewListingScraper(ScraperConfig{
		URL:       serverURL + "/board",
		CacheKey:  "test_rate_limited",
		BlockTime: defaultBlockTime,
		BaseURL:   serverURL + "/zboard/",
		Community: "뽐뿌",
		Limit:     limit,
		Selectors: Selectors{
			PostList:     "#revolution_main_table tbody tr.baseList",
			Title:        "a.baseList-title",
			Link:         "a.baseList-title",
			ListShipping: "span.baseList-ship",
			Content:      "td.board-contents",
		},
		SkipRow:         skipPpomGeneral,
		ShippingHandler: ppomShippingHandler,
	}, cacheSvc)
}

func TestListPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(boardHTML))
	}))
	defer server.Close()

	s := newBoardScraper(server.URL, newMockCache(), 10)
	candidates, err := s.ListPosts()
	require.NoError(t, err)
	// [일반] 행은 제외된다
	require.Len(t, candidates, 3)

	first := candidates[0]
	assert.Equal(t, "뽐뿌", first.Community)
	assert.Equal(t, "[쿠팡] 무선 이어폰 (49,900원/무료)", first.Title)
	assert.Equal(t, server.URL+"/zboard/view.php?id=ppomppu&no=101", first.PostLink)
	assert.Equal(t, "3000원", first.ListShipping)

	assert.Equal(t, "무료", candidates[1].ListShipping)
	assert.Empty(t, candidates[2].ListShipping)
}

func TestListPostsHonorsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(boardHTML))
	}))
	defer server.Close()

	s := newBoardScraper(server.URL, newMockCache(), 2)
	candidates, err := s.ListPosts()
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestListPostsBlockedByCache(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(boardHTML))
	}))
	defer server.Close()

	cacheSvc := newMockCache()
	cacheSvc.Set("test_rate_limited", []byte("500"), 0)

	s := newBoardScraper(server.URL, cacheSvc, 10)
	_, err := s.ListPosts()
	require.Error(t, err)

	var pipeErr *apperrors.PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, apperrors.ErrorTypeRateLimit, pipeErr.Type)
	assert.Zero(t, requests)
}

func TestRateLimitedResponseSetsBlockKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cacheSvc := newMockCache()
	s := newBoardScraper(server.URL, cacheSvc, 10)

	_, err := s.ListPosts()
	require.Error(t, err)

	_, err = cacheSvc.Get("test_rate_limited")
	assert.NoError(t, err, "block key should be set after a 429")
}

func TestFetchContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if strings.HasPrefix(r.URL.Path, "/empty") {
			w.Write([]byte("<html><body><p>본문 없음</p></body></html>"))
			return
		}
		w.Write([]byte(detailHTML))
	}))
	defer server.Close()

	s := newBoardScraper(server.URL, newMockCache(), 10)

	html, err := s.FetchContent(server.URL + "/view")
	require.NoError(t, err)
	assert.Contains(t, html, "board-contents")
	assert.Contains(t, html, "coupang.com")

	html, err = s.FetchContent(server.URL + "/empty")
	require.NoError(t, err)
	assert.Empty(t, html)
}

func TestResolveURL(t *testing.T) {
	s := NewListingScraper(ScraperConfig{
		BaseURL: "https://www.ppomppu.co.kr/zboard/",
	}, nil)

	assert.Equal(t, "https://www.ppomppu.co.kr/zboard/view.php?no=1", s.ResolveURL("view.php?no=1"))
	assert.Equal(t, "https://www.ppomppu.co.kr/other", s.ResolveURL("/other"))
	assert.Equal(t, "https://example.com/abs", s.ResolveURL("https://example.com/abs"))
	assert.Empty(t, s.ResolveURL(""))
}

func TestQuasarRowHandlers(t *testing.T) {
	rowHTML := `<tr><td>
	  <p class="tit"><a class="subject-link" href="/bbs/qb_saleinfo/views/1">RTX 5070 특가 댓글 [12]</a></p>
	  <span class="brand">컴퓨존</span>
	  <span class="text-orange">799,000원</span>
	  <span>배송비 3,000원</span>
	</td></tr>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table><tbody>" + rowHTML + "</tbody></table>"))
	require.NoError(t, err)
	row := doc.Find("tr").First()

	title := quasarReplyCountRe.ReplaceAllString(strings.TrimSpace(row.Find("p.tit a.subject-link").Text()), "")
	assert.Equal(t, "RTX 5070 특가", title)
	assert.Equal(t, "3,000원", quasarShippingHandler(row))
}

func TestRegistryCoversAllCommunities(t *testing.T) {
	cfg := config.LoadConfig()

	scrapers := Registry(&cfg, newMockCache())
	require.Len(t, scrapers, 6)

	var names []string
	for _, s := range scrapers {
		names = append(names, s.Community())
	}
	assert.Equal(t, []string{"뽐뿌", "뽐뿌해외", "클리앙", "펨코", "루리웹", "퀘이사존"}, names)
}
