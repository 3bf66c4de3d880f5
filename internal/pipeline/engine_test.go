package pipeline

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightdeal/dealworker/internal/ai"
	"insightdeal/dealworker/internal/imagecache"
	"insightdeal/dealworker/internal/normalize"
	"insightdeal/dealworker/internal/scraper"
)

// fakeGen replays canned model responses in call order.
type fakeGen struct {
	responses []string
	err       error
	calls     int
}

func (f *fakeGen) Generate(ctx context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	resp := f.responses[f.calls%len(f.responses)]
	f.calls++
	return resp, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(rawLink string) string {
	return DecodeTarget(RepairURL(rawLink))
}

const titleJSON = `{"shop_name":"정보 없음","product_title":"무선 이어폰","category":"디지털/가전","shipping_fee":"정보 없음"}`

func newEngine(t *testing.T, contentJSON string, ocr imagecache.OCRClient) *Engine {
	t.Helper()
	gen := &fakeGen{responses: []string{titleJSON, contentJSON}}
	return New(ai.NewParser(gen), imagecache.New(t.TempDir(), ocr), fakeResolver{})
}

func staticContent(html string) ContentFetcher {
	return func(postLink string) (string, error) { return html, nil }
}

func TestProcessPostTitleFieldsWin(t *testing.T) {
	contentJSON := `{"shop_name":"이어폰샵","deals":[
	  {"product_title":"무선 이어폰","price":"44,900원","shipping_fee":"정보 없음",
	   "ecommerce_link":"https://www.coupang.com/vp/products/123","is_closed":false,"deal_type":"일반"}]}`

	e := newEngine(t, contentJSON, nil)
	candidate := scraper.PostCandidate{
		Community: "뽐뿌",
		Title:     "[쿠팡] 무선 이어폰 (49,900원/무료)",
		PostLink:  "https://www.ppomppu.co.kr/zboard/view.php?no=1",
	}

	result := e.ProcessPost(context.Background(), 1, candidate, staticContent("<p>특가</p>"))
	require.NoError(t, result.Err)
	require.Len(t, result.Deals, 1)

	deal := result.Deals[0]
	assert.Equal(t, "무선 이어폰", deal.Title)
	assert.Equal(t, "쿠팡", deal.ShopName)
	assert.Equal(t, "49,900원", deal.Price)
	assert.Equal(t, "무료", deal.ShippingFee)
	assert.Equal(t, "디지털/가전", deal.Category)
	assert.Equal(t, "일반", deal.DealType)
	require.NotNil(t, deal.EcommerceLink)
	assert.Equal(t, "https://www.coupang.com/vp/products/123", *deal.EcommerceLink)

	sum := md5.Sum([]byte(candidate.PostLink))
	assert.Equal(t, hex.EncodeToString(sum[:]), deal.GroupID)
	assert.Equal(t, uint(1), deal.SourceCommunityID)
}

func TestProcessPostAIPriceOverridesOnMarker(t *testing.T) {
	contentJSON := `{"shop_name":"정보 없음","deals":[
	  {"product_title":"티셔츠","price":"9,900원~","shipping_fee":"3,000원 배송비",
	   "ecommerce_link":null,"is_closed":false,"deal_type":"옵션"}]}`

	e := newEngine(t, contentJSON, nil)
	candidate := scraper.PostCandidate{
		Community: "클리앙",
		Title:     "[지마켓] 반팔 티셔츠 (12,900원)",
		PostLink:  "https://www.clien.net/service/board/jirum/200",
	}

	result := e.ProcessPost(context.Background(), 2, candidate, staticContent("<p>옵션별 가격 상이</p>"))
	require.NoError(t, result.Err)
	require.Len(t, result.Deals, 1)

	deal := result.Deals[0]
	// ~ 마커가 있으면 제목 가격 대신 AI 가격을 쓴다
	assert.Equal(t, "9,900원", deal.Price)
	assert.Equal(t, "지마켓", deal.ShopName)
	assert.Nil(t, deal.EcommerceLink)
	assert.Equal(t, "옵션", deal.DealType)
}

func TestProcessPostPercentageIsNotAPrice(t *testing.T) {
	contentJSON := `{"shop_name":"정보 없음","deals":[
	  {"product_title":"외식 쿠폰","price":"40% 할인","shipping_fee":"정보 없음",
	   "ecommerce_link":null,"is_closed":false,"deal_type":"쿠폰"}]}`

	e := newEngine(t, contentJSON, nil)
	candidate := scraper.PostCandidate{
		Community: "뽐뿌",
		Title:     "외식 브랜드 할인 행사",
		PostLink:  "https://www.ppomppu.co.kr/zboard/view.php?no=250",
	}

	result := e.ProcessPost(context.Background(), 1, candidate, staticContent("<p>전 메뉴 할인</p>"))
	require.Len(t, result.Deals, 1)

	// 할인율은 가격이 아니다: "40% 할인"이 "40원"으로 굳으면 안 된다
	deal := result.Deals[0]
	assert.NotEqual(t, "40원", deal.Price)
	assert.Equal(t, normalize.UnknownInfo, deal.Price)
	assert.Equal(t, "쿠폰", deal.DealType)
}

func TestProcessPostListCategoryHintWins(t *testing.T) {
	contentJSON := `{"shop_name":"정보 없음","deals":[
	  {"product_title":"게이밍 의자","price":"129,000원","shipping_fee":"무료",
	   "ecommerce_link":null,"is_closed":false,"deal_type":"일반"}]}`

	// 목록 카테고리가 있으면 제목 분류 호출 없이 그대로 쓴다
	gen := &fakeGen{responses: []string{contentJSON}}
	e := New(ai.NewParser(gen), imagecache.New(t.TempDir(), nil), fakeResolver{})
	candidate := scraper.PostCandidate{
		Community:    "루리웹",
		Title:        "게이밍 의자 특가",
		PostLink:     "https://bbs.ruliweb.com/market/board/1020/read/100",
		ListCategory: "가구/인테리어",
	}

	result := e.ProcessPost(context.Background(), 5, candidate, staticContent("<p>의자</p>"))
	require.Len(t, result.Deals, 1)
	assert.Equal(t, "가구/인테리어", result.Deals[0].Category)
	assert.Equal(t, 1, gen.calls)
}

func TestProcessPostShippingFallbackToAI(t *testing.T) {
	contentJSON := `{"shop_name":"정보 없음","deals":[
	  {"product_title":"보조배터리","price":"19,900원","shipping_fee":"무료배송",
	   "ecommerce_link":null,"is_closed":false,"deal_type":"이벤트"}]}`

	e := newEngine(t, contentJSON, nil)
	candidate := scraper.PostCandidate{
		Community: "펨코",
		Title:     "보조배터리 특가",
		PostLink:  "https://www.fmkorea.com/300",
	}

	result := e.ProcessPost(context.Background(), 3, candidate, staticContent("<p>내용</p>"))
	require.Len(t, result.Deals, 1)
	assert.Equal(t, normalize.FreeShipping, result.Deals[0].ShippingFee)
}

func TestProcessPostOCRFreeShippingOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("imagedata"))
	}))
	defer server.Close()

	contentJSON := `{"shop_name":"정보 없음","deals":[
	  {"product_title":"세제 세트","price":"15,900원","shipping_fee":"정보 없음",
	   "ecommerce_link":null,"is_closed":false,"deal_type":"일반"}]}`

	ocr := &fakeOCR{text: "행사상품 무료배송 안내"}
	e := newEngine(t, contentJSON, ocr)
	candidate := scraper.PostCandidate{
		Community: "뽐뿌",
		Title:     "세제 세트 특가",
		PostLink:  "https://www.ppomppu.co.kr/zboard/view.php?no=400",
	}
	content := `<div><img src="` + server.URL + `/promo.jpg"></div>`

	result := e.ProcessPost(context.Background(), 1, candidate, staticContent(content))
	require.Len(t, result.Deals, 1)
	assert.Equal(t, normalize.FreeShipping, result.Deals[0].ShippingFee)
	assert.Contains(t, result.Deals[0].ImageURL, "/images/")
}

func TestProcessPostDedupsIdenticalTitles(t *testing.T) {
	contentJSON := `{"shop_name":"정보 없음","deals":[
	  {"product_title":"마우스","price":"29,900원","shipping_fee":"무료","ecommerce_link":null,"is_closed":false,"deal_type":"일반"},
	  {"product_title":"마우스","price":"31,900원","shipping_fee":"무료","ecommerce_link":null,"is_closed":false,"deal_type":"일반"},
	  {"product_title":"마우스패드","price":"9,900원","shipping_fee":"무료","ecommerce_link":null,"is_closed":false,"deal_type":"일반"}]}`

	e := newEngine(t, contentJSON, nil)
	candidate := scraper.PostCandidate{
		Community: "퀘이사존",
		Title:     "주변기기 모음딜",
		PostLink:  "https://quasarzone.com/bbs/qb_saleinfo/views/500",
	}

	result := e.ProcessPost(context.Background(), 6, candidate, staticContent("<p>모음</p>"))
	require.Len(t, result.Deals, 2)
	assert.Equal(t, "마우스", result.Deals[0].Title)
	assert.Equal(t, "마우스패드", result.Deals[1].Title)
	// 그룹 ID는 게시물 단위로 같다
	assert.Equal(t, result.Deals[0].GroupID, result.Deals[1].GroupID)
}

func TestProcessPostZeroDealsSkips(t *testing.T) {
	// 링크가 전혀 없는 본문에 모델도 응답에 실패하면 폴백도 0건이 된다
	gen := &fakeGen{err: errors.New("model unavailable")}
	e := New(ai.NewParser(gen), imagecache.New(t.TempDir(), nil), fakeResolver{})

	candidate := scraper.PostCandidate{
		Community: "루리웹",
		Title:     "핫딜 아님",
		PostLink:  "https://bbs.ruliweb.com/600",
	}
	result := e.ProcessPost(context.Background(), 5, candidate, staticContent("<p>링크 없는 글</p>"))
	assert.True(t, result.Skipped)
	assert.Empty(t, result.Deals)
	assert.NoError(t, result.Err)
}

func TestProcessPostFetchFailure(t *testing.T) {
	e := newEngine(t, `{"shop_name":"정보 없음","deals":[]}`, nil)
	candidate := scraper.PostCandidate{
		Community: "클리앙",
		Title:     "접속 불가 글",
		PostLink:  "https://www.clien.net/700",
	}
	fetchErr := errors.New("connection reset")
	result := e.ProcessPost(context.Background(), 2, candidate, func(string) (string, error) {
		return "", fetchErr
	})
	require.True(t, result.Failed())
	assert.ErrorIs(t, result.Err, fetchErr)
}

func TestProcessPostListHintsWin(t *testing.T) {
	contentJSON := `{"shop_name":"다른샵","deals":[
	  {"product_title":"그래픽카드","price":"899,000원","shipping_fee":"정보 없음",
	   "ecommerce_link":null,"is_closed":false,"deal_type":"일반"}]}`

	e := newEngine(t, contentJSON, nil)
	candidate := scraper.PostCandidate{
		Community:    "퀘이사존",
		Title:        "RTX 5070 특가",
		PostLink:     "https://quasarzone.com/bbs/qb_saleinfo/views/800",
		ListShop:     "컴퓨존",
		ListPrice:    "799,000원",
		ListShipping: "무료",
	}

	result := e.ProcessPost(context.Background(), 6, candidate, staticContent("<p>특가</p>"))
	require.Len(t, result.Deals, 1)
	deal := result.Deals[0]
	assert.Equal(t, "컴퓨존", deal.ShopName)
	assert.Equal(t, "799,000원", deal.Price)
	assert.Equal(t, normalize.FreeShipping, deal.ShippingFee)
}

func TestRepresentativeImagePrefersThumbnail(t *testing.T) {
	e := newEngine(t, "{}", nil)
	candidate := scraper.PostCandidate{
		Thumbnail: "https://cdn.example.com/thumb.jpg",
		PostLink:  "https://www.ppomppu.co.kr/zboard/view.php?no=1",
	}
	assert.Equal(t, "https://cdn.example.com/thumb.jpg", e.representativeImage(candidate, nil))
}

func TestRepresentativeImageSkipsDecorative(t *testing.T) {
	contentJSON := `{"shop_name":"정보 없음","deals":[
	  {"product_title":"상품","price":"1,000원","shipping_fee":"무료","ecommerce_link":null,"is_closed":false,"deal_type":"일반"}]}`
	e := newEngine(t, contentJSON, nil)

	content := `<div>
	  <img src="/skin/emoticon/smile.gif">
	  <img src="https://cdn.example.com/product.png">
	</div>`
	candidate := scraper.PostCandidate{
		Community: "뽐뿌",
		Title:     "상품",
		PostLink:  "https://www.ppomppu.co.kr/zboard/view.php?no=900",
	}
	result := e.ProcessPost(context.Background(), 1, candidate, staticContent(content))
	require.Len(t, result.Deals, 1)
	// 다운로드 실패 시 플레이스홀더로 대체된다
	assert.Equal(t, imagecache.Placeholder, result.Deals[0].ImageURL)
}

type fakeOCR struct {
	text string
}

func (f *fakeOCR) Recognize(imagePath string) (string, error) {
	return f.text, nil
}
