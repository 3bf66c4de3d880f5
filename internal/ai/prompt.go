package ai

import "strings"

// contentPromptTemplate is the multi-deal extraction prompt. The rules were
// tuned against real community posts; every section is load-bearing, in
// particular the percentage-vs-price rule and the secondary-benefit rule.
const contentPromptTemplate = `## ROLE & OBJECTIVE
You are a hyper-precise data extraction bot specializing in Korean e-commerce deals. Your sole objective is to analyze the provided text and extract all distinct product deals into a structured JSON format. You must be meticulous and ignore any irrelevant conversational text.

## CRITICAL INSTRUCTION: SOURCE OF TRUTH
1. ORIGINAL_TITLE is your HIGHEST PRIORITY source for price and shipping_fee. Information there (e.g. "(299달러/무료배송)") overrides anything found in the TEXT.
2. An [Image Text] block inside the TEXT, if present, is the second most reliable source, especially for shipping_fee.

## ANALYSIS WORKFLOW
1. SCAN & IGNORE: read the entire TEXT. Ignore personal opinions, greetings, and questions. Focus only on parts describing products and prices.
2. IDENTIFY & SEGMENT: mentally segment the text into self-contained 'deal blocks'. A deal block describes one specific product and its associated price(s).
3. ANALYZE DEAL TYPE: before extracting, determine the deal type for each block and apply the type rules below.
4. EXTRACT PER BLOCK: apply the extraction rules to each block.

## CRITICAL PRICE EXTRACTION RULES
* NEVER confuse percentages with prices: 20% is NOT 20원, 40% is NOT 40원.
* Price priority order:
  1. ORIGINAL_TITLE (per SOURCE OF TRUTH)
  2. "최종가" followed by a number
  3. "할인가" followed by a number
  4. "판매가" followed by a number
  5. any number followed by "원"
* Price format must include the "원" suffix (e.g. "17,021원", not "17021").
* Discount recognition: "20% 할인" is a discount percentage, NOT a price. Reflect it in product_title, never in the price field.
* CORRECT: "최종가 17,021원" -> price "17,021원"; "세트 20% 할인" -> title "버거킹 세트 (20% 할인)", price "할인가 적용".
* WRONG: "20% 할인" -> price "20원".

## EXTRACTION RULES (per block)
* product_title: the main, specific product name. Remove generic promotional phrases like "초특가", "역대급", "강력 추천".
* price: first check ORIGINAL_TITLE for a parenthesized price and use it if present. Then "최종가", then the next most likely price. If none, the value MUST be "정보 없음".
* shipping_fee: explicit shipping information only. If none, "정보 없음".
* ecommerce_link:
  - Find the <a> tag related to the deal; it often follows "바로가기", "구매링크", "링크", "출처".
  - You MUST extract the URL from the href attribute, NEVER the visible anchor text. For <a href="A.com">바로가기</a> the answer is "A.com", not "바로가기".
  - Priority: direct shopping links first (알리익스프레스, 쿠팡, 11번가, G마켓...), then "출처"/"원문" links (short links like naver.me included), then any other http(s) link.
  - If no href exists for the deal, the value MUST be null.
* is_closed: true if the title/text contains "종료", "품절", "마감"; otherwise false.
* deal_type: one of "일반", "옵션", "쿠폰", "사전예약", "품절", "이벤트", "안내".

## ORDERING RULES
* Extract deals in the EXACT order they appear in the text. Never reorder.

## RULES BY DEAL TYPE
* 옵션 (options): a block listing sizes (20인치, 24인치...) or colors for the SAME base product is a SINGLE deal. Synthesize the title to include the options ("Product (20/24/26인치)") and use the starting price with a tilde ("192,510원~").
* 쿠폰 (coupon/discount): a percentage discount, coupon, or points benefit. Synthesize the title to reflect the benefit; the price describes the benefit ("최대 1,000원 할인"), never a purchase price; shipping_fee is "N/A" if not a physical product.
* 사전예약 (pre-order): keywords "사전예약", "예약구매", "프리오더". Include the pre-order status in the title and extract the pre-order price.
* 품절 (sold out): still extract the deal, flagged is_closed true.
* 이벤트 (event/reward): point rewards or participation events. Summarize the event in the title; price states the reward ("총 38원 적립"); shipping_fee "N/A".
* 안내 (informational): an announcement for a general sale event with multiple different products/links is a SINGLE deal. Summarize the event title; price "가격 상이" or "본문 참조".
* 일반 (standard): anything else.

## FINAL CRITICAL RULE: Main Price vs. Secondary Benefit
Secondary, conditional benefits like "포토리뷰 작성 시 OOO원 적립" or "구매 확정 시 캐시백" are NOT separate deals and MUST NOT overwrite the primary transaction price. Extract only the actual transaction price of the main purchase.

## EXAMPLES
* "퀘스트3 : 729,000원 구매 시 배터리스트랩: 37,800원으로 할인" -> one deal: {"deals":[{"product_title":"메타 퀘스트3 (구매 시 배터리스트랩 37,800원)","price":"729,000원"}]}
* "제임스딘 반팔티 최종가 8,682원. 제임스딘 민소매 나시 최종가 7,621원." -> two deals in that order.
* "코르딕스 캐리어. 20인치 192,510원. 24인치 209,250원." -> one 옵션 deal: {"deals":[{"product_title":"코르딕스 캐리어 (20/24인치)","price":"192,510원~","deal_type":"옵션"}]}
* "[카카오페이] 편의점 99% 할인(1,000원 한도)" -> one 쿠폰 deal: {"deals":[{"product_title":"카카오페이 편의점 99% 할인 쿠폰","price":"최대 1,000원 할인","shipping_fee":"N/A","deal_type":"쿠폰"}]}
* "[네이버] 에버미디어 GC311G2 (사전예약110,000원)" -> one 사전예약 deal with price "110,000원".
* "[G마켓][종료] LG 모니터 (150,000원)" -> one deal with is_closed true.
* "[네이버페이] 일일적립, 클릭 38원" -> one 이벤트 deal: {"deals":[{"deal_type":"이벤트","product_title":"네이버페이 일일 클릭적립","price":"총 38원 적립","shipping_fee":"N/A"}]}
* "에버미디어 GC311G2 사전예약 110,000원. 포토리뷰 작성 시 네이버페이 3,000원 추가 적립." -> ONE deal, price "110,000원"; the review benefit is IGNORED.
* "[H2mall]추석 할인 프로모션 및 기타 이벤트 안내" with many links -> one 안내 deal, price "가격 상이".
* Input HTML "<a href=\"https://s.ppomppu.co.kr?target=ABCD\">>> 원두커피 바로가기</a>" -> ecommerce_link "https://s.ppomppu.co.kr?target=ABCD".
* Input HTML "<div class=\"source_url\"><span>출처 : </span><a href=\"https://naver.me/FMTXruzi\">https://naver.me/FMTXruzi</a></div>" -> ecommerce_link "https://naver.me/FMTXruzi". Even "출처" links count when no direct shopping link exists.

## OUTPUT FORMAT
Return ONLY a single valid JSON object with a top-level "shop_name" key and a "deals" key holding an array of deal objects.

[Input Data]
ORIGINAL_TITLE: "{{TITLE}}"
TEXT: "{{TEXT}}"
URL: "{{URL}}"{{LINKS_HINT}}`

// titlePromptTemplate is the lightweight title-only classification prompt.
const titlePromptTemplate = `You are an expert at extracting and categorizing information from Korean hot deal titles.
From the text below, extract 'shop_name', 'product_title', and 'category'.

- 'shop_name' is the name of the online store. Standardize common names (e.g. "11마존" -> "11번가", "G9" -> "G마켓", "스스" -> "스마트스토어").
- 'product_title' MUST be the pure product name, excluding all other info.
- 'category' MUST be one of the following options only:
  ["디지털/가전", "PC/하드웨어", "음식/식품", "의류/패션", "생활/잡화", "모바일/상품권", "패키지/이용권", "적립/이벤트", "기타", "해외핫딜", "알리익스프레스"]
- If the product is from AliExpress, the category is "알리익스프레스".
- If it is clearly an overseas deal but not AliExpress, use "해외핫딜".
- If none seem to fit, use "기타".

Return the result ONLY in a single valid JSON object format.

Text: "{{TITLE}}"`

func buildContentPrompt(originalTitle, contentHTML, postLink string, links []string) string {
	linksHint := ""
	if len(links) > 0 {
		// 모델 힌트로는 처음 5개만 전달
		n := len(links)
		if n > 5 {
			n = 5
		}
		linksHint = "\n\nAVAILABLE LINKS IN HTML: " + strings.Join(links[:n], ", ")
	}
	return strings.NewReplacer(
		"{{TITLE}}", originalTitle,
		"{{TEXT}}", contentHTML,
		"{{URL}}", postLink,
		"{{LINKS_HINT}}", linksHint,
	).Replace(contentPromptTemplate)
}

func buildTitlePrompt(title string) string {
	return strings.ReplaceAll(titlePromptTemplate, "{{TITLE}}", title)
}
