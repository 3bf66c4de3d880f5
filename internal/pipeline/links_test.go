package pipeline

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"정상 URL 그대로", "https://www.coupang.com/vp/1", "https://www.coupang.com/vp/1"},
		{"http:s 패턴", "http:s//www.coupang.com/vp/1", "https://www.coupang.com/vp/1"},
		{"https. 패턴", "https.smartstore.naver.com/item", "https://smartstore.naver.com/item"},
		{"콜론 누락", "https//www.11st.co.kr/p/1", "https://www.11st.co.kr/p/1"},
		{"공백 제거", "  https://example.com  ", "https://example.com"},
		{"빈 입력", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RepairURL(tt.input))
		})
	}
}

func TestDecodeTarget(t *testing.T) {
	real := "https://www.coupang.com/vp/products/123"
	encoded := base64.StdEncoding.EncodeToString([]byte(real))
	wrapped := "https://www.ppomppu.co.kr/link.php?target=" + encoded

	assert.Equal(t, real, DecodeTarget(wrapped))

	// target 파라미터가 없으면 원 링크 그대로
	plain := "https://www.coupang.com/vp/products/456"
	assert.Equal(t, plain, DecodeTarget(plain))

	// 깨진 base64도 원 링크 그대로
	broken := "https://www.ppomppu.co.kr/link.php?target=%%%"
	assert.Equal(t, broken, DecodeTarget(broken))
	notB64 := "https://www.ppomppu.co.kr/link.php?target=!!!!"
	assert.Equal(t, notB64, DecodeTarget(notB64))
}
