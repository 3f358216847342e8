package card_code

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// codeAlphabet 生成コードに使用する文字集合
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// codeLength ハイフンを除いたコードの文字数
const codeLength = 16

// codeGroupSize ハイフンで区切るグループの文字数
const codeGroupSize = 4

// GenerateCode ランダムなカード券コードを生成
// [A-Z0-9]から16文字を取り、4文字ごとにハイフンで区切った
// XXXX-XXXX-XXXX-XXXX形式（19文字）を返す。
// 256はアルファベット長で割り切れないため、偏りが出る範囲のバイトは
// 棄却して読み直す。
func GenerateCode() (string, error) {
	// アルファベット長の倍数に切り下げた上限（それ以上のバイトは棄却）
	limit := byte(256 - 256%len(codeAlphabet))

	var b strings.Builder
	b.Grow(codeLength + codeLength/codeGroupSize - 1)

	buf := make([]byte, codeLength)
	written := 0
	for written < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, c := range buf {
			if c >= limit {
				continue
			}
			if written > 0 && written%codeGroupSize == 0 {
				b.WriteByte('-')
			}
			b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
			written++
			if written == codeLength {
				break
			}
		}
	}
	return b.String(), nil
}
