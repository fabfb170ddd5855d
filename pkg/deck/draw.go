package deck

import (
	"errors"
	"math/rand"
)

// ReversalProbability 逆位概率
const ReversalProbability = 0.3

// ErrInsufficientDeck 抽取数量超过牌组大小
var ErrInsufficientDeck = errors.New("deck: draw count exceeds deck size")

// Drawn 一次抽取结果中的单个元素
type Drawn struct {
	Element  Element `json:"element"`
	Reversed bool    `json:"reversed"`
	Position string  `json:"position,omitempty"` // 牌位标签，如 Past / Present / Future
}

// Draw 从牌组中不放回地抽取 count 个元素
//
// 抽取过程在牌组副本上洗牌（Fisher–Yates），不会改动传入的牌组。
// allowReversal 开启时每个元素独立判定逆位（概率 0.3），关闭时全部正位。
// positions 按下标为元素分配牌位标签，长度不足时剩余元素无标签，不视为错误。
func Draw(d Deck, count int, allowReversal bool, positions []string) ([]Drawn, error) {
	if count > len(d) {
		return nil, ErrInsufficientDeck
	}

	// 洗牌操作必须在副本上进行，共享的牌组引用保持不变
	shuffled := make(Deck, len(d))
	copy(shuffled, d)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	result := make([]Drawn, 0, count)
	for i := 0; i < count; i++ {
		drawn := Drawn{Element: shuffled[i]}
		if allowReversal {
			drawn.Reversed = rand.Float64() < ReversalProbability
		}
		if i < len(positions) {
			drawn.Position = positions[i]
		}
		result = append(result, drawn)
	}

	return result, nil
}
