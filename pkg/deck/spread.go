package deck

// Spread 牌阵，决定抽取张数与各牌位的含义标签
type Spread struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Count     int      `json:"count"`
	Positions []string `json:"positions"`
}

// 预定义牌阵
var spreads = map[string]Spread{
	"single": {
		ID:        "single",
		Name:      "单牌",
		Count:     1,
		Positions: []string{"Focus"},
	},
	"three_card": {
		ID:        "three_card",
		Name:      "时间之流",
		Count:     3,
		Positions: []string{"Past", "Present", "Future"},
	},
	"celtic_cross": {
		ID:        "celtic_cross",
		Name:      "凯尔特十字",
		Count:     10,
		Positions: []string{
			"Present", "Challenge", "Foundation", "Past",
			"Crown", "Future", "Self", "Environment",
			"Hopes and Fears", "Outcome",
		},
	},
}

// GetSpread 按 ID 获取牌阵
func GetSpread(id string) (Spread, bool) {
	s, ok := spreads[id]
	return s, ok
}
