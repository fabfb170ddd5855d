package divination

import (
	"context"

	"oracle/app/models/reading"
	"oracle/pkg/deck"
	"oracle/pkg/provider"
)

// SystemRunes 符文系统标识
const SystemRunes = "runes"

// runeDrawCount 符文固定抽取数量
const runeDrawCount = 3

// runePositions 符文三连抽的固定位标签
var runePositions = []string{"Situation", "Challenge", "Guidance"}

// Runes 符文占卜系统
//
// 固定三枚符文，不依赖牌阵表；LoadContext 使用 BaseSystem 的
// 无操作默认实现，符文解读不做历史增补。
type Runes struct {
	BaseSystem
}

// NewRunes 创建符文系统
func NewRunes(store ReadingStore, providers *provider.Registry, genOpts provider.Options) *Runes {
	return &Runes{
		BaseSystem: BaseSystem{
			Store:     store,
			Providers: providers,
			GenOpts:   genOpts,
		},
	}
}

// ID 实现 System 接口
func (r *Runes) ID() string {
	return SystemRunes
}

// Validate 实现 System 接口
func (r *Runes) Validate(req *Request) error {
	if req.UserID == "" {
		return &ValidationError{Field: "user_id"}
	}
	if req.SystemID == "" {
		return &ValidationError{Field: "system_id"}
	}

	if req.Style == "" {
		req.Style = reading.StyleTraditional
	}
	if !reading.ValidStyle(req.Style) {
		return &ValidationError{Field: "style"}
	}
	if req.Tier == "" {
		req.Tier = reading.TierFree
	}
	return nil
}

// Draw 实现 System 接口
func (r *Runes) Draw(run *Run) error {
	drawn, err := deck.Draw(deck.Runes(), runeDrawCount, true, runePositions)
	if err != nil {
		return err
	}

	elements := make(reading.Elements, 0, len(drawn))
	for _, d := range drawn {
		elements = append(elements, reading.Element{
			ElementID: d.Element.Code,
			Title:     d.Element.Title,
			Arcana:    d.Element.Arcana,
			Position:  d.Position,
			Reversed:  d.Reversed,
		})
	}

	run.Reading = &reading.Reading{
		UserID:   run.Request.UserID,
		SystemID: run.Request.SystemID,
		Question: run.Request.Question,
		Language: run.Request.Language,
		Elements: elements,
		Interpretations: reading.Interpretations{
			Styles: map[string]reading.StyleEntry{},
			Meta: &reading.Metadata{
				Subtype: SystemRunes,
				Tier:    run.Request.Tier,
			},
		},
	}
	return nil
}

// Interpret 实现 System 接口
func (r *Runes) Interpret(ctx context.Context, run *Run) error {
	return r.interpret(ctx, run, SystemPromptForStyle(run.Request.Style))
}
