package divination

import (
	"context"

	"oracle/app/models/reading"
	"oracle/pkg/deck"
	"oracle/pkg/provider"
)

// SystemTarot 塔罗系统标识
const SystemTarot = "tarot"

// recentHistoryLimit LoadContext 阶段回看的历史条数
const recentHistoryLimit = 3

// Tarot 塔罗占卜系统
//
// 牌阵驱动：抽取张数与牌位标签来自请求指定的牌阵，允许逆位。
type Tarot struct {
	BaseSystem
	enricher *Enricher
}

// NewTarot 创建塔罗系统
func NewTarot(store ReadingStore, profiles ProfileStore, providers *provider.Registry, genOpts provider.Options) *Tarot {
	return &Tarot{
		BaseSystem: BaseSystem{
			Store:     store,
			Providers: providers,
			GenOpts:   genOpts,
		},
		enricher: NewEnricher(store, profiles),
	}
}

// ID 实现 System 接口
func (t *Tarot) ID() string {
	return SystemTarot
}

// Validate 实现 System 接口，同时填充默认值
func (t *Tarot) Validate(req *Request) error {
	if req.UserID == "" {
		return &ValidationError{Field: "user_id"}
	}
	if req.SystemID == "" {
		return &ValidationError{Field: "system_id"}
	}
	if req.Spread == "" {
		return &ValidationError{Field: "spread"}
	}
	if _, ok := deck.GetSpread(req.Spread); !ok {
		return &ValidationError{Field: "spread"}
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

// LoadContext 实现 System 接口：历史连续性 + 出生上下文，均为尽力而为
func (t *Tarot) LoadContext(ctx context.Context, run *Run) error {
	run.Context.RecentSummary = t.enricher.RecentSummary(ctx, run.Request.UserID, recentHistoryLimit)
	run.Context.Profile = t.enricher.Profile(ctx, run.Request.UserID)
	return nil
}

// Draw 实现 System 接口
func (t *Tarot) Draw(run *Run) error {
	spread, _ := deck.GetSpread(run.Request.Spread)

	drawn, err := deck.Draw(deck.Tarot(), spread.Count, true, spread.Positions)
	if err != nil {
		return err
	}

	elements := make(reading.Elements, 0, len(drawn))
	for _, d := range drawn {
		elements = append(elements, reading.Element{
			ElementID: d.Element.Code,
			Title:     d.Element.Title,
			Arcana:    d.Element.Arcana,
			Suit:      d.Element.Suit,
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
				Subtype: SystemTarot,
				Spread:  spread.ID,
				Tier:    run.Request.Tier,
			},
		},
	}
	return nil
}

// Interpret 实现 System 接口
func (t *Tarot) Interpret(ctx context.Context, run *Run) error {
	return t.interpret(ctx, run, SystemPromptForStyle(run.Request.Style))
}
