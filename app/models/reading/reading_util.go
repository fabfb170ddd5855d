package reading

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// 解读风格，封闭集合：键不存在表示该风格尚未生成
const (
	StyleTraditional = "traditional"
	StyleEsoteric    = "esoteric"
	StyleJungian     = "jungian"
)

// MetadataKey interpretations 文档中的保留键，存放非风格类簿记信息
const MetadataKey = "_metadata"

// 解读层级
const (
	TierFree    = "free"    // 免费解读
	TierPremium = "premium" // 付费解读
)

// ValidStyle 检查风格键是否在封闭集合内
func ValidStyle(style string) bool {
	switch style {
	case StyleTraditional, StyleEsoteric, StyleJungian:
		return true
	}
	return false
}

// Element 已抽取的单个元素，Draw 阶段写入一次后不可变
type Element struct {
	ElementID string `json:"element_id"`
	Title     string `json:"title"`
	Arcana    string `json:"arcana,omitempty"`
	Suit      string `json:"suit,omitempty"`
	Position  string `json:"position,omitempty"`
	Reversed  bool   `json:"reversed"`
}

// Elements 自定义类型用于处理元素数组的 JSON 序列化
type Elements []Element

// Value 实现 driver.Valuer 接口
func (e Elements) Value() (driver.Value, error) {
	if len(e) == 0 {
		return "[]", nil
	}
	return json.Marshal(e)
}

// Scan 实现 sql.Scanner 接口
func (e *Elements) Scan(value interface{}) error {
	if value == nil {
		*e = Elements{}
		return nil
	}

	bytes, err := toBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, e)
}

// TokenCount 单次生成的 token 用量
type TokenCount struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// StyleEntry 某一风格下的解读内容
type StyleEntry struct {
	Content    string      `json:"content"`
	Model      string      `json:"model,omitempty"`
	TokensUsed *TokenCount `json:"tokens_used,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Turn 追问对话中的一轮
type Turn struct {
	Role      string    `json:"role"` // user / assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Metadata _metadata 保留键的内容
type Metadata struct {
	Subtype       string `json:"subtype,omitempty"`         // 解读子类型
	Spread        string `json:"spread,omitempty"`          // 牌阵 ID（适用时）
	Tier          string `json:"tier,omitempty"`            // 创建时的层级
	FollowUpCount int    `json:"follow_up_count,omitempty"` // 追问次数
	Conversation  []Turn `json:"conversation,omitempty"`    // 内嵌对话
	Reflection    string `json:"reflection,omitempty"`      // 已废弃的反思镜像，只写不读
}

// Interpretations 多风格解读文档
//
// 序列化为一个扁平 JSON 对象：风格键平铺，_metadata 存放簿记。
// 每个写入方只允许增改自己拥有的子键，避免并发合并时整个文档损坏。
type Interpretations struct {
	Styles map[string]StyleEntry
	Meta   *Metadata
}

// MarshalJSON 实现 json.Marshaler，将风格与 _metadata 平铺到同一对象
func (i Interpretations) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(i.Styles)+1)
	for key, entry := range i.Styles {
		flat[key] = entry
	}
	if i.Meta != nil {
		flat[MetadataKey] = i.Meta
	}
	return json.Marshal(flat)
}

// UnmarshalJSON 实现 json.Unmarshaler
func (i *Interpretations) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	i.Styles = make(map[string]StyleEntry, len(flat))
	i.Meta = nil

	for key, raw := range flat {
		if key == MetadataKey {
			meta := &Metadata{}
			if err := json.Unmarshal(raw, meta); err != nil {
				return err
			}
			i.Meta = meta
			continue
		}

		var entry StyleEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		i.Styles[key] = entry
	}
	return nil
}

// Value 实现 driver.Valuer 接口
func (i Interpretations) Value() (driver.Value, error) {
	return json.Marshal(i)
}

// Scan 实现 sql.Scanner 接口
func (i *Interpretations) Scan(value interface{}) error {
	if value == nil {
		*i = Interpretations{Styles: map[string]StyleEntry{}}
		return nil
	}

	bytes, err := toBytes(value)
	if err != nil {
		return err
	}
	if len(bytes) == 0 {
		*i = Interpretations{Styles: map[string]StyleEntry{}}
		return nil
	}
	return json.Unmarshal(bytes, i)
}

// HasStyle 检查某一风格是否已生成
func (i Interpretations) HasStyle(style string) bool {
	_, ok := i.Styles[style]
	return ok
}

// MergeStyle 增改单个风格子键，不触碰其他键
func (i *Interpretations) MergeStyle(style string, entry StyleEntry) {
	if i.Styles == nil {
		i.Styles = make(map[string]StyleEntry)
	}
	i.Styles[style] = entry
}

// AppendTurns 向内嵌对话追加若干轮，只追加、不截断、不重排
func (i *Interpretations) AppendTurns(turns ...Turn) {
	if i.Meta == nil {
		i.Meta = &Metadata{}
	}
	i.Meta.Conversation = append(i.Meta.Conversation, turns...)
	i.Meta.FollowUpCount++
}

// SetReflectionMirror 写入已废弃的反思镜像（权威位置是 Reading.Reflection）
func (i *Interpretations) SetReflectionMirror(text string) {
	if i.Meta == nil {
		i.Meta = &Metadata{}
	}
	i.Meta.Reflection = text
}

// toBytes 兼容驱动返回 []byte 或 string 两种形态
func toBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, errors.New("invalid type for json column")
}

// NormalizeLegacy 旧版兼容：只有扁平字符串解读时，视作 traditional 风格
func (r *Reading) NormalizeLegacy() {
	if len(r.Interpretations.Styles) > 0 || r.Interpretation == "" {
		return
	}

	r.Interpretations.MergeStyle(StyleTraditional, StyleEntry{
		Content:   r.Interpretation,
		CreatedAt: r.CreatedAt,
	})
}

// Validate 验证记录
func (r *Reading) Validate() error {
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	if r.SystemID == "" {
		return errors.New("system_id is required")
	}
	if len(r.Elements) == 0 {
		return errors.New("elements cannot be empty")
	}
	return nil
}

// HasReflection 检查是否已填写反思
func (r *Reading) HasReflection() bool {
	return r.Reflection != ""
}
