package reading

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretationsRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	src := Interpretations{
		Styles: map[string]StyleEntry{
			StyleTraditional: {
				Content:    "正位的愚者……",
				Model:      "gemini-pro",
				TokensUsed: &TokenCount{Input: 100, Output: 300},
				CreatedAt:  now,
			},
		},
		Meta: &Metadata{
			Subtype: "tarot",
			Spread:  "three_card",
			Tier:    TierFree,
		},
	}

	data, err := json.Marshal(src)
	require.NoError(t, err)

	// 风格键与 _metadata 平铺在同一个对象里
	var flat map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Contains(t, flat, StyleTraditional)
	assert.Contains(t, flat, MetadataKey)

	var dst Interpretations
	require.NoError(t, json.Unmarshal(data, &dst))
	assert.Equal(t, src.Styles[StyleTraditional].Content, dst.Styles[StyleTraditional].Content)
	assert.Equal(t, 300, dst.Styles[StyleTraditional].TokensUsed.Output)
	require.NotNil(t, dst.Meta)
	assert.Equal(t, "three_card", dst.Meta.Spread)
}

func TestLegacyFlatInterpretationReadsAsTraditional(t *testing.T) {
	createdAt := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	r := Reading{
		Interpretation: "旧版的整段解读文本",
	}
	r.CreatedAt = createdAt

	r.NormalizeLegacy()

	require.True(t, r.Interpretations.HasStyle(StyleTraditional))
	entry := r.Interpretations.Styles[StyleTraditional]
	assert.Equal(t, "旧版的整段解读文本", entry.Content)
	assert.Equal(t, createdAt, entry.CreatedAt)
	// 不会凭空生成其他风格
	assert.Len(t, r.Interpretations.Styles, 1)
}

func TestNormalizeLegacyDoesNotOverwriteNewFormat(t *testing.T) {
	r := Reading{Interpretation: "旧文本"}
	r.Interpretations.MergeStyle(StyleTraditional, StyleEntry{Content: "新文档里的解读"})

	r.NormalizeLegacy()

	assert.Equal(t, "新文档里的解读", r.Interpretations.Styles[StyleTraditional].Content)
}

func TestAppendTurnsIsAppendOnly(t *testing.T) {
	var i Interpretations
	i.AppendTurns(
		Turn{Role: "user", Content: "这张塔牌意味着什么？"},
		Turn{Role: "assistant", Content: "塔代表突变……"},
	)
	i.AppendTurns(
		Turn{Role: "user", Content: "那我该怎么做？"},
		Turn{Role: "assistant", Content: "先接受变化……"},
	)

	require.NotNil(t, i.Meta)
	require.Len(t, i.Meta.Conversation, 4)
	assert.Equal(t, "这张塔牌意味着什么？", i.Meta.Conversation[0].Content)
	assert.Equal(t, "那我该怎么做？", i.Meta.Conversation[2].Content)
	assert.Equal(t, 2, i.Meta.FollowUpCount)
}

func TestMergeStyleOnlyTouchesOwnKey(t *testing.T) {
	var i Interpretations
	i.AppendTurns(Turn{Role: "user", Content: "追问"})
	i.MergeStyle(StyleEsoteric, StyleEntry{Content: "奥秘视角……"})

	assert.Len(t, i.Meta.Conversation, 1)
	assert.True(t, i.HasStyle(StyleEsoteric))
	assert.False(t, i.HasStyle(StyleTraditional))
}

func TestElementsScanValue(t *testing.T) {
	src := Elements{
		{ElementID: "major_00", Title: "The Fool", Arcana: "major", Position: "Past", Reversed: true},
	}

	val, err := src.Value()
	require.NoError(t, err)

	var dst Elements
	require.NoError(t, dst.Scan(val))
	require.Len(t, dst, 1)
	assert.Equal(t, "major_00", dst[0].ElementID)
	assert.True(t, dst[0].Reversed)
}

func TestInterpretationsScanNil(t *testing.T) {
	var i Interpretations
	require.NoError(t, i.Scan(nil))
	assert.Empty(t, i.Styles)
	assert.Nil(t, i.Meta)
}

func TestReadingValidate(t *testing.T) {
	r := Reading{}
	assert.Error(t, r.Validate())

	r.UserID = "user-1"
	assert.Error(t, r.Validate())

	r.SystemID = "tarot"
	assert.Error(t, r.Validate())

	r.Elements = Elements{{ElementID: "major_00"}}
	assert.NoError(t, r.Validate())
}

func TestValidStyle(t *testing.T) {
	assert.True(t, ValidStyle(StyleTraditional))
	assert.True(t, ValidStyle(StyleEsoteric))
	assert.True(t, ValidStyle(StyleJungian))
	assert.False(t, ValidStyle("_metadata"))
	assert.False(t, ValidStyle("freestyle"))
}
