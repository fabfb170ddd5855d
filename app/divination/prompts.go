package divination

import (
	"fmt"
	"strings"

	"oracle/app/models/reading"
)

// 各解读风格的系统提示词
var styleSystemPrompts = map[string]string{
	reading.StyleTraditional: "你是一位经验丰富的占卜师。依照传统牌意，结合牌位与正逆位，" +
		"给出贴近提问者处境的整体解读。语气温和笃定，不使用模棱两可的空话。",
	reading.StyleEsoteric: "你是一位研究神秘学的解读者。从元素、数字与象征体系的对应关系切入，" +
		"揭示这次抽取背后的奥秘结构与能量流动。",
	reading.StyleJungian: "你是一位熟悉荣格心理学的分析师。把抽取结果视为集体无意识的原型显现，" +
		"围绕阴影、阿尼玛/阿尼姆斯与个体化进程展开解读。",
}

// SystemPromptForStyle 获取某一风格的系统提示词
func SystemPromptForStyle(style string) string {
	return styleSystemPrompts[style]
}

// BuildReadingPrompt 根据抽取结果、问题与增补上下文构建用户提示词
func BuildReadingPrompt(rd *reading.Reading, enrichment Enrichment) string {
	var sb strings.Builder

	sb.WriteString("本次抽取结果：\n")
	sb.WriteString(FormatElements(rd.Elements))

	if rd.Question != "" {
		sb.WriteString(fmt.Sprintf("\n提问者的问题：%s\n", rd.Question))
	} else {
		sb.WriteString("\n提问者没有具体问题，请做整体解读。\n")
	}

	if enrichment.RecentSummary != "" {
		sb.WriteString("\n提问者最近的占卜记录（用于保持解读连续性）：\n")
		sb.WriteString(enrichment.RecentSummary)
	}

	if p := enrichment.Profile; p != nil && p.HasBirthContext() {
		sb.WriteString(fmt.Sprintf("\n提问者出生信息：%s", p.BirthDate.Format("2006-01-02")))
		if p.BirthLocation != "" {
			sb.WriteString("，" + p.BirthLocation)
		}
		sb.WriteString("\n")
	}

	if rd.Language != "" {
		sb.WriteString(fmt.Sprintf("\n请使用 %s 输出解读。\n", rd.Language))
	}

	return sb.String()
}

// BuildFollowUpPrompt 构建追问对话的提示词，携带原解读与既有对话
func BuildFollowUpPrompt(rd *reading.Reading, question string) string {
	var sb strings.Builder

	sb.WriteString("此前的抽取结果：\n")
	sb.WriteString(FormatElements(rd.Elements))

	if entry, ok := rd.Interpretations.Styles[reading.StyleTraditional]; ok {
		sb.WriteString("\n此前给出的解读：\n")
		sb.WriteString(entry.Content)
		sb.WriteString("\n")
	}

	if rd.Interpretations.Meta != nil {
		for _, turn := range rd.Interpretations.Meta.Conversation {
			sb.WriteString(fmt.Sprintf("\n[%s] %s", turn.Role, turn.Content))
		}
	}

	sb.WriteString(fmt.Sprintf("\n\n提问者的追问：%s\n请围绕已有解读回答，不要重新抽取。", question))
	return sb.String()
}

// FormatElements 把元素列表格式化为提示词片段
func FormatElements(elements reading.Elements) string {
	var sb strings.Builder
	for i, e := range elements {
		orientation := "正位"
		if e.Reversed {
			orientation = "逆位"
		}
		if e.Position != "" {
			sb.WriteString(fmt.Sprintf("%d. [%s] %s（%s）\n", i+1, e.Position, e.Title, orientation))
		} else {
			sb.WriteString(fmt.Sprintf("%d. %s（%s）\n", i+1, e.Title, orientation))
		}
	}
	return sb.String()
}
