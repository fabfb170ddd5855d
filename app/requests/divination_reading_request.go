package requests

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/thedevsaddam/govalidator"

	"oracle/app/divination"
	"oracle/pkg/deck"
)

// DivinationReadingRequest 创建解读的请求体
type DivinationReadingRequest struct {
	UserID   string `json:"user_id" valid:"required"`
	SystemID string `json:"system_id" valid:"required"`
	Question string `json:"question"`
	Language string `json:"language"`
	Spread   string `json:"spread"`
	Style    string `json:"style"`
	Tier     string `json:"tier"`
}

// ValidateDivinationReading 验证创建解读请求
//
// 只做传输层校验（字段形态），领域校验交给各占卜系统的 Validate 阶段。
func ValidateDivinationReading(c *gin.Context) (*DivinationReadingRequest, error) {
	var req DivinationReadingRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	rules := govalidator.MapData{
		"user_id":   []string{"required"},
		"system_id": []string{"required", "in:tarot,runes"},
		"style":     []string{"in:traditional,esoteric,jungian"},
		"tier":      []string{"in:free,premium"},
	}

	messages := govalidator.MapData{
		"user_id": []string{
			"required:用户 ID 不能为空",
		},
		"system_id": []string{
			"required:占卜系统不能为空",
			"in:占卜系统必须是 tarot 或 runes",
		},
		"style": []string{
			"in:解读风格必须是 traditional、esoteric 或 jungian",
		},
		"tier": []string{
			"in:解读类型必须是 free 或 premium",
		},
	}

	opts := govalidator.Options{
		Data:     &req,
		Rules:    rules,
		Messages: messages,
	}

	if errs := govalidator.New(opts).ValidateStruct(); len(errs) > 0 {
		return nil, fmt.Errorf("验证失败: %v", errs)
	}

	// 塔罗必须指定已知牌阵
	if req.SystemID == divination.SystemTarot {
		if req.Spread == "" {
			return nil, fmt.Errorf("塔罗解读必须指定牌阵")
		}
		if _, ok := deck.GetSpread(req.Spread); !ok {
			return nil, fmt.Errorf("无效的牌阵: %s", req.Spread)
		}
	}

	return &req, nil
}

// StyleGenerationRequest 补生成风格的请求体
type StyleGenerationRequest struct {
	Style string `json:"style" valid:"required"`
}

// ValidateStyleGeneration 验证风格补生成请求
func ValidateStyleGeneration(c *gin.Context) (*StyleGenerationRequest, error) {
	rules := govalidator.MapData{
		"style": []string{"required", "in:traditional,esoteric,jungian"},
	}
	messages := govalidator.MapData{
		"style": []string{
			"required:解读风格不能为空",
			"in:解读风格必须是 traditional、esoteric 或 jungian",
		},
	}
	req, err := ValidateRequest[StyleGenerationRequest](c, rules, messages)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// FollowUpRequest 追问请求体
type FollowUpRequest struct {
	Question string `json:"question" valid:"required"`
}

// ValidateFollowUp 验证追问请求
func ValidateFollowUp(c *gin.Context) (*FollowUpRequest, error) {
	rules := govalidator.MapData{
		"question": []string{"required", "min:1"},
	}
	messages := govalidator.MapData{
		"question": []string{
			"required:追问内容不能为空",
			"min:追问长度不能小于 1 个字符",
		},
	}
	req, err := ValidateRequest[FollowUpRequest](c, rules, messages)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ReflectionRequest 保存反思的请求体
type ReflectionRequest struct {
	Reflection string `json:"reflection"`
}

// ValidateReflection 验证反思请求，允许清空反思
func ValidateReflection(c *gin.Context) (*ReflectionRequest, error) {
	var req ReflectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}
	return &req, nil
}
