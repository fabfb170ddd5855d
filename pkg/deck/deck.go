// Package deck 提供静态牌组数据与随机抽取逻辑
package deck

import "fmt"

// Element 牌组中的一个符号元素，静态参考数据，运行时不可变更
type Element struct {
	Code     string   `json:"code"`     // 唯一编码，如 major_00、wands_03、rune_fehu
	Title    string   `json:"title"`    // 展示名称
	Arcana   string   `json:"arcana"`   // 层级：major / minor / rune
	Suit     string   `json:"suit"`     // 花色，大阿卡纳与符文为空
	Keywords []string `json:"keywords"` // 关键词
}

// Deck 一副完整的牌组
type Deck []Element

// 层级常量
const (
	ArcanaMajor = "major"
	ArcanaMinor = "minor"
	ArcanaRune  = "rune"
)

// majorArcana 22 张大阿卡纳：名称与关键词
var majorArcana = []struct {
	title    string
	keywords []string
}{
	{"The Fool", []string{"beginnings", "innocence", "spontaneity"}},
	{"The Magician", []string{"manifestation", "power", "skill"}},
	{"The High Priestess", []string{"intuition", "mystery", "inner voice"}},
	{"The Empress", []string{"abundance", "nurturing", "nature"}},
	{"The Emperor", []string{"authority", "structure", "stability"}},
	{"The Hierophant", []string{"tradition", "guidance", "belief"}},
	{"The Lovers", []string{"union", "choice", "harmony"}},
	{"The Chariot", []string{"willpower", "victory", "control"}},
	{"Strength", []string{"courage", "patience", "compassion"}},
	{"The Hermit", []string{"introspection", "solitude", "wisdom"}},
	{"Wheel of Fortune", []string{"cycles", "destiny", "turning point"}},
	{"Justice", []string{"fairness", "truth", "accountability"}},
	{"The Hanged Man", []string{"surrender", "perspective", "pause"}},
	{"Death", []string{"endings", "transformation", "release"}},
	{"Temperance", []string{"balance", "moderation", "blending"}},
	{"The Devil", []string{"attachment", "shadow", "restriction"}},
	{"The Tower", []string{"upheaval", "revelation", "collapse"}},
	{"The Star", []string{"hope", "renewal", "inspiration"}},
	{"The Moon", []string{"illusion", "dreams", "uncertainty"}},
	{"The Sun", []string{"joy", "vitality", "clarity"}},
	{"Judgement", []string{"awakening", "reckoning", "absolution"}},
	{"The World", []string{"completion", "integration", "wholeness"}},
}

// minorSuits 小阿卡纳四种花色
var minorSuits = []struct {
	code     string
	title    string
	keywords []string
}{
	{"wands", "Wands", []string{"passion", "action", "creativity"}},
	{"cups", "Cups", []string{"emotion", "relationships", "intuition"}},
	{"swords", "Swords", []string{"intellect", "conflict", "truth"}},
	{"pentacles", "Pentacles", []string{"material", "work", "body"}},
}

// minorRanks 小阿卡纳点数，Ace 到 King 共 14 张
var minorRanks = []string{
	"Ace", "Two", "Three", "Four", "Five", "Six", "Seven",
	"Eight", "Nine", "Ten", "Page", "Knight", "Queen", "King",
}

// elderFuthark 24 个古弗萨克符文
var elderFuthark = []struct {
	code     string
	title    string
	keywords []string
}{
	{"fehu", "Fehu", []string{"wealth", "abundance"}},
	{"uruz", "Uruz", []string{"strength", "vitality"}},
	{"thurisaz", "Thurisaz", []string{"threshold", "conflict"}},
	{"ansuz", "Ansuz", []string{"communication", "insight"}},
	{"raidho", "Raidho", []string{"journey", "rhythm"}},
	{"kenaz", "Kenaz", []string{"torch", "knowledge"}},
	{"gebo", "Gebo", []string{"gift", "partnership"}},
	{"wunjo", "Wunjo", []string{"joy", "fellowship"}},
	{"hagalaz", "Hagalaz", []string{"disruption", "hail"}},
	{"nauthiz", "Nauthiz", []string{"need", "constraint"}},
	{"isa", "Isa", []string{"stillness", "ice"}},
	{"jera", "Jera", []string{"harvest", "cycle"}},
	{"eihwaz", "Eihwaz", []string{"endurance", "yew"}},
	{"perthro", "Perthro", []string{"fate", "mystery"}},
	{"algiz", "Algiz", []string{"protection", "awakening"}},
	{"sowilo", "Sowilo", []string{"sun", "success"}},
	{"tiwaz", "Tiwaz", []string{"justice", "sacrifice"}},
	{"berkano", "Berkano", []string{"growth", "birch"}},
	{"ehwaz", "Ehwaz", []string{"trust", "movement"}},
	{"mannaz", "Mannaz", []string{"humanity", "self"}},
	{"laguz", "Laguz", []string{"water", "flow"}},
	{"ingwaz", "Ingwaz", []string{"seed", "potential"}},
	{"dagaz", "Dagaz", []string{"dawn", "breakthrough"}},
	{"othala", "Othala", []string{"heritage", "home"}},
}

var (
	tarotDeck Deck
	runeDeck  Deck
)

func init() {
	tarotDeck = buildTarotDeck()
	runeDeck = buildRuneDeck()
}

// buildTarotDeck 构建标准 78 张塔罗牌组
func buildTarotDeck() Deck {
	d := make(Deck, 0, 78)

	// 22 张大阿卡纳
	for i, m := range majorArcana {
		d = append(d, Element{
			Code:     fmt.Sprintf("major_%02d", i),
			Title:    m.title,
			Arcana:   ArcanaMajor,
			Keywords: m.keywords,
		})
	}

	// 4 花色 × 14 点数 = 56 张小阿卡纳
	for _, suit := range minorSuits {
		for i, rank := range minorRanks {
			d = append(d, Element{
				Code:     fmt.Sprintf("%s_%02d", suit.code, i+1),
				Title:    fmt.Sprintf("%s of %s", rank, suit.title),
				Arcana:   ArcanaMinor,
				Suit:     suit.code,
				Keywords: suit.keywords,
			})
		}
	}

	return d
}

// buildRuneDeck 构建 24 个符文的牌组
func buildRuneDeck() Deck {
	d := make(Deck, 0, len(elderFuthark))
	for _, r := range elderFuthark {
		d = append(d, Element{
			Code:     "rune_" + r.code,
			Title:    r.title,
			Arcana:   ArcanaRune,
			Keywords: r.keywords,
		})
	}
	return d
}

// Tarot 返回标准塔罗牌组
func Tarot() Deck {
	return tarotDeck
}

// Runes 返回古弗萨克符文牌组
func Runes() Deck {
	return runeDeck
}

// Find 按编码查找元素
func (d Deck) Find(code string) (Element, bool) {
	for _, e := range d {
		if e.Code == code {
			return e, true
		}
	}
	return Element{}, false
}
