package model

// 三张持久化表，每张表整体序列化为一个 JSON 文档。
// 缺失的表/损坏的文档一律按空表处理，不向上抛错。

// 表名
const (
	TableAuthorization = "authorization"
	TableGroupConfig   = "group_config"
	TableWordBank      = "word_bank"
)

// GlobalConfigKey GroupConfig 表的保留键：全局配置（只用 auto_join 字段）
const GlobalConfigKey = "global"

// AuthTable 群号 -> 授权到期时间（Unix 秒）。缺失视为 0，即从未授权。
type AuthTable map[string]int64

// GroupConfig 单个群的配置。缺失的群等价于默认值，首次写入前不落盘。
type GroupConfig struct {
	QRRecall       bool `json:"qr_recall" bson:"qr_recall"`             // 图片消息直接撤回
	RepeatLimit    int  `json:"repeat_limit" bson:"repeat_limit"`       // 刷屏判定次数，>=1
	AntispamActive bool `json:"antispam_active" bson:"antispam_active"` // 刷屏检测开关
	AutoJoin       bool `json:"auto_join" bson:"auto_join"`             // 仅 global 键有意义
}

// DefaultGroupConfig 默认配置
func DefaultGroupConfig() *GroupConfig {
	return &GroupConfig{
		QRRecall:       false,
		RepeatLimit:    3,
		AntispamActive: true,
		AutoJoin:       true,
	}
}

// ConfigTable 群号 -> 配置
type ConfigTable map[string]*GroupConfig

// Get 取群配置；缺失返回默认值（不写回表）。
func (t ConfigTable) Get(groupID string) *GroupConfig {
	if c, ok := t[groupID]; ok && c != nil {
		return c
	}
	return DefaultGroupConfig()
}

// QA 词库条目。模糊表用有序切片而不是 map：
// 命中规则是“按加入顺序取第一个子串匹配”，Go 的 map 不保序。
type QA struct {
	Q string `json:"q" bson:"q"`
	A string `json:"a" bson:"a"`
}

// WordBank 单个群的词库
type WordBank struct {
	Exact map[string]string `json:"exact" bson:"exact"`
	Fuzzy []QA              `json:"fuzzy" bson:"fuzzy"`
}

func NewWordBank() *WordBank {
	return &WordBank{Exact: make(map[string]string)}
}

// SetExact 精确条目：同问题覆盖答案
func (w *WordBank) SetExact(q, a string) {
	if w.Exact == nil {
		w.Exact = make(map[string]string)
	}
	w.Exact[q] = a
}

// SetFuzzy 模糊条目：同问题就地覆盖，保持首次加入的位置
func (w *WordBank) SetFuzzy(q, a string) {
	for i := range w.Fuzzy {
		if w.Fuzzy[i].Q == q {
			w.Fuzzy[i].A = a
			return
		}
	}
	w.Fuzzy = append(w.Fuzzy, QA{Q: q, A: a})
}

// WordTable 群号 -> 词库
type WordTable map[string]*WordBank
